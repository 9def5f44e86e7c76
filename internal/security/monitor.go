package security

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Alert severities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Alerter delivers security alerts to operators.
type Alerter interface {
	SendAlert(ctx context.Context, severity, title, message string) error
}

// LogAlerter is the default Alerter: alerts are written as CRITICAL log lines
// for the log pipeline to route.
type LogAlerter struct {
	logger *Logger
}

// NewLogAlerter creates an alerter backed by logger.
func NewLogAlerter(logger *Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// SendAlert implements Alerter.
func (a *LogAlerter) SendAlert(_ context.Context, severity, title, message string) error {
	a.logger.Critical(fmt.Sprintf("[ALERT %s] %s: %s", severity, title, message), nil)
	return nil
}

// SecurityMonitor watches for patterns that need an operator: repeated login
// failures and stored data that can no longer be decrypted.
type SecurityMonitor struct {
	logger  *Logger
	config  *SecurityConfig
	alerter Alerter

	mu           sync.Mutex
	failedLogins map[string]int
	lastReset    time.Time
	now          func() time.Time
}

// NewSecurityMonitor creates a monitor.
func NewSecurityMonitor(logger *Logger, config *SecurityConfig, alerter Alerter) *SecurityMonitor {
	return &SecurityMonitor{
		logger:       logger,
		config:       config,
		alerter:      alerter,
		failedLogins: make(map[string]int),
		lastReset:    time.Now(),
		now:          time.Now,
	}
}

// MonitorLoginFailure counts a failed login for identifier (a username) and
// raises a HIGH alert when the count reaches the configured threshold.
func (m *SecurityMonitor) MonitorLoginFailure(identifier string) {
	loginFailures.Inc()

	m.mu.Lock()
	m.failedLogins[identifier]++
	count := m.failedLogins[identifier]
	m.mu.Unlock()

	if count != m.config.AlertThresholdFailures {
		return
	}

	m.alert(SeverityHigh, "Repeated login failures",
		fmt.Sprintf("%d failed login attempts for account %s", count, identifier))
}

// MonitorDecryptFailure raises a HIGH alert for a stored field that could not
// be decrypted. Ciphertext and plaintext are never included.
func (m *SecurityMonitor) MonitorDecryptFailure(resourceType, resourceID string, err error) {
	m.logger.Error(fmt.Sprintf("Failed to decrypt %s %s", resourceType, resourceID), err)
	m.alert(SeverityHigh, "Field decryption failure",
		fmt.Sprintf("Stored %s %s could not be decrypted; check ENCRYPTION_KEY and data integrity", resourceType, resourceID))
}

func (m *SecurityMonitor) alert(severity, title, message string) {
	alertsSent.WithLabelValues(severity).Inc()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.alerter.SendAlert(ctx, severity, title, message); err != nil {
		m.logger.Error("Failed to send security alert", err)
	}
}

// ResetCounters clears failure counters once MonitoringInterval has elapsed
// since the previous reset.
func (m *SecurityMonitor) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.now().Sub(m.lastReset) < m.config.MonitoringInterval {
		return
	}
	m.failedLogins = make(map[string]int)
	m.lastReset = m.now()
}

// Run calls ResetCounters every MonitoringInterval until ctx is done.
func (m *SecurityMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.MonitoringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.ResetCounters()
		case <-ctx.Done():
			return
		}
	}
}
