package security

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/privacy"
)

// LogLevel is the severity label written to the "level" field.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// slog levels for the two labels slog does not define.
const (
	slogLevelSecurity = slog.Level(2)
	slogLevelCritical = slog.Level(12)
)

// SecurityEventType identifies a security-relevant action.
type SecurityEventType string

const (
	// Authentication
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventAccountLocked      SecurityEventType = "ACCOUNT_LOCKED"
	EventTokenRefresh       SecurityEventType = "TOKEN_REFRESH"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventForbiddenAccess    SecurityEventType = "FORBIDDEN_ACCESS"

	// Reports
	EventReportSubmit         SecurityEventType = "REPORT_SUBMIT"
	EventReportView           SecurityEventType = "REPORT_VIEW"
	EventReportDecryptFailure SecurityEventType = "REPORT_DECRYPT_FAILURE"
	EventReportStatsView      SecurityEventType = "REPORT_STATS_VIEW"

	// Donations
	EventDonationCreate     SecurityEventType = "DONATION_CREATE"
	EventDonationPaymentErr SecurityEventType = "DONATION_PAYMENT_FAILED"
	EventDonationRefund     SecurityEventType = "DONATION_REFUND"
	EventDonationDelete     SecurityEventType = "DONATION_DELETE"
	EventDonationMessagePII SecurityEventType = "DONATION_MESSAGE_PII"

	// Content administration
	EventContentCreate SecurityEventType = "CONTENT_CREATE"
	EventContentUpdate SecurityEventType = "CONTENT_UPDATE"
	EventContentDelete SecurityEventType = "CONTENT_DELETE"
	EventAuditLogView  SecurityEventType = "AUDIT_LOG_VIEW"

	// Abuse
	EventRateLimitExceeded   SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSQLInjectionAttempt SecurityEventType = "SQL_INJECTION_ATTEMPT"
	EventXSSAttempt          SecurityEventType = "XSS_ATTEMPT"
)

// LogEntry is the JSON shape of one log line. It documents the output format
// and is what tests and log processors decode into.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	EventType SecurityEventType      `json:"event_type,omitempty"`
	ActorID   *int                   `json:"actor_id,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Status    int                    `json:"status,omitempty"`
	LatencyMS int64                  `json:"latency_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger writes one JSON object per line through log/slog.
//
// Free text (messages, error strings and string values in extra) passes
// through the privacy log scope first, so email and IPv4 addresses never
// reach the output by accident. Client IP and user agent are written only
// when a caller passes them explicitly.
type Logger struct {
	slog     *slog.Logger
	redactor *privacy.Pipeline
}

// NewLogger creates a logger writing to stdout.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		ReplaceAttr: replaceAttr,
	})
	return &Logger{
		slog:     slog.New(h),
		redactor: privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeLog),
	}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		lvl, _ := a.Value.Any().(slog.Level)
		a.Value = slog.StringValue(string(levelName(lvl)))
	}
	return a
}

func levelName(l slog.Level) LogLevel {
	switch {
	case l >= slogLevelCritical:
		return LogLevelCritical
	case l >= slog.LevelError:
		return LogLevelError
	case l >= slog.LevelWarn:
		return LogLevelWarning
	case l >= slogLevelSecurity:
		return LogLevelSecurity
	default:
		return LogLevelInfo
	}
}

// Slog exposes the underlying slog logger for libraries that accept one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) write(level slog.Level, msg string, attrs ...slog.Attr) {
	l.slog.LogAttrs(context.Background(), level, l.redactor.Redact(msg), attrs...)
}

func (l *Logger) errAttr(err error) []slog.Attr {
	if err == nil {
		return nil
	}
	return []slog.Attr{slog.String("error", l.redactor.Redact(err.Error()))}
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.write(slog.LevelInfo, msg)
}

// InfoWith logs an informational message with extra fields.
func (l *Logger) InfoWith(msg string, extra map[string]interface{}) {
	l.write(slog.LevelInfo, msg, l.extraAttr(extra)...)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string) {
	l.write(slog.LevelWarn, msg)
}

// Error logs an error with its cause.
func (l *Logger) Error(msg string, err error) {
	l.write(slog.LevelError, msg, l.errAttr(err)...)
}

// Critical logs a failure that needs immediate attention.
func (l *Logger) Critical(msg string, err error) {
	l.write(slogLevelCritical, msg, l.errAttr(err)...)
}

// SecurityEvent logs a security-relevant action.
//
// Parameters:
//   - eventType: What happened
//   - actorID: Admin user id, nil for anonymous or system actions
//   - actor: Admin username, empty for anonymous actions
//   - ip, userAgent: Client identity; pass empty strings on public routes
//   - extra: Additional structured context
//
// Example:
//
//	logger.SecurityEvent(EventReportView, &actor.UserID, actor.Username, ip, ua,
//	    map[string]interface{}{"confirmation_code": code})
func (l *Logger) SecurityEvent(eventType SecurityEventType, actorID *int, actor, ip, userAgent string, extra map[string]interface{}) {
	attrs := []slog.Attr{slog.String("event_type", string(eventType))}
	if actorID != nil {
		attrs = append(attrs, slog.Int("actor_id", *actorID))
	}
	attrs = appendNonEmpty(attrs, "actor", actor)
	attrs = appendNonEmpty(attrs, "ip_address", ip)
	attrs = appendNonEmpty(attrs, "user_agent", userAgent)
	attrs = append(attrs, l.extraAttr(extra)...)

	l.write(slogLevelSecurity, fmt.Sprintf("Security event: %s", eventType), attrs...)
}

// HTTPRequest logs a completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ip, userAgent string) {
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Int64("latency_ms", latencyMS),
	}
	attrs = appendNonEmpty(attrs, "ip_address", ip)
	attrs = appendNonEmpty(attrs, "user_agent", userAgent)

	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	l.write(level, fmt.Sprintf("%s %s %d", method, path, status), attrs...)
}

func (l *Logger) extraAttr(extra map[string]interface{}) []slog.Attr {
	if len(extra) == 0 {
		return nil
	}
	clean := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		if s, ok := v.(string); ok {
			v = l.redactor.Redact(s)
		}
		clean[k] = v
	}
	return []slog.Attr{slog.Any("extra", clean)}
}

func appendNonEmpty(attrs []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return attrs
	}
	return append(attrs, slog.String(key, value))
}
