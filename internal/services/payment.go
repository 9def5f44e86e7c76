package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/google/uuid"
)

// ErrPaymentFailed is the class of every gateway failure.
var ErrPaymentFailed = errors.New("payment processing failed")

// PaymentError carries a gateway failure detail that is safe to show to the donor.
type PaymentError struct {
	Detail string
}

func (e *PaymentError) Error() string {
	return "payment processing failed: " + e.Detail
}

// Unwrap lets errors.Is match ErrPaymentFailed.
func (e *PaymentError) Unwrap() error {
	return ErrPaymentFailed
}

// PaymentIntent is a successful charge.
type PaymentIntent struct {
	ID       string
	Amount   models.Cents
	Currency string
	Status   string
}

// PaymentGateway is the payment processor used by donations.
type PaymentGateway interface {
	Charge(ctx context.Context, amount models.Cents, currency string) (*PaymentIntent, error)
	Refund(ctx context.Context, intentID string) (string, error)
	Status(ctx context.Context, intentID string) (string, error)
}

const mockIntentPrefix = "pi_mock_"

// MockGateway simulates a card processor: a short network delay and a 95%
// success rate. It never sees card data.
type MockGateway struct {
	Delay       time.Duration
	SuccessRate float64

	rand func() float64
	now  func() time.Time
}

// NewMockGateway creates a gateway with a 100ms delay and 95% success rate.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Delay:       100 * time.Millisecond,
		SuccessRate: 0.95,
		rand:        rand.Float64,
		now:         time.Now,
	}
}

// NewMockGatewayWithRand creates a gateway with no delay and a caller-supplied
// random source, for deterministic tests.
func NewMockGatewayWithRand(r func() float64) *MockGateway {
	g := NewMockGateway()
	g.Delay = 0
	g.rand = r
	return g
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mockID returns prefix + unix seconds + a random suffix, unique even for
// many ids issued within the same second.
func (g *MockGateway) mockID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("%s%d_%s", prefix, g.now().Unix(), suffix)
}

// Charge simulates creating and confirming a payment intent.
func (g *MockGateway) Charge(ctx context.Context, amount models.Cents, currency string) (*PaymentIntent, error) {
	if err := g.wait(ctx); err != nil {
		paymentOperations.WithLabelValues("charge", "canceled").Inc()
		return nil, err
	}

	if g.rand() >= g.SuccessRate {
		paymentOperations.WithLabelValues("charge", "declined").Inc()
		return nil, &PaymentError{Detail: "Payment declined by processor"}
	}

	paymentOperations.WithLabelValues("charge", "succeeded").Inc()
	return &PaymentIntent{
		ID:       g.mockID(mockIntentPrefix),
		Amount:   amount,
		Currency: currency,
		Status:   "succeeded",
	}, nil
}

// Refund simulates refunding a payment intent and returns the refund id.
func (g *MockGateway) Refund(ctx context.Context, intentID string) (string, error) {
	if err := g.wait(ctx); err != nil {
		paymentOperations.WithLabelValues("refund", "canceled").Inc()
		return "", err
	}
	if !strings.HasPrefix(intentID, mockIntentPrefix) {
		paymentOperations.WithLabelValues("refund", "rejected").Inc()
		return "", &PaymentError{Detail: "Invalid payment intent ID"}
	}

	paymentOperations.WithLabelValues("refund", "succeeded").Inc()
	return g.mockID("re_mock_"), nil
}

// Status reports the processor-side status of an intent.
func (g *MockGateway) Status(ctx context.Context, intentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(intentID, mockIntentPrefix) {
		return "", &PaymentError{Detail: "Invalid payment intent ID"}
	}
	return "succeeded", nil
}
