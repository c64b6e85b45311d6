package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/metrics"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

// PushResult is the outcome of one payment initiation attempt. Failures are
// values, not errors: callers on the other side of this boundary only ever
// branch on Success and relay Message.
type PushResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    *PushData `json:"data,omitempty"`
}

// PushData carries the gateway identifiers returned on acceptance.
type PushData struct {
	MerchantRequestID string `json:"merchant_request_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	CustomerMessage   string `json:"customer_message,omitempty"`
}

type pusher interface {
	Configured() bool
	STKPush(ctx context.Context, params mpesa.PushParams) (*mpesa.STKPushResponse, error)
}

// Service initiates STK push payments.
type Service interface {
	InitiatePush(ctx context.Context, phone string, amount decimal.Decimal) PushResult
}

type service struct {
	gateway pusher
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewService constructs the payment initiation service.
func NewService(gateway pusher, logg *logger.Logger, m *metrics.PaymentMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("mpesa gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{gateway: gateway, logg: logg, metrics: m}, nil
}

// InitiatePush sends the push prompt to the payer's handset. Every failure
// mode, panics included, comes back as a failed result.
func (s *service) InitiatePush(ctx context.Context, phone string, amount decimal.Decimal) (result PushResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logg.Error(s.logg.WithField(ctx, "panic", rec), "payment.initiate.panic", fmt.Errorf("panic: %v", rec))
			result = PushResult{Success: false, Message: "payment initiation failed"}
		}
		outcome := "failure"
		if result.Success {
			outcome = "success"
		}
		s.metrics.ObservePush(outcome, time.Since(start))
	}()

	if !s.gateway.Configured() {
		return PushResult{Success: false, Message: "payment gateway not configured"}
	}

	resp, err := s.gateway.STKPush(ctx, mpesa.PushParams{PhoneNumber: phone, Amount: amount})
	if err != nil {
		msg := "payment initiation failed"
		if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
			msg = typed.Message()
		}
		s.logg.Error(ctx, "payment.initiate.failed", err)
		return PushResult{Success: false, Message: msg}
	}

	return PushResult{
		Success: true,
		Message: "payment prompt sent",
		Data: &PushData{
			MerchantRequestID: resp.MerchantRequestID,
			CheckoutRequestID: resp.CheckoutRequestID,
			CustomerMessage:   resp.CustomerMessage,
		},
	}
}
