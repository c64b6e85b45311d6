package mpesawebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/metrics"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

const dedupScope = "mpesa"

type ledgerWriter interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
}

type reservationMarker interface {
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Reservation, error)
	MarkPaidByCheckout(ctx context.Context, checkoutRequestID string) (bool, error)
}

type dedupStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// ServiceParams wires the callback receiver dependencies. Dedup is optional:
// without redis every redelivery is absorbed by the status guard on the
// reservation update and an extra ledger row.
type ServiceParams struct {
	Ledger       ledgerWriter
	Reservations reservationMarker
	Dedup        dedupStore
	Logger       *logger.Logger
	Metrics      *metrics.PaymentMetrics
	Config       config.WebhookConfig
}

// Service applies gateway callbacks: ledger first, reservation second.
type Service struct {
	ledger       ledgerWriter
	reservations reservationMarker
	dedup        dedupStore
	logg         *logger.Logger
	metrics      *metrics.PaymentMetrics
	cfg          config.WebhookConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("payment ledger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		ledger:       params.Ledger,
		reservations: params.Reservations,
		dedup:        params.Dedup,
		logg:         params.Logger,
		metrics:      params.Metrics,
		cfg:          params.Config,
	}, nil
}

// HandleCallback records the callback outcome. Errors are only ever logged;
// the HTTP layer acknowledges the gateway no matter what happens here.
func (s *Service) HandleCallback(ctx context.Context, envelope *mpesa.CallbackEnvelope, raw []byte) {
	cb := envelope.Body.STKCallback
	ctx = s.logg.WithCheckoutRequestID(ctx, cb.CheckoutRequestID)
	ctx = s.logg.WithField(ctx, "result_code", cb.ResultCode)

	if s.isDuplicate(ctx, cb) {
		s.logg.Info(ctx, "webhook.mpesa.duplicate_dropped")
		return
	}

	outcome := "failure"
	if cb.Succeeded() {
		outcome = "success"
	}
	s.metrics.IncCallback(outcome)

	payment := buildLedgerRow(cb, raw)
	if _, err := s.ledger.Create(ctx, payment); err != nil {
		// Ledger row is best effort; the reservation update still proceeds.
		s.logg.Error(ctx, "webhook.mpesa.ledger_insert_failed", err)
	}

	if !cb.Succeeded() {
		s.logg.Info(ctx, "webhook.mpesa.payment_failed")
		return
	}

	s.markReservationPaid(ctx, cb.CheckoutRequestID)
}

// isDuplicate claims the callback identity in redis. Claim failures count as
// not-duplicate so a redis outage never drops payments.
func (s *Service) isDuplicate(ctx context.Context, cb mpesa.STKCallback) bool {
	if s.dedup == nil || cb.CheckoutRequestID == "" {
		return false
	}
	key := s.dedup.IdempotencyKey(dedupScope, fmt.Sprintf("%s:%d", cb.CheckoutRequestID, cb.ResultCode))
	ttl := s.cfg.DedupTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claimed, err := s.dedup.SetNX(ctx, key, 1, ttl)
	if err != nil {
		s.logg.Error(ctx, "webhook.mpesa.dedup_unavailable", err)
		return false
	}
	return !claimed
}

// markReservationPaid retries briefly so a callback racing the reservation
// insert still lands; a checkout nobody knows is logged and counted.
func (s *Service) markReservationPaid(ctx context.Context, checkoutRequestID string) {
	retries := s.cfg.LookupRetries
	if retries <= 0 {
		retries = 3
	}
	backoffStep := s.cfg.LookupRetryBackoff
	if backoffStep <= 0 {
		backoffStep = 200 * time.Millisecond
	}

	errNoMatch := errors.New("no reservation for checkout request")

	backoff := retry.WithMaxRetries(uint64(retries), retry.NewConstant(backoffStep))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		updated, err := s.reservations.MarkPaidByCheckout(ctx, checkoutRequestID)
		if err != nil {
			return retry.RetryableError(err)
		}
		if updated {
			return nil
		}
		if _, err := s.reservations.FindByCheckoutRequestID(ctx, checkoutRequestID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return retry.RetryableError(errNoMatch)
			}
			return retry.RetryableError(err)
		}
		// The reservation exists but is no longer pending: a redelivery or an
		// admin action got there first.
		s.logg.Info(ctx, "webhook.mpesa.reservation_already_settled")
		return nil
	})
	if err != nil {
		s.metrics.IncUnmatched()
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "webhook.mpesa.unmatched_callback")
		return
	}
	s.logg.Info(ctx, "webhook.mpesa.reservation_paid")
}

func buildLedgerRow(cb mpesa.STKCallback, raw []byte) *models.Payment {
	payment := &models.Payment{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		RawPayload:        json.RawMessage(raw),
	}
	if !cb.Succeeded() {
		return payment
	}
	for _, item := range cb.Items() {
		switch item.Name {
		case "Amount":
			if n, ok := item.NumberValue(); ok {
				if amount, err := decimal.NewFromString(n.String()); err == nil {
					payment.Amount = &amount
				}
			}
		case "MpesaReceiptNumber":
			if v, ok := item.StringValue(); ok {
				payment.MpesaReceiptNumber = &v
			}
		case "PhoneNumber":
			if v, ok := item.StringValue(); ok {
				payment.PhoneNumber = &v
			}
		case "TransactionDate":
			if v, ok := item.StringValue(); ok {
				formatted := FormatTransactionDate(v)
				payment.TransactionDate = &formatted
			}
		}
	}
	return payment
}

// FormatTransactionDate rewrites the gateway's compact YYYYMMDDHHMMSS stamp
// into RFC 3339 UTC by slicing fixed offsets. Anything that is not 14 digits
// passes through unchanged.
func FormatTransactionDate(v string) string {
	if len(v) != 14 {
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%sZ", v[0:4], v[4:6], v[6:8], v[8:10], v[10:12], v[12:14])
}
