package mpesawebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

type stubLedger struct {
	mu        sync.Mutex
	rows      []*models.Payment
	insertErr error
}

func (s *stubLedger) Create(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.rows = append(s.rows, payment)
	return payment, nil
}

type stubReservations struct {
	mu          sync.Mutex
	known       map[string]bool // checkout id -> still pending
	findCalls   int
	markCalls   int
	marked      []string
	markErrOnce error
}

func (s *stubReservations) FindByCheckoutRequestID(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if _, ok := s.known[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Reservation{CheckoutRequestID: &id}, nil
}

func (s *stubReservations) MarkPaidByCheckout(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErrOnce != nil {
		err := s.markErrOnce
		s.markErrOnce = nil
		return false, err
	}
	pending, ok := s.known[id]
	if !ok || !pending {
		return false, nil
	}
	s.known[id] = false
	s.marked = append(s.marked, id)
	return true, nil
}

type stubDedup struct {
	mu     sync.Mutex
	seen   map[string]bool
	setErr error
	keys   []string
}

func (s *stubDedup) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	s.keys = append(s.keys, key)
	return true, nil
}

func (s *stubDedup) IdempotencyKey(scope, id string) string {
	return "resto:idempotency:" + scope + ":" + id
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func testConfig() config.WebhookConfig {
	return config.WebhookConfig{
		DedupTTL:           time.Hour,
		LookupRetries:      2,
		LookupRetryBackoff: time.Millisecond,
	}
}

func newTestService(t *testing.T, ledger *stubLedger, reservations *stubReservations, dedup dedupStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Ledger:       ledger,
		Reservations: reservations,
		Dedup:        dedup,
		Logger:       testLogger(),
		Config:       testConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func successEnvelope(checkoutID string) (*mpesa.CallbackEnvelope, []byte) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "` + checkoutID + `",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 500.00},
						{"Name": "MpesaReceiptNumber", "Value": "QGH7SK61SU"},
						{"Name": "TransactionDate", "Value": 20231027153045},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)
	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		panic(err)
	}
	return &envelope, raw
}

func failureEnvelope(checkoutID string) (*mpesa.CallbackEnvelope, []byte) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "` + checkoutID + `",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)
	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		panic(err)
	}
	return &envelope, raw
}

func TestHandleCallbackSuccessMarksReservationPaid(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_1": true}}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := successEnvelope("ws_CO_1")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(reservations.marked) != 1 || reservations.marked[0] != "ws_CO_1" {
		t.Fatalf("expected ws_CO_1 marked paid, got %v", reservations.marked)
	}
	if len(ledger.rows) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.rows))
	}
	row := ledger.rows[0]
	if row.Amount == nil || !row.Amount.Equal(decimalFromString(t, "500")) {
		t.Fatalf("unexpected amount: %v", row.Amount)
	}
	if row.MpesaReceiptNumber == nil || *row.MpesaReceiptNumber != "QGH7SK61SU" {
		t.Fatalf("unexpected receipt: %v", row.MpesaReceiptNumber)
	}
	if row.PhoneNumber == nil || *row.PhoneNumber != "254712345678" {
		t.Fatalf("unexpected phone: %v", row.PhoneNumber)
	}
	if row.TransactionDate == nil || *row.TransactionDate != "2023-10-27T15:30:45Z" {
		t.Fatalf("unexpected transaction date: %v", row.TransactionDate)
	}
	if string(row.RawPayload) != string(raw) {
		t.Fatalf("raw payload not preserved")
	}
}

func TestHandleCallbackFailureRecordsLedgerOnly(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_2": true}}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := failureEnvelope("ws_CO_2")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(reservations.marked) != 0 {
		t.Fatalf("failed callback must not mark reservations paid, got %v", reservations.marked)
	}
	if reservations.markCalls != 0 {
		t.Fatalf("failed callback must not touch reservations, got %d calls", reservations.markCalls)
	}
	if len(ledger.rows) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.rows))
	}
	row := ledger.rows[0]
	if row.ResultCode != 1032 || row.ResultDesc != "Request cancelled by user" {
		t.Fatalf("unexpected ledger row: %+v", row)
	}
	if row.Amount != nil || row.MpesaReceiptNumber != nil {
		t.Fatalf("failure rows carry no settlement metadata")
	}
}

func TestHandleCallbackToleratesMissingMetadataItems(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_3": true}}
	svc := newTestService(t, ledger, reservations, nil)

	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "m-1",
				"CheckoutRequestID": "ws_CO_3",
				"ResultCode": 0,
				"ResultDesc": "ok",
				"CallbackMetadata": {
					"Item": [{"Name": "Amount", "Value": 120}]
				}
			}
		}
	}`)
	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	svc.HandleCallback(context.Background(), &envelope, raw)

	if len(ledger.rows) != 1 {
		t.Fatalf("expected ledger row despite sparse metadata")
	}
	row := ledger.rows[0]
	if row.Amount == nil {
		t.Fatalf("amount should be extracted")
	}
	if row.MpesaReceiptNumber != nil || row.PhoneNumber != nil || row.TransactionDate != nil {
		t.Fatalf("missing items must stay nil: %+v", row)
	}
	if len(reservations.marked) != 1 {
		t.Fatalf("sparse metadata must not block the paid transition")
	}
}

func TestHandleCallbackDuplicateDropped(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_4": true}}
	dedup := &stubDedup{}
	svc := newTestService(t, ledger, reservations, dedup)

	envelope, raw := successEnvelope("ws_CO_4")
	svc.HandleCallback(context.Background(), envelope, raw)
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(ledger.rows) != 1 {
		t.Fatalf("redelivery must not append a second ledger row, got %d", len(ledger.rows))
	}
	if len(reservations.marked) != 1 {
		t.Fatalf("redelivery must not re-mark, got %v", reservations.marked)
	}
	if len(dedup.keys) != 1 || dedup.keys[0] != "resto:idempotency:mpesa:ws_CO_4:0" {
		t.Fatalf("unexpected dedup key set: %v", dedup.keys)
	}
}

func TestHandleCallbackDedupOutageDoesNotDropPayment(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_5": true}}
	dedup := &stubDedup{setErr: errors.New("redis down")}
	svc := newTestService(t, ledger, reservations, dedup)

	envelope, raw := successEnvelope("ws_CO_5")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(ledger.rows) != 1 || len(reservations.marked) != 1 {
		t.Fatalf("callback must be processed when dedup store is unavailable")
	}
}

func TestHandleCallbackUnmatchedCheckoutIsNotFatal(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{}}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := successEnvelope("ws_CO_unknown")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(ledger.rows) != 1 {
		t.Fatalf("unmatched callbacks still get a ledger row")
	}
	// retries: initial attempt + LookupRetries more
	if reservations.markCalls != 3 {
		t.Fatalf("expected 3 lookup attempts, got %d", reservations.markCalls)
	}
	if len(reservations.marked) != 0 {
		t.Fatalf("nothing should be marked paid")
	}
}

func TestHandleCallbackRetriesTransientLookupError(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{
		known:       map[string]bool{"ws_CO_6": true},
		markErrOnce: errors.New("deadlock detected"),
	}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := successEnvelope("ws_CO_6")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(reservations.marked) != 1 {
		t.Fatalf("transient error should be retried through to success")
	}
	if reservations.markCalls != 2 {
		t.Fatalf("expected 2 mark attempts, got %d", reservations.markCalls)
	}
}

func TestHandleCallbackAlreadySettledIsNoOp(t *testing.T) {
	ledger := &stubLedger{}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_7": false}}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := successEnvelope("ws_CO_7")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(reservations.marked) != 0 {
		t.Fatalf("settled reservation must not be re-marked")
	}
	if reservations.markCalls != 1 || reservations.findCalls != 1 {
		t.Fatalf("settled reservation should stop after one round, mark=%d find=%d",
			reservations.markCalls, reservations.findCalls)
	}
}

func TestHandleCallbackLedgerFailureStillMarksPaid(t *testing.T) {
	ledger := &stubLedger{insertErr: errors.New("connection refused")}
	reservations := &stubReservations{known: map[string]bool{"ws_CO_8": true}}
	svc := newTestService(t, ledger, reservations, nil)

	envelope, raw := successEnvelope("ws_CO_8")
	svc.HandleCallback(context.Background(), envelope, raw)

	if len(reservations.marked) != 1 {
		t.Fatalf("ledger outage must not block the paid transition")
	}
}

func TestFormatTransactionDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"20231027153045", "2023-10-27T15:30:45Z"},
		{"20250101000000", "2025-01-01T00:00:00Z"},
		{"2023102715304", "2023102715304"},
		{"not-a-date-1234", "not-a-date-1234"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatTransactionDate(tc.in); got != tc.want {
			t.Fatalf("FormatTransactionDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func decimalFromString(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("decimal %q: %v", v, err)
	}
	return d
}
