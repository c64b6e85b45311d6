package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

type stubCallbackService struct {
	calls    int
	lastID   string
	lastRaw  []byte
	lastCode int
}

func (s *stubCallbackService) HandleCallback(_ context.Context, envelope *mpesa.CallbackEnvelope, raw []byte) {
	s.calls++
	s.lastID = envelope.Body.STKCallback.CheckoutRequestID
	s.lastCode = envelope.Body.STKCallback.ResultCode
	s.lastRaw = raw
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

const ackBody = `{"ResultCode":0,"ResultDesc":"Accepted"}`

func postCallback(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mpesa", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestMpesaCallbackAcknowledgesValidPayload(t *testing.T) {
	svc := &stubCallbackService{}
	handler := MpesaCallback(svc, testLogger())

	rec := postCallback(t, handler, `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "m-1",
				"CheckoutRequestID": "ws_CO_1",
				"ResultCode": 0,
				"ResultDesc": "ok"
			}
		}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != ackBody {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}
	if svc.calls != 1 || svc.lastID != "ws_CO_1" || svc.lastCode != 0 {
		t.Fatalf("service not invoked with parsed callback: %+v", svc)
	}
}

func TestMpesaCallbackAcknowledgesMalformedPayload(t *testing.T) {
	svc := &stubCallbackService{}
	handler := MpesaCallback(svc, testLogger())

	rec := postCallback(t, handler, `{not json`)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed payload must still ack with 200, got %d", rec.Code)
	}
	if rec.Body.String() != ackBody {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}
	if svc.calls != 0 {
		t.Fatalf("malformed payload must not reach the service")
	}
}

func TestMpesaCallbackAcknowledgesWithoutService(t *testing.T) {
	handler := MpesaCallback(nil, testLogger())

	rec := postCallback(t, handler, `{"Body":{"stkCallback":{"ResultCode":0}}}`)

	if rec.Code != http.StatusOK || rec.Body.String() != ackBody {
		t.Fatalf("nil service must still ack: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMpesaCallbackPreservesRawPayload(t *testing.T) {
	svc := &stubCallbackService{}
	handler := MpesaCallback(svc, testLogger())

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_9","ResultCode":1032,"ResultDesc":"cancelled"}}}`
	postCallback(t, handler, body)

	if string(svc.lastRaw) != body {
		t.Fatalf("raw payload must be handed to the service unmodified")
	}
	if svc.lastCode != 1032 {
		t.Fatalf("result code not parsed: %d", svc.lastCode)
	}
}
