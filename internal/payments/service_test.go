package payments

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

type stubGateway struct {
	configured bool
	resp       *mpesa.STKPushResponse
	err        error
	panicMsg   string
	calls      int
}

func (s *stubGateway) Configured() bool {
	return s.configured
}

func (s *stubGateway) STKPush(_ context.Context, _ mpesa.PushParams) (*mpesa.STKPushResponse, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.resp, s.err
}

func newTestService(t *testing.T, gw *stubGateway) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(gw, logg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestInitiatePushSuccessCarriesGatewayIDs(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		resp: &mpesa.STKPushResponse{
			MerchantRequestID: "mr_1",
			CheckoutRequestID: "ws_CO_1",
			CustomerMessage:   "Success. Request accepted for processing",
		},
	}
	svc := newTestService(t, gw)

	result := svc.InitiatePush(context.Background(), "254712345678", decimal.NewFromInt(500))
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Data == nil || result.Data.CheckoutRequestID != "ws_CO_1" || result.Data.MerchantRequestID != "mr_1" {
		t.Fatalf("missing gateway identifiers: %+v", result.Data)
	}
}

func TestInitiatePushUnconfiguredGatewaySkipsCall(t *testing.T) {
	gw := &stubGateway{configured: false}
	svc := newTestService(t, gw)

	result := svc.InitiatePush(context.Background(), "254712345678", decimal.NewFromInt(500))
	if result.Success {
		t.Fatal("expected failure for unconfigured gateway")
	}
	if result.Message != "payment gateway not configured" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway should not be called, got %d calls", gw.calls)
	}
}

func TestInitiatePushSurfacesGatewayRejection(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		err:        pkgerrors.New(pkgerrors.CodeDependency, "mpesa rejected stk push: code=400.002.02 message=Bad Request - Invalid PhoneNumber"),
	}
	svc := newTestService(t, gw)

	result := svc.InitiatePush(context.Background(), "bogus", decimal.NewFromInt(500))
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "mpesa rejected stk push: code=400.002.02 message=Bad Request - Invalid PhoneNumber" {
		t.Fatalf("expected verbatim gateway message, got %q", result.Message)
	}
}

func TestInitiatePushRecoversFromPanic(t *testing.T) {
	gw := &stubGateway{configured: true, panicMsg: "boom"}
	svc := newTestService(t, gw)

	result := svc.InitiatePush(context.Background(), "254712345678", decimal.NewFromInt(500))
	if result.Success {
		t.Fatal("expected failure after panic")
	}
	if result.Message != "payment initiation failed" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}
