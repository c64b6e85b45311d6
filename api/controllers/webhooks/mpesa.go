package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
)

// maxCallbackBodyBytes bounds gateway callback payloads.
const maxCallbackBodyBytes = 1 << 20

type MpesaCallbackService interface {
	HandleCallback(ctx context.Context, envelope *mpesa.CallbackEnvelope, raw []byte)
}

// MpesaCallback receives STK push result callbacks. The gateway retries on
// anything but a 200, so every path acknowledges; processing failures are
// logged server side.
func MpesaCallback(svc MpesaCallbackService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBodyBytes))
		if err != nil {
			logg.Error(ctx, "webhook.mpesa.read_body_failed", err)
			writeAck(w)
			return
		}

		var envelope mpesa.CallbackEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logg.Error(logg.WithField(ctx, "body_bytes", len(raw)), "webhook.mpesa.malformed_payload", err)
			writeAck(w)
			return
		}

		if svc != nil {
			svc.HandleCallback(ctx, &envelope, raw)
		}
		writeAck(w)
	}
}

func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ResultCode":0,"ResultDesc":"Accepted"}`))
}
