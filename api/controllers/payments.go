package controllers

import (
	"context"
	"net/http"

	"github.com/Rayjuxtnx/restaurant-server/api/responses"
	"github.com/Rayjuxtnx/restaurant-server/api/validators"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

type ledgerReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.Payment, error)
	ListByCheckoutRequestID(ctx context.Context, checkoutRequestID string) ([]models.Payment, error)
}

// AdminListPayments exposes the payment ledger. A checkout_request_id query
// narrows the view to one push attempt's callbacks.
func AdminListPayments(ledger ledgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment ledger unavailable"))
			return
		}

		if checkoutID := validators.SanitizeString(r.URL.Query().Get("checkout_request_id"), 100); checkoutID != "" {
			rows, err := ledger.ListByCheckoutRequestID(r.Context(), checkoutID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payments"))
				return
			}
			responses.WriteSuccess(w, rows)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := ledger.ListRecent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payments"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
