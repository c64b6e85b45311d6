package controllers

import (
	"net/http"

	"github.com/Rayjuxtnx/restaurant-server/api/responses"
	"github.com/Rayjuxtnx/restaurant-server/api/validators"
	authsvc "github.com/Rayjuxtnx/restaurant-server/internal/auth"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

// Login authenticates a dashboard user and returns a bearer token.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
