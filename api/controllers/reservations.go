package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rayjuxtnx/restaurant-server/api/responses"
	"github.com/Rayjuxtnx/restaurant-server/api/validators"
	reservationsvc "github.com/Rayjuxtnx/restaurant-server/internal/reservations"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

const maxSpecialRequestsLen = 1000

type submitReservationRequest struct {
	CustomerName    string                   `json:"customer_name" validate:"required"`
	CustomerPhone   string                   `json:"customer_phone" validate:"required"`
	PartySize       int                      `json:"party_size" validate:"required,min=1,max=100"`
	ReservedFor     time.Time                `json:"reserved_for" validate:"required"`
	SpecialRequests *string                  `json:"special_requests,omitempty"`
	Items           []reservationItemRequest `json:"items" validate:"dive"`
	ShouldPay       bool                     `json:"should_pay"`
}

type reservationItemRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

func (req submitReservationRequest) toInput() reservationsvc.SubmitInput {
	items := make([]reservationsvc.SubmitItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, reservationsvc.SubmitItemInput{
			Name:  validators.SanitizeString(item.Name, 200),
			Price: item.Price,
		})
	}
	special := req.SpecialRequests
	if special != nil {
		cleaned := validators.SanitizeString(*special, maxSpecialRequestsLen)
		special = &cleaned
	}
	return reservationsvc.SubmitInput{
		CustomerName:    validators.SanitizeString(req.CustomerName, 200),
		CustomerPhone:   validators.SanitizeString(req.CustomerPhone, 20),
		PartySize:       req.PartySize,
		ReservedFor:     req.ReservedFor,
		SpecialRequests: special,
		Items:           items,
		ShouldPay:       req.ShouldPay,
	}
}

// SubmitReservation accepts a public reservation. Failures inside the
// submission flow come back as a 200 with Success=false so the caller always
// gets a customer-facing message.
func SubmitReservation(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload submitReservationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.Submit(r.Context(), payload.toInput())
		if result.Success {
			responses.WriteSuccessStatus(w, http.StatusCreated, result)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminListReservations lists recent reservations for the dashboard.
func AdminListReservations(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdminGetReservation(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservation, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// AdminCancelReservation moves a reservation to cancelled. Paid reservations
// refuse the transition.
func AdminCancelReservation(svc reservationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservation, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
