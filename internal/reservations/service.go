package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/internal/payments"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

const (
	msgReservationSaved   = "reservation received"
	msgPromptSent         = "reservation received, payment prompt sent to your phone"
	msgSaveFailed         = "reservation could not be saved, please try again"
	msgSubmitFailed       = "reservation submission failed"
	msgPartialSaveFailure = "payment was initiated but the reservation could not be saved, please contact the restaurant"
)

// SubmitItemInput is one pre-ordered dish in a submission.
type SubmitItemInput struct {
	Name  string
	Price decimal.Decimal
}

// SubmitInput is a validated reservation submission.
type SubmitInput struct {
	CustomerName    string
	CustomerPhone   string
	PartySize       int
	ReservedFor     time.Time
	SpecialRequests *string
	Items           []SubmitItemInput
	ShouldPay       bool
}

// SubmitResult reports the outcome of one submission. Like the payment
// boundary, failures are values carrying a customer-facing message.
type SubmitResult struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	Reservation *models.Reservation  `json:"reservation,omitempty"`
	Payment     *payments.PushResult `json:"payment,omitempty"`
}

type reservationStore interface {
	CreateWithItems(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, limit, offset int) ([]models.Reservation, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

// Service exposes reservation submission and admin operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) SubmitResult
	List(ctx context.Context, limit, offset int) ([]models.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

type service struct {
	store     reservationStore
	initiator payments.Service
	logg      *logger.Logger
}

// NewService constructs the reservation service.
func NewService(store reservationStore, initiator payments.Service, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if initiator == nil {
		return nil, fmt.Errorf("payment initiator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, initiator: initiator, logg: logg}, nil
}

// Submit reconciles a submission with the payment gateway. When a pre-order
// total is due, the push happens first and nothing is written unless the
// gateway accepted; a failed insert after acceptance is reported with its own
// message since the payer may already see the prompt.
func (s *service) Submit(ctx context.Context, input SubmitInput) (result SubmitResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logg.Error(s.logg.WithField(ctx, "panic", rec), "reservation.submit.panic", fmt.Errorf("panic: %v", rec))
			result = SubmitResult{Success: false, Message: msgSubmitFailed}
		}
	}()

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.Price)
	}

	var push *payments.PushResult
	if input.ShouldPay && total.IsPositive() {
		phone := NormalizePhone(input.CustomerPhone)
		res := s.initiator.InitiatePush(ctx, phone, total)
		if !res.Success {
			return SubmitResult{Success: false, Message: res.Message, Payment: &res}
		}
		push = &res
	}

	reservation := &models.Reservation{
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		PartySize:       input.PartySize,
		ReservedFor:     input.ReservedFor,
		SpecialRequests: input.SpecialRequests,
		PreOrderTotal:   total,
		PaymentStatus:   enums.PaymentStatusNotPaid,
	}
	if push != nil {
		reservation.PaymentStatus = enums.PaymentStatusPending
		checkoutID := push.Data.CheckoutRequestID
		reservation.CheckoutRequestID = &checkoutID
	}
	for i, item := range input.Items {
		reservation.Items = append(reservation.Items, models.ReservationItem{
			Position: i,
			Name:     item.Name,
			Price:    item.Price,
		})
	}

	created, err := s.store.CreateWithItems(ctx, reservation)
	if err != nil {
		if push != nil {
			ctx = s.logg.WithCheckoutRequestID(ctx, push.Data.CheckoutRequestID)
			s.logg.Error(ctx, "reservation.submit.partial_failure", err)
			return SubmitResult{Success: false, Message: msgPartialSaveFailure, Payment: push}
		}
		s.logg.Error(ctx, "reservation.submit.insert_failed", err)
		return SubmitResult{Success: false, Message: msgSaveFailed}
	}

	msg := msgReservationSaved
	if push != nil {
		msg = msgPromptSent
	}
	return SubmitResult{Success: true, Message: msg, Reservation: created, Payment: push}
}

// List returns reservations newest first.
func (s *service) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	rows, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reservations")
	}
	return rows, nil
}

// Get loads one reservation with its items.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load reservation")
	}
	return reservation, nil
}

// Cancel marks a reservation cancelled. Paid reservations stay paid.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reservation.PaymentStatus.CanTransitionTo(enums.PaymentStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel a reservation in state %q", reservation.PaymentStatus))
	}
	if err := s.store.UpdatePaymentStatus(ctx, id, enums.PaymentStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel reservation")
	}
	reservation.PaymentStatus = enums.PaymentStatusCancelled
	return reservation, nil
}
