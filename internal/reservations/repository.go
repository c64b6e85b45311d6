package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
)

// Repository persists reservations and their pre-order items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateWithItems inserts the reservation together with its pre-order items.
func (r *Repository) CreateWithItems(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// FindByID loads a reservation with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByCheckoutRequestID locates the reservation linked to a push request.
func (r *Repository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		First(&reservation, "checkout_request_id = ?", checkoutRequestID).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// List returns reservations newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPaidByCheckout flips a pending reservation to paid. The status guard in
// the WHERE clause makes redelivered callbacks a no-op: the first matching
// update wins and every later one reports updated=false.
func (r *Repository) MarkPaidByCheckout(ctx context.Context, checkoutRequestID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("checkout_request_id = ? AND payment_status = ?", checkoutRequestID, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdatePaymentStatus sets the payment status without transition checks;
// callers validate the transition first.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}
