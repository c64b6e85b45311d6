package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
)

func setupReservationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:reservations_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	reservations := `
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  party_size INTEGER NOT NULL,
  reserved_for DATETIME NOT NULL,
  special_requests TEXT,
  pre_order_total NUMERIC NOT NULL DEFAULT 0,
  payment_status TEXT NOT NULL DEFAULT 'not_paid',
  checkout_request_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS reservation_items (
  id TEXT PRIMARY KEY,
  reservation_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(reservations).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func seedReservation(t *testing.T, repo *Repository, checkoutID string, status enums.PaymentStatus) *models.Reservation {
	t.Helper()
	reservation := &models.Reservation{
		ID:            uuid.New(),
		CustomerName:  "Wanjiku",
		CustomerPhone: "254712345678",
		PartySize:     4,
		ReservedFor:   time.Now().Add(24 * time.Hour),
		PreOrderTotal: decimal.RequireFromString("500.00"),
		PaymentStatus: status,
		Items: []models.ReservationItem{
			{ID: uuid.New(), Position: 0, Name: "Nyama choma", Price: decimal.RequireFromString("350.00")},
			{ID: uuid.New(), Position: 1, Name: "Ugali", Price: decimal.RequireFromString("150.00")},
		},
	}
	if checkoutID != "" {
		reservation.CheckoutRequestID = &checkoutID
	}
	created, err := repo.CreateWithItems(context.Background(), reservation)
	require.NoError(t, err)
	return created
}

func TestCreateWithItemsPersistsOrderedItems(t *testing.T) {
	db := setupReservationsTestDB(t)
	repo := NewRepository(db)

	created := seedReservation(t, repo, "", enums.PaymentStatusNotPaid)

	loaded, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.Equal(t, "Nyama choma", loaded.Items[0].Name)
	require.Equal(t, "Ugali", loaded.Items[1].Name)
	require.Equal(t, created.ID, loaded.Items[0].ReservationID)
}

func TestFindByCheckoutRequestID(t *testing.T) {
	db := setupReservationsTestDB(t)
	repo := NewRepository(db)

	created := seedReservation(t, repo, "ws_CO_1", enums.PaymentStatusPending)

	loaded, err := repo.FindByCheckoutRequestID(context.Background(), "ws_CO_1")
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)

	_, err = repo.FindByCheckoutRequestID(context.Background(), "ws_CO_unknown")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkPaidByCheckoutWinsExactlyOnce(t *testing.T) {
	db := setupReservationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := seedReservation(t, repo, "ws_CO_1", enums.PaymentStatusPending)

	updated, err := repo.MarkPaidByCheckout(ctx, "ws_CO_1")
	require.NoError(t, err)
	require.True(t, updated)

	// Redelivered callback: status guard keeps the row paid and reports no-op.
	updated, err = repo.MarkPaidByCheckout(ctx, "ws_CO_1")
	require.NoError(t, err)
	require.False(t, updated)

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, loaded.PaymentStatus)
}

func TestMarkPaidByCheckoutIgnoresNonPending(t *testing.T) {
	db := setupReservationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := seedReservation(t, repo, "ws_CO_2", enums.PaymentStatusCancelled)

	updated, err := repo.MarkPaidByCheckout(ctx, "ws_CO_2")
	require.NoError(t, err)
	require.False(t, updated)

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCancelled, loaded.PaymentStatus)
}

func TestListNewestFirst(t *testing.T) {
	db := setupReservationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := seedReservation(t, repo, "", enums.PaymentStatusNotPaid)
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer := seedReservation(t, repo, "", enums.PaymentStatusNotPaid)

	rows, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, newer.ID, rows[0].ID)
	require.Equal(t, older.ID, rows[1].ID)
}
