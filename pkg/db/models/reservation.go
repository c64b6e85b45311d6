package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
)

// Reservation is a table booking, optionally carrying a pre-order that was
// pushed to the payer's handset at submission time. checkout_request_id is the
// only link between this row and the gateway's asynchronous callback.
type Reservation struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName      string              `gorm:"column:customer_name;not null"`
	CustomerPhone     string              `gorm:"column:customer_phone;not null"`
	PartySize         int                 `gorm:"column:party_size;not null"`
	ReservedFor       time.Time           `gorm:"column:reserved_for;not null"`
	SpecialRequests   *string             `gorm:"column:special_requests"`
	PreOrderTotal     decimal.Decimal     `gorm:"column:pre_order_total;type:numeric(12,2);not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'not_paid'"`
	CheckoutRequestID *string             `gorm:"column:checkout_request_id;uniqueIndex"`
	Items             []ReservationItem   `gorm:"foreignKey:ReservationID"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ReservationItem is one pre-ordered dish. Items carry no quantity; the same
// dish ordered twice appears twice, preserving submission order via position.
type ReservationItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReservationID uuid.UUID       `gorm:"column:reservation_id;type:uuid;not null"`
	Position      int             `gorm:"column:position;not null"`
	Name          string          `gorm:"column:name;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
