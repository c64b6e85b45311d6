package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger row recorded for every gateway callback,
// success or failure. The raw payload is stored verbatim for audit. Rows are
// never updated after insert.
type Payment struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantRequestID  string           `gorm:"column:merchant_request_id;not null"`
	CheckoutRequestID  string           `gorm:"column:checkout_request_id;not null;index"`
	ResultCode         int              `gorm:"column:result_code;not null"`
	ResultDesc         string           `gorm:"column:result_desc;not null"`
	Amount             *decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	MpesaReceiptNumber *string          `gorm:"column:mpesa_receipt_number"`
	PhoneNumber        *string          `gorm:"column:phone_number"`
	TransactionDate    *string          `gorm:"column:transaction_date"`
	RawPayload         json.RawMessage  `gorm:"column:raw_payload;type:jsonb"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
}
