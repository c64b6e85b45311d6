package enums

import "fmt"

// PaymentStatus tracks the payment lifecycle of a reservation.
//
// not_paid and pending are the only entry states. A reservation moves to paid
// exclusively when the gateway callback matches its checkout request id, and to
// cancelled only through an explicit admin action. Nothing transitions out of
// paid.
type PaymentStatus string

const (
	PaymentStatusNotPaid   PaymentStatus = "not_paid"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusNotPaid,
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusCancelled,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from p to next is allowed.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch p {
	case PaymentStatusNotPaid:
		return next == PaymentStatusCancelled
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusCancelled
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
