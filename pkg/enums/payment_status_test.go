package enums

import "testing"

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		allowed  bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusNotPaid, PaymentStatusCancelled, true},
		{PaymentStatusNotPaid, PaymentStatusPaid, false},
		{PaymentStatusPaid, PaymentStatusCancelled, false},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusCancelled, PaymentStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	if _, err := ParsePaymentStatus("paid"); err != nil {
		t.Fatalf("paid should parse: %v", err)
	}
	if _, err := ParsePaymentStatus("settled"); err == nil {
		t.Fatal("unknown status should not parse")
	}
}
