package reservations

import "strings"

// NormalizePhone rewrites a payer phone number into the 254XXXXXXXXX form the
// gateway expects. "+254..." loses the plus, a leading "0" becomes "254", and
// anything else passes through untouched. Applying it twice is a no-op; the
// gateway remains the validator of record.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(p, "+254"):
		return p[1:]
	case strings.HasPrefix(p, "0"):
		return "254" + p[1:]
	default:
		return p
	}
}
