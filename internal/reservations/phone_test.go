package reservations

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+254712345678", "254712345678"},
		{"0712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"0110000000", "254110000000"},
		{" +254712345678 ", "254712345678"},
		{"1712345678", "1712345678"},
		{"", ""},
		{"0", "254"},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhoneIsIdempotent(t *testing.T) {
	inputs := []string{"+254712345678", "0712345678", "254712345678", "1712345678"}
	for _, in := range inputs {
		once := NormalizePhone(in)
		if twice := NormalizePhone(once); twice != once {
			t.Errorf("NormalizePhone not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
