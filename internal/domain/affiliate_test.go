package domain

import "testing"

func TestValidReferralCode(t *testing.T) {
	valid := []string{"abc", "my_code_24", "a1b2c3", "abcdefghijklmnopqrstuvwx"}
	for _, code := range valid {
		if !ValidReferralCode(code) {
			t.Fatalf("expected %q to be valid", code)
		}
	}

	invalid := []string{"", "ab", "UPPER", "has-dash", "has space", "abcdefghijklmnopqrstuvwxy"}
	for _, code := range invalid {
		if ValidReferralCode(code) {
			t.Fatalf("expected %q to be invalid", code)
		}
	}
}

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0123456789", "******6789"},
		{"6789", "6789"},
		{"89", "89"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskAccountNumber(tt.in); got != tt.want {
			t.Fatalf("MaskAccountNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashVisitorAddressDeterministic(t *testing.T) {
	a := HashVisitorAddress("salt", "203.0.113.7")
	b := HashVisitorAddress("salt", "  203.0.113.7  ")
	if a != b {
		t.Fatal("expected hash to ignore surrounding whitespace")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
	if HashVisitorAddress("other-salt", "203.0.113.7") == a {
		t.Fatal("expected different salts to produce different hashes")
	}
}
