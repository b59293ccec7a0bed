package usecase

import (
	"strings"
	"testing"
)

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef12", false},
		{"too short", "Ab1defg", true},
		{"no uppercase", "abcdefg1", true},
		{"no lowercase", "ABCDEFG1", true},
		{"no digit", "Abcdefgh", true},
		{"empty", "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidatePasswordStrength(c.password)
			if c.wantErr && err == nil {
				t.Errorf("ValidatePasswordStrength(%q) = nil, want error", c.password)
			}
			if !c.wantErr && err != nil {
				t.Errorf("ValidatePasswordStrength(%q) = %v, want nil", c.password, err)
			}
		})
	}
}

// TestGenerateOTPFormat asserts the OTP is always a 6-digit zero-padded
// string, since downstream comparisons are plain string equality.
func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		if err != nil {
			t.Fatalf("generateOTP returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("generateOTP() = %q, want length 6", code)
		}
		if strings.TrimFunc(code, func(r rune) bool { return r >= '0' && r <= '9' }) != "" {
			t.Fatalf("generateOTP() = %q, want all digits", code)
		}
	}
}
