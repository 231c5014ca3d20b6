package resetotp

import (
	"testing"
	"time"
)

func TestExpired(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := ForgotPasswordOtp{CreatedAt: created}

	if f.Expired(created.Add(Lifetime)) {
		t.Error("OTP expired exactly at the end of its lifetime")
	}
	if !f.Expired(created.Add(Lifetime + time.Nanosecond)) {
		t.Error("OTP still valid after its lifetime")
	}
}
