package usersvc

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
)

const (
	otpMin = 100000
	otpMax = 999999

	// OTPLifetime is how long a registration or reset code stays valid.
	OTPLifetime = 5 * time.Minute
	// MaxOTPAttempts is how many wrong guesses a code survives.
	MaxOTPAttempts = 5
)

// generateOTP returns a uniformly random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// otpCheck is a stored code together with the callbacks that count a failed
// guess and discard the code.
type otpCheck struct {
	want     string
	attempts int
	count    func(ctx context.Context) (int, error)
	discard  func(ctx context.Context) error
}

// verify compares got with the stored code. The code is discarded once
// MaxOTPAttempts wrong guesses were made, even if the last guess is right.
func (c otpCheck) verify(ctx context.Context, got string) error {
	if c.attempts < MaxOTPAttempts {
		if subtle.ConstantTimeCompare([]byte(c.want), []byte(got)) == 1 {
			return nil
		}

		attempts, err := c.count(ctx)
		if err != nil {
			return errs.Wrap(errs.Unexpected, err, "failed to record OTP attempt")
		}
		if attempts < MaxOTPAttempts {
			return errs.E(errs.InvalidArgument, "Invalid OTP")
		}
	}

	if err := c.discard(ctx); err != nil {
		return errs.Wrap(errs.Unexpected, err, "failed to discard OTP")
	}

	return errs.E(errs.InvalidArgument, "Too many invalid attempts. Request a new OTP.")
}
