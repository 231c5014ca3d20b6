package iresetotprepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/resetotp"
)

// IResetOTPRepository is an interface for password reset codes, one per user.
type IResetOTPRepository interface {
	Upsert(ctx context.Context, r resetotp.ForgotPasswordOtp) (resetotp.ForgotPasswordOtp, error)
	GetByUserID(ctx context.Context, userID int64) (resetotp.ForgotPasswordOtp, error)
	MarkVerified(ctx context.Context, id int64, at time.Time) error
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}
