package itempuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/tempuser"
)

// ITempUserRepository is an interface for pending registrations.
type ITempUserRepository interface {
	// Upsert stores the registration, replacing any pending one with the same email.
	Upsert(ctx context.Context, t tempuser.TemporaryUser) (tempuser.TemporaryUser, error)
	GetByEmail(ctx context.Context, email string) (tempuser.TemporaryUser, error)
	// IncrementAttempts counts a failed OTP check and returns the new count.
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}
