package iuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
)

// IUserRepository is an interface for user repository.
// Lookups return dalerrors.ErrNotFound when nothing matches.
type IUserRepository interface {
	Insert(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByMobile(ctx context.Context, mobileNo string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id int64) error
}
