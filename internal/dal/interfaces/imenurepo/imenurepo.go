package imenurepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
)

type IMenuRepository interface {
	Insert(ctx context.Context, m menu.Menu) (menu.Menu, error)
	Query(ctx context.Context, filter *menu.QueryMenusModel) ([]menu.Menu, error)
	Update(ctx context.Context, m menu.Menu) (menu.Menu, error)
	Delete(ctx context.Context, id int64) error
}
