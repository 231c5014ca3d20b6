package menusvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
)

// MenuService manages restaurants and their menus.
type MenuService struct {
	newUOW uow.Factory
	now    func() time.Time
}

// NewMenuService creates a new MenuService.
func NewMenuService(factory uow.Factory) *MenuService {
	return &MenuService{
		newUOW: factory,
		now:    time.Now,
	}
}

func (s *MenuService) CreateRestaurant(ctx context.Context, r restaurant.Restaurant) (restaurant.Restaurant, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return restaurant.Restaurant{}, errs.E(errs.InvalidArgument, "Restaurant name is required.")
	}
	r.CreatedAt = s.now()

	created, err := s.newUOW().RestaurantRepository().Insert(ctx, r)
	if errors.Is(err, dalerrors.ErrConflict) {
		return restaurant.Restaurant{}, errs.E(errs.InvalidArgument,
			fmt.Sprintf("restaurant %q already exists", r.Name))
	}
	if err != nil {
		return restaurant.Restaurant{}, errs.Wrap(errs.Unexpected, err, "failed to create restaurant")
	}

	return created, nil
}

func (s *MenuService) GetRestaurant(ctx context.Context, id int64) (restaurant.Restaurant, error) {
	r, err := s.newUOW().RestaurantRepository().GetByID(ctx, id)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return restaurant.Restaurant{}, errs.E(errs.NotFound, fmt.Sprintf("restaurant %d not found", id))
	}
	if err != nil {
		return restaurant.Restaurant{}, errs.Wrap(errs.Unexpected, err, "failed to get restaurant")
	}

	return r, nil
}

func (s *MenuService) ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	rs, err := s.newUOW().RestaurantRepository().List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to list restaurants")
	}

	return rs, nil
}

func validateMenu(m menu.Menu) error {
	if strings.TrimSpace(m.ItemName) == "" {
		return errs.E(errs.InvalidArgument, "Item name is required.")
	}
	if !m.Price.IsPositive() {
		return errs.E(errs.InvalidArgument, "Price must be greater than zero.")
	}

	return nil
}

// SaveMenu adds a dish to an existing restaurant.
func (s *MenuService) SaveMenu(ctx context.Context, m menu.Menu) (menu.Menu, error) {
	if err := validateMenu(m); err != nil {
		return menu.Menu{}, err
	}

	if _, err := s.GetRestaurant(ctx, m.RestaurantID); err != nil {
		return menu.Menu{}, err
	}

	now := s.now()
	m.CreatedAt = now
	m.UpdatedAt = now

	created, err := s.newUOW().MenuRepository().Insert(ctx, m)
	if err != nil {
		return menu.Menu{}, errs.Wrap(errs.Unexpected, err, "failed to save menu")
	}

	return created, nil
}

func (s *MenuService) GetMenu(ctx context.Context, id int64) (menu.Menu, error) {
	menus, err := s.queryMenus(ctx, &menu.QueryMenusModel{Ids: []int64{id}})
	if err != nil {
		return menu.Menu{}, err
	}
	if len(menus) == 0 {
		return menu.Menu{}, errs.E(errs.NotFound, fmt.Sprintf("menu %d not found", id))
	}

	return menus[0], nil
}

func (s *MenuService) GetAllMenus(ctx context.Context) ([]menu.Menu, error) {
	return s.queryMenus(ctx, &menu.QueryMenusModel{})
}

// GetMenusByRestaurantName lists the menus of the named restaurant.
func (s *MenuService) GetMenusByRestaurantName(ctx context.Context, name string) ([]menu.Menu, error) {
	r, err := s.newUOW().RestaurantRepository().GetByName(ctx, name)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return nil, errs.E(errs.NotFound, fmt.Sprintf("restaurant %q not found", name))
	}
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to get restaurant")
	}

	return s.queryMenus(ctx, &menu.QueryMenusModel{RestaurantIds: []int64{r.ID}})
}

func (s *MenuService) queryMenus(ctx context.Context, filter *menu.QueryMenusModel) ([]menu.Menu, error) {
	menus, err := s.newUOW().MenuRepository().Query(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to query menus")
	}

	return menus, nil
}

// UpdateMenu replaces the editable fields of a menu. The owning restaurant cannot change.
func (s *MenuService) UpdateMenu(ctx context.Context, id int64, m menu.Menu) (menu.Menu, error) {
	if err := validateMenu(m); err != nil {
		return menu.Menu{}, err
	}

	current, err := s.GetMenu(ctx, id)
	if err != nil {
		return menu.Menu{}, err
	}

	current.ItemName = m.ItemName
	current.Description = m.Description
	current.Price = m.Price
	current.Available = m.Available
	current.UpdatedAt = s.now()

	updated, err := s.newUOW().MenuRepository().Update(ctx, current)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return menu.Menu{}, errs.E(errs.NotFound, fmt.Sprintf("menu %d not found", id))
	}
	if err != nil {
		return menu.Menu{}, errs.Wrap(errs.Unexpected, err, "failed to update menu")
	}

	return updated, nil
}

func (s *MenuService) DeleteMenu(ctx context.Context, id int64) error {
	err := s.newUOW().MenuRepository().Delete(ctx, id)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return errs.E(errs.NotFound, fmt.Sprintf("menu %d not found", id))
	}
	if err != nil {
		return errs.Wrap(errs.Unexpected, err, "failed to delete menu")
	}

	return nil
}
