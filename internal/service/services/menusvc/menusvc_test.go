package menusvc

import (
	"context"
	"testing"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/memory"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/shopspring/decimal"
)

func newService(t *testing.T) (*MenuService, restaurant.Restaurant) {
	t.Helper()

	svc := NewMenuService(memory.NewStore().Factory())
	r, err := svc.CreateRestaurant(context.Background(), restaurant.Restaurant{Name: "  Tandoor House ", Address: "MG Road"})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}

	return svc, r
}

func TestCreateRestaurant(t *testing.T) {
	svc, r := newService(t)

	if r.ID == 0 || r.Name != "Tandoor House" {
		t.Errorf("restaurant = %+v, want trimmed name and an id", r)
	}

	tests := []struct {
		name  string
		input restaurant.Restaurant
		want  errs.Kind
	}{
		{"blank_name", restaurant.Restaurant{Name: "   "}, errs.InvalidArgument},
		{"duplicate_name", restaurant.Restaurant{Name: "Tandoor House"}, errs.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRestaurant(context.Background(), tt.input)
			if got := errs.KindOf(err); err == nil || got != tt.want {
				t.Errorf("error = %v, want kind %s", err, tt.want)
			}
		})
	}

	list, err := svc.ListRestaurants(context.Background())
	if err != nil {
		t.Fatalf("ListRestaurants: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("restaurants = %d, want 1", len(list))
	}
}

func TestSaveMenu(t *testing.T) {
	svc, r := newService(t)

	tests := []struct {
		name    string
		input   menu.Menu
		wantErr bool
		want    errs.Kind
	}{
		{"valid", menu.Menu{RestaurantID: r.ID, ItemName: "Naan", Price: decimal.RequireFromString("35.50")}, false, 0},
		{"missing_name", menu.Menu{RestaurantID: r.ID, Price: decimal.NewFromInt(10)}, true, errs.InvalidArgument},
		{"zero_price", menu.Menu{RestaurantID: r.ID, ItemName: "Water"}, true, errs.InvalidArgument},
		{"negative_price", menu.Menu{RestaurantID: r.ID, ItemName: "Refund", Price: decimal.NewFromInt(-1)}, true, errs.InvalidArgument},
		{"unknown_restaurant", menu.Menu{RestaurantID: 99, ItemName: "Naan", Price: decimal.NewFromInt(10)}, true, errs.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := svc.SaveMenu(context.Background(), tt.input)
			if tt.wantErr {
				if got := errs.KindOf(err); err == nil || got != tt.want {
					t.Errorf("error = %v, want kind %s", err, tt.want)
				}

				return
			}
			if err != nil {
				t.Fatalf("SaveMenu: %v", err)
			}
			if saved.ID == 0 {
				t.Error("menu id not assigned")
			}
		})
	}
}

func TestMenuLifecycle(t *testing.T) {
	svc, r := newService(t)
	ctx := context.Background()

	saved, err := svc.SaveMenu(ctx, menu.Menu{RestaurantID: r.ID, ItemName: "Paneer Tikka", Price: decimal.NewFromInt(220), Available: true})
	if err != nil {
		t.Fatalf("SaveMenu: %v", err)
	}

	updated, err := svc.UpdateMenu(ctx, saved.ID, menu.Menu{RestaurantID: 77, ItemName: "Paneer Tikka", Price: decimal.NewFromInt(240)})
	if err != nil {
		t.Fatalf("UpdateMenu: %v", err)
	}
	if updated.RestaurantID != r.ID {
		t.Errorf("restaurant id = %d, want unchanged %d", updated.RestaurantID, r.ID)
	}
	if !updated.Price.Equal(decimal.NewFromInt(240)) || updated.Available {
		t.Errorf("updated menu = %+v, want price 240 and unavailable", updated)
	}

	byName, err := svc.GetMenusByRestaurantName(ctx, "Tandoor House")
	if err != nil {
		t.Fatalf("GetMenusByRestaurantName: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != saved.ID {
		t.Errorf("menus by name = %+v, want the saved menu", byName)
	}

	if err := svc.DeleteMenu(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteMenu: %v", err)
	}

	notFound := map[string]error{
		"get_deleted":    func() error { _, err := svc.GetMenu(ctx, saved.ID); return err }(),
		"update_deleted": func() error { _, err := svc.UpdateMenu(ctx, saved.ID, updated); return err }(),
		"delete_deleted": svc.DeleteMenu(ctx, saved.ID),
		"unknown_name":   func() error { _, err := svc.GetMenusByRestaurantName(ctx, "Nowhere"); return err }(),
		"unknown_rest":   func() error { _, err := svc.GetRestaurant(ctx, 99); return err }(),
	}
	for name, err := range notFound {
		if got := errs.KindOf(err); err == nil || got != errs.NotFound {
			t.Errorf("%s: error = %v, want NOT_FOUND", name, err)
		}
	}
}
