package irestaurantrepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
)

type IRestaurantRepository interface {
	Insert(ctx context.Context, r restaurant.Restaurant) (restaurant.Restaurant, error)
	GetByID(ctx context.Context, id int64) (restaurant.Restaurant, error)
	GetByName(ctx context.Context, name string) (restaurant.Restaurant, error)
	List(ctx context.Context) ([]restaurant.Restaurant, error)
}
