package restaurant

import "time"

type Restaurant struct {
	ID        int64     `json:"restaurantId"`
	Name      string    `json:"restaurantName"`
	Address   string    `json:"address"`
	Contact   string    `json:"contactNo"`
	CreatedAt time.Time `json:"createdAt"`
}
