package message

import "time"

// Message is a notification addressed to a user.
type Message struct {
	ID        int64     `json:"messageId"`
	UserID    int64     `json:"userId"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
