package user

import "time"

// User is a verified, permanent account.
type User struct {
	ID             int64     `json:"userId"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Gender         string    `json:"gender"`
	MobileNo       string    `json:"mobileNo"`
	Address        string    `json:"address"`
	PasswordHash   []byte    `json:"-"`
	ProfilePicture []byte    `json:"profilePicture,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Candidate carries the fields submitted on registration or update.
type Candidate struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Gender          string `json:"gender"`
	MobileNo        string `json:"mobileNo"`
	Address         string `json:"address"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
