package models

import (
	"time"

	"github.com/google/uuid"
)

// Brewery staff roles recognized by the import pipeline. Any other role value
// on an imported row means "no associated user".
const (
	RoleBreweryOwner   = "BREWERY_OWNER"
	RoleBreweryManager = "BREWERY_MANAGER"
)

// IsBreweryStaffRole reports whether role links an imported user to a brewery.
func IsBreweryStaffRole(role string) bool {
	return role == RoleBreweryOwner || role == RoleBreweryManager
}

// User is a platform account. Email is the natural key; import upserts match
// on it and never overwrite an existing password.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Firstname   string     `json:"firstname"`
	Lastname    string     `json:"lastname"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	Password    string     `json:"-"`
	Birthdate   *time.Time `json:"birthdate"`
	Photo       *string    `json:"photo"`
	CityID      *uuid.UUID `json:"city_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserSummary is the trimmed shape embedded in brewery listings.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
}
