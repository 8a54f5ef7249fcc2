package models

import (
	"time"

	"github.com/google/uuid"
)

// Brewery is a directory entry. Two breweries with the same name in the same
// city are considered the same entity; imports skip the second occurrence.
type Brewery struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Website     string     `json:"website"`
	Merchandise bool       `json:"merchandise"`
	SocialMedia bool       `json:"social_media"`
	OwnerID     *uuid.UUID `json:"owner_id"`
	ManagerID   *uuid.UUID `json:"manager_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Location is a brewery's single physical address with its resolved
// geographic parents. City, state and county must all be resolved before the
// brewery row is created.
type Location struct {
	ID        uuid.UUID `json:"id"`
	BreweryID uuid.UUID `json:"brewery_id"`
	Address   string    `json:"address"`
	CityID    uuid.UUID `json:"city_id"`
	StateID   uuid.UUID `json:"state_id"`
	CountyID  uuid.UUID `json:"county_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Zip       string    `json:"zip"`

	// Populated on reads that join the city.
	CityName string `json:"city,omitempty"`
}

// Features holds a brewery's social links.
type Features struct {
	ID        uuid.UUID `json:"id"`
	BreweryID uuid.UUID `json:"brewery_id"`
	Facebook  string    `json:"facebook"`
	X         string    `json:"x"`
	Instagram string    `json:"instagram"`
}

// OperatingHours is the 7-day open/close schedule. Values are kept as the
// free-text times the import file carries.
type OperatingHours struct {
	ID             uuid.UUID `json:"id"`
	BreweryID      uuid.UUID `json:"brewery_id"`
	MondayOpen     string    `json:"mondayOpen"`
	MondayClose    string    `json:"mondayClose"`
	TuesdayOpen    string    `json:"tuesdayOpen"`
	TuesdayClose   string    `json:"tuesdayClose"`
	WednesdayOpen  string    `json:"wednesdayOpen"`
	WednesdayClose string    `json:"wednesdayClose"`
	ThursdayOpen   string    `json:"thursdayOpen"`
	ThursdayClose  string    `json:"thursdayClose"`
	FridayOpen     string    `json:"fridayOpen"`
	FridayClose    string    `json:"fridayClose"`
	SaturdayOpen   string    `json:"saturdayOpen"`
	SaturdayClose  string    `json:"saturdayClose"`
	SundayOpen     string    `json:"sundayOpen"`
	SundayClose    string    `json:"sundayClose"`
}

// BreweryDetail is a brewery with all of its one-to-one records attached,
// as returned by the detail and list endpoints.
type BreweryDetail struct {
	Brewery
	Location *Location       `json:"location,omitempty"`
	Features *Features       `json:"features,omitempty"`
	Hours    *OperatingHours `json:"operating_hours,omitempty"`
	Owner    *UserSummary    `json:"owner,omitempty"`
	Manager  *UserSummary    `json:"manager,omitempty"`
}
