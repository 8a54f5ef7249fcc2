package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is a top-level geographic region. StateID is the external natural
// key (the two-letter postal code) used for matching during imports; it is
// never changed after creation.
type State struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StateID   string    `json:"state_id"`
	CreatedAt time.Time `json:"created_at"`
}

// County belongs to exactly one State. The FIPS code is only unique within
// a state, so (CountyFIPS, StateID) is the composite natural key.
type County struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CountyFIPS string    `json:"county_fips"`
	StateID    uuid.UUID `json:"state_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// City belongs to one County and, transitively, one State.
type City struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CityASCII  string    `json:"city_ascii"`
	StateID    uuid.UUID `json:"state_id"`
	CountyID   uuid.UUID `json:"county_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Zip        string    `json:"zip"`
	Timezone   string    `json:"timezone"`
	Ranking    int       `json:"ranking"`
	Population int       `json:"population"`
	// UniqueIdentifier materializes (city_ascii, stateId, countyId) as a
	// single column so the schema can enforce no-duplicate-city directly.
	UniqueIdentifier string    `json:"unique_city_identifier"`
	CreatedAt        time.Time `json:"created_at"`

	// Populated on reads that join through county to state.
	CountyName string `json:"county,omitempty"`
	StateName  string `json:"state,omitempty"`
}

// CityIdentifier builds the synthetic unique identifier for a city under
// the given parent keys.
func CityIdentifier(cityASCII string, stateID, countyID uuid.UUID) string {
	return fmt.Sprintf("%s_%s_%s", cityASCII, stateID, countyID)
}
