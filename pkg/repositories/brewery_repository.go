package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brewtrail/brewtrail-engine/pkg/apperrors"
	"github.com/brewtrail/brewtrail-engine/pkg/database"
	"github.com/brewtrail/brewtrail-engine/pkg/models"
)

// BreweryRepository defines data access for breweries and their one-to-one
// records (location, features, operating hours).
type BreweryRepository interface {
	// ExistsInCity reports whether a brewery with this name already has a
	// location in the given city. This is the import de-duplication check.
	ExistsInCity(ctx context.Context, name string, cityID uuid.UUID) (bool, error)
	// Create persists the brewery and its location, features and hours as
	// one transaction. Returns apperrors.ErrDuplicate when a unique
	// constraint rejects the insert.
	Create(ctx context.Context, brewery *models.Brewery, location *models.Location,
		features *models.Features, hours *models.OperatingHours) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BreweryDetail, error)
	List(ctx context.Context, page, pageSize int) ([]*models.BreweryDetail, int, error)
	ListLocationsByState(ctx context.Context, stateID uuid.UUID) ([]*models.Location, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Brewery, error)
}

type breweryRepository struct {
	db *database.DB
}

// NewBreweryRepository creates a new brewery repository.
func NewBreweryRepository(db *database.DB) BreweryRepository {
	return &breweryRepository{db: db}
}

func (r *breweryRepository) ExistsInCity(ctx context.Context, name string, cityID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM breweries b
			JOIN brewery_locations l ON l.brewery_id = b.id
			WHERE b.name = $1 AND l.city_id = $2
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name, cityID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check brewery existence: %w", err)
	}

	return exists, nil
}

func (r *breweryRepository) Create(ctx context.Context, brewery *models.Brewery,
	location *models.Location, features *models.Features, hours *models.OperatingHours) error {

	if brewery.ID == uuid.Nil {
		brewery.ID = uuid.New()
	}
	brewery.CreatedAt = time.Now()
	location.ID = uuid.New()
	location.BreweryID = brewery.ID
	features.ID = uuid.New()
	features.BreweryID = brewery.ID
	hours.ID = uuid.New()
	hours.BreweryID = brewery.ID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO breweries (id, name, type, website, merchandise,
			social_media, owner_id, manager_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		brewery.ID, brewery.Name, brewery.Type, brewery.Website,
		brewery.Merchandise, brewery.SocialMedia, brewery.OwnerID,
		brewery.ManagerID, brewery.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create brewery: %w", database.MapInsertError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO brewery_locations (id, brewery_id, address, city_id,
			state_id, county_id, latitude, longitude, zip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		location.ID, location.BreweryID, location.Address, location.CityID,
		location.StateID, location.CountyID, location.Latitude,
		location.Longitude, location.Zip)
	if err != nil {
		return fmt.Errorf("failed to create brewery location: %w", database.MapInsertError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO brewery_features (id, brewery_id, facebook, x, instagram)
		VALUES ($1, $2, $3, $4, $5)`,
		features.ID, features.BreweryID, features.Facebook, features.X,
		features.Instagram)
	if err != nil {
		return fmt.Errorf("failed to create brewery features: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO operating_hours (id, brewery_id,
			monday_open, monday_close, tuesday_open, tuesday_close,
			wednesday_open, wednesday_close, thursday_open, thursday_close,
			friday_open, friday_close, saturday_open, saturday_close,
			sunday_open, sunday_close)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		hours.ID, hours.BreweryID,
		hours.MondayOpen, hours.MondayClose, hours.TuesdayOpen, hours.TuesdayClose,
		hours.WednesdayOpen, hours.WednesdayClose, hours.ThursdayOpen, hours.ThursdayClose,
		hours.FridayOpen, hours.FridayClose, hours.SaturdayOpen, hours.SaturdayClose,
		hours.SundayOpen, hours.SundayClose)
	if err != nil {
		return fmt.Errorf("failed to create operating hours: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit brewery creation: %w", err)
	}

	return nil
}

const breweryDetailQuery = `
	SELECT b.id, b.name, b.type, b.website, b.merchandise, b.social_media,
		b.owner_id, b.manager_id, b.created_at,
		l.id, l.address, l.city_id, l.state_id, l.county_id, l.latitude,
		l.longitude, l.zip, c.name,
		f.id, f.facebook, f.x, f.instagram,
		h.id, h.monday_open, h.monday_close, h.tuesday_open, h.tuesday_close,
		h.wednesday_open, h.wednesday_close, h.thursday_open, h.thursday_close,
		h.friday_open, h.friday_close, h.saturday_open, h.saturday_close,
		h.sunday_open, h.sunday_close,
		o.firstname, o.lastname, m.firstname, m.lastname
	FROM breweries b
	LEFT JOIN brewery_locations l ON l.brewery_id = b.id
	LEFT JOIN cities c ON c.id = l.city_id
	LEFT JOIN brewery_features f ON f.brewery_id = b.id
	LEFT JOIN operating_hours h ON h.brewery_id = b.id
	LEFT JOIN users o ON o.id = b.owner_id
	LEFT JOIN users m ON m.id = b.manager_id`

func scanBreweryDetail(row pgx.Row) (*models.BreweryDetail, error) {
	var d models.BreweryDetail
	var (
		locID                                    *uuid.UUID
		locAddress, locZip, cityName             *string
		locCityID, locStateID, locCountyID       *uuid.UUID
		locLat, locLng                           *float64
		featID                                   *uuid.UUID
		featFacebook, featX, featInstagram       *string
		hoursID                                  *uuid.UUID
		monO, monC, tueO, tueC, wedO, wedC       *string
		thuO, thuC, friO, friC, satO, satC       *string
		sunO, sunC                               *string
		ownerFirst, ownerLast, mgrFirst, mgrLast *string
	)

	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Website, &d.Merchandise,
		&d.SocialMedia, &d.OwnerID, &d.ManagerID, &d.CreatedAt,
		&locID, &locAddress, &locCityID, &locStateID, &locCountyID,
		&locLat, &locLng, &locZip, &cityName,
		&featID, &featFacebook, &featX, &featInstagram,
		&hoursID, &monO, &monC, &tueO, &tueC, &wedO, &wedC, &thuO, &thuC,
		&friO, &friC, &satO, &satC, &sunO, &sunC,
		&ownerFirst, &ownerLast, &mgrFirst, &mgrLast)
	if err != nil {
		return nil, err
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	if locID != nil {
		d.Location = &models.Location{
			ID:        *locID,
			BreweryID: d.ID,
			Address:   deref(locAddress),
			CityID:    *locCityID,
			StateID:   *locStateID,
			CountyID:  *locCountyID,
			Zip:       deref(locZip),
			CityName:  deref(cityName),
		}
		if locLat != nil {
			d.Location.Latitude = *locLat
		}
		if locLng != nil {
			d.Location.Longitude = *locLng
		}
	}
	if featID != nil {
		d.Features = &models.Features{
			ID:        *featID,
			BreweryID: d.ID,
			Facebook:  deref(featFacebook),
			X:         deref(featX),
			Instagram: deref(featInstagram),
		}
	}
	if hoursID != nil {
		d.Hours = &models.OperatingHours{
			ID: *hoursID, BreweryID: d.ID,
			MondayOpen: deref(monO), MondayClose: deref(monC),
			TuesdayOpen: deref(tueO), TuesdayClose: deref(tueC),
			WednesdayOpen: deref(wedO), WednesdayClose: deref(wedC),
			ThursdayOpen: deref(thuO), ThursdayClose: deref(thuC),
			FridayOpen: deref(friO), FridayClose: deref(friC),
			SaturdayOpen: deref(satO), SaturdayClose: deref(satC),
			SundayOpen: deref(sunO), SundayClose: deref(sunC),
		}
	}
	if d.OwnerID != nil && ownerFirst != nil {
		d.Owner = &models.UserSummary{ID: *d.OwnerID, Firstname: *ownerFirst, Lastname: deref(ownerLast)}
	}
	if d.ManagerID != nil && mgrFirst != nil {
		d.Manager = &models.UserSummary{ID: *d.ManagerID, Firstname: *mgrFirst, Lastname: deref(mgrLast)}
	}

	return &d, nil
}

func (r *breweryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BreweryDetail, error) {
	query := breweryDetailQuery + ` WHERE b.id = $1`

	detail, err := scanBreweryDetail(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brewery: %w", err)
	}

	return detail, nil
}

func (r *breweryRepository) List(ctx context.Context, page, pageSize int) ([]*models.BreweryDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	query := breweryDetailQuery + `
	ORDER BY b.created_at DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list breweries: %w", err)
	}
	defer rows.Close()

	var breweries []*models.BreweryDetail
	for rows.Next() {
		detail, err := scanBreweryDetail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan brewery: %w", err)
		}
		breweries = append(breweries, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list breweries: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM breweries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count breweries: %w", err)
	}

	return breweries, total, nil
}

func (r *breweryRepository) ListLocationsByState(ctx context.Context, stateID uuid.UUID) ([]*models.Location, error) {
	query := `
		SELECT l.id, l.brewery_id, l.address, l.city_id, l.state_id,
			l.county_id, l.latitude, l.longitude, l.zip, c.name
		FROM brewery_locations l
		JOIN cities c ON c.id = l.city_id
		WHERE l.state_id = $1
		ORDER BY c.name`

	rows, err := r.db.Query(ctx, query, stateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brewery locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.BreweryID, &loc.Address,
			&loc.CityID, &loc.StateID, &loc.CountyID, &loc.Latitude,
			&loc.Longitude, &loc.Zip, &loc.CityName); err != nil {
			return nil, fmt.Errorf("failed to scan brewery location: %w", err)
		}
		locations = append(locations, &loc)
	}

	return locations, rows.Err()
}

func (r *breweryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Brewery, error) {
	query := `
		SELECT id, name, type, website, merchandise, social_media, owner_id,
			manager_id, created_at
		FROM breweries
		WHERE owner_id = $1
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breweries by owner: %w", err)
	}
	defer rows.Close()

	var breweries []*models.Brewery
	for rows.Next() {
		var b models.Brewery
		if err := rows.Scan(&b.ID, &b.Name, &b.Type, &b.Website,
			&b.Merchandise, &b.SocialMedia, &b.OwnerID, &b.ManagerID,
			&b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brewery: %w", err)
		}
		breweries = append(breweries, &b)
	}

	return breweries, rows.Err()
}
