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

// CityRepository defines data access for cities.
type CityRepository interface {
	// GetByComposite matches on the (city_ascii, stateId, countyId) triple.
	// Returns apperrors.ErrNotFound when absent.
	GetByComposite(ctx context.Context, cityASCII string, stateID, countyID uuid.UUID) (*models.City, error)
	// FindForBrewery matches a city by exact name and state, plus a
	// substring test of the row's zip against the city's multi-zip field.
	FindForBrewery(ctx context.Context, name, zip string, stateID uuid.UUID) (*models.City, error)
	Create(ctx context.Context, city *models.City) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	ListByCounty(ctx context.Context, countyID uuid.UUID) ([]*models.City, error)
	SearchByName(ctx context.Context, name string) ([]*models.City, error)
	List(ctx context.Context, page, pageSize int) ([]*models.City, int, error)
}

type cityRepository struct {
	db *database.DB
}

// NewCityRepository creates a new city repository.
func NewCityRepository(db *database.DB) CityRepository {
	return &cityRepository{db: db}
}

const cityColumns = `id, name, city_ascii, state_id, county_id, lat, lng, zip,
	timezone, ranking, population, unique_city_identifier, created_at`

func scanCity(row pgx.Row) (*models.City, error) {
	var city models.City
	err := row.Scan(&city.ID, &city.Name, &city.CityASCII, &city.StateID,
		&city.CountyID, &city.Lat, &city.Lng, &city.Zip, &city.Timezone,
		&city.Ranking, &city.Population, &city.UniqueIdentifier, &city.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *cityRepository) GetByComposite(ctx context.Context, cityASCII string, stateID, countyID uuid.UUID) (*models.City, error) {
	query := `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE city_ascii = $1 AND state_id = $2 AND county_id = $3`

	city, err := scanCity(r.db.QueryRow(ctx, query, cityASCII, stateID, countyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city by composite key: %w", err)
	}

	return city, nil
}

func (r *cityRepository) FindForBrewery(ctx context.Context, name, zip string, stateID uuid.UUID) (*models.City, error) {
	// The zip column holds a space-separated list of zips for multi-zip
	// cities, so the row's single zip is matched as a substring.
	query := `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE name = $1 AND zip LIKE '%' || $2 || '%' AND state_id = $3
		LIMIT 1`

	city, err := scanCity(r.db.QueryRow(ctx, query, name, zip, stateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find city for brewery: %w", err)
	}

	return city, nil
}

func (r *cityRepository) Create(ctx context.Context, city *models.City) error {
	if city.ID == uuid.Nil {
		city.ID = uuid.New()
	}
	city.CreatedAt = time.Now()
	city.UniqueIdentifier = models.CityIdentifier(city.CityASCII, city.StateID, city.CountyID)

	query := `
		INSERT INTO cities (id, name, city_ascii, state_id, county_id, lat, lng,
			zip, timezone, ranking, population, unique_city_identifier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query, city.ID, city.Name, city.CityASCII,
		city.StateID, city.CountyID, city.Lat, city.Lng, city.Zip,
		city.Timezone, city.Ranking, city.Population, city.UniqueIdentifier,
		city.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create city: %w", database.MapInsertError(err))
	}

	return nil
}

func (r *cityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	query := `
		SELECT c.id, c.name, c.city_ascii, c.state_id, c.county_id, c.lat,
			c.lng, c.zip, c.timezone, c.ranking, c.population,
			c.unique_city_identifier, c.created_at, co.name, s.name
		FROM cities c
		JOIN counties co ON co.id = c.county_id
		JOIN states s ON s.id = c.state_id
		WHERE c.id = $1`

	var city models.City
	err := r.db.QueryRow(ctx, query, id).Scan(&city.ID, &city.Name,
		&city.CityASCII, &city.StateID, &city.CountyID, &city.Lat, &city.Lng,
		&city.Zip, &city.Timezone, &city.Ranking, &city.Population,
		&city.UniqueIdentifier, &city.CreatedAt, &city.CountyName, &city.StateName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}

	return &city, nil
}

func (r *cityRepository) ListByCounty(ctx context.Context, countyID uuid.UUID) ([]*models.City, error) {
	query := `
		SELECT c.id, c.name, c.city_ascii, c.state_id, c.county_id, c.lat,
			c.lng, c.zip, c.timezone, c.ranking, c.population,
			c.unique_city_identifier, c.created_at, co.name, s.name
		FROM cities c
		JOIN counties co ON co.id = c.county_id
		JOIN states s ON s.id = c.state_id
		WHERE c.county_id = $1
		ORDER BY c.name`

	return r.queryCitiesWithParents(ctx, query, countyID)
}

func (r *cityRepository) SearchByName(ctx context.Context, name string) ([]*models.City, error) {
	query := `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer rows.Close()

	var cities []*models.City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}

	return cities, rows.Err()
}

func (r *cityRepository) List(ctx context.Context, page, pageSize int) ([]*models.City, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	query := `
		SELECT c.id, c.name, c.city_ascii, c.state_id, c.county_id, c.lat,
			c.lng, c.zip, c.timezone, c.ranking, c.population,
			c.unique_city_identifier, c.created_at, co.name, s.name
		FROM cities c
		JOIN counties co ON co.id = c.county_id
		JOIN states s ON s.id = c.state_id
		ORDER BY c.created_at DESC
		LIMIT $1 OFFSET $2`

	cities, err := r.queryCitiesWithParents(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cities: %w", err)
	}

	return cities, total, nil
}

func (r *cityRepository) queryCitiesWithParents(ctx context.Context, query string, args ...any) ([]*models.City, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []*models.City
	for rows.Next() {
		var city models.City
		if err := rows.Scan(&city.ID, &city.Name, &city.CityASCII,
			&city.StateID, &city.CountyID, &city.Lat, &city.Lng, &city.Zip,
			&city.Timezone, &city.Ranking, &city.Population,
			&city.UniqueIdentifier, &city.CreatedAt,
			&city.CountyName, &city.StateName); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, &city)
	}

	return cities, rows.Err()
}
