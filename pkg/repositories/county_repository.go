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

// CountyRepository defines data access for counties. A FIPS code is only
// unique within a state, so lookups always carry the parent state id.
type CountyRepository interface {
	// GetByFIPS returns apperrors.ErrNotFound when absent.
	GetByFIPS(ctx context.Context, countyFIPS string, stateID uuid.UUID) (*models.County, error)
	Create(ctx context.Context, county *models.County) error
	ListByState(ctx context.Context, stateID uuid.UUID) ([]*models.County, error)
}

type countyRepository struct {
	db *database.DB
}

// NewCountyRepository creates a new county repository.
func NewCountyRepository(db *database.DB) CountyRepository {
	return &countyRepository{db: db}
}

func (r *countyRepository) GetByFIPS(ctx context.Context, countyFIPS string, stateID uuid.UUID) (*models.County, error) {
	query := `
		SELECT id, name, county_fips, state_id, created_at
		FROM counties
		WHERE county_fips = $1 AND state_id = $2`

	var county models.County
	err := r.db.QueryRow(ctx, query, countyFIPS, stateID).Scan(
		&county.ID, &county.Name, &county.CountyFIPS, &county.StateID, &county.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get county by fips: %w", err)
	}

	return &county, nil
}

func (r *countyRepository) Create(ctx context.Context, county *models.County) error {
	if county.ID == uuid.Nil {
		county.ID = uuid.New()
	}
	county.CreatedAt = time.Now()

	query := `
		INSERT INTO counties (id, name, county_fips, state_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		county.ID, county.Name, county.CountyFIPS, county.StateID, county.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create county: %w", database.MapInsertError(err))
	}

	return nil
}

func (r *countyRepository) ListByState(ctx context.Context, stateID uuid.UUID) ([]*models.County, error) {
	query := `
		SELECT id, name, county_fips, state_id, created_at
		FROM counties
		WHERE state_id = $1
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, stateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counties: %w", err)
	}
	defer rows.Close()

	var counties []*models.County
	for rows.Next() {
		var county models.County
		if err := rows.Scan(&county.ID, &county.Name, &county.CountyFIPS,
			&county.StateID, &county.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan county: %w", err)
		}
		counties = append(counties, &county)
	}

	return counties, rows.Err()
}
