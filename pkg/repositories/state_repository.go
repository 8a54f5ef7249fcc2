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

// StateRepository defines data access for states. States are created once by
// imports and never updated afterwards.
type StateRepository interface {
	// GetByCode looks a state up by its external natural key (postal code).
	// Returns apperrors.ErrNotFound when absent.
	GetByCode(ctx context.Context, stateCode string) (*models.State, error)
	Create(ctx context.Context, state *models.State) error
	List(ctx context.Context) ([]*models.State, error)
}

type stateRepository struct {
	db *database.DB
}

// NewStateRepository creates a new state repository.
func NewStateRepository(db *database.DB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) GetByCode(ctx context.Context, stateCode string) (*models.State, error) {
	query := `
		SELECT id, name, state_id, created_at
		FROM states
		WHERE state_id = $1`

	var state models.State
	err := r.db.QueryRow(ctx, query, stateCode).Scan(
		&state.ID, &state.Name, &state.StateID, &state.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state by code: %w", err)
	}

	return &state, nil
}

func (r *stateRepository) Create(ctx context.Context, state *models.State) error {
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	state.CreatedAt = time.Now()

	query := `
		INSERT INTO states (id, name, state_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, state.ID, state.Name, state.StateID, state.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create state: %w", database.MapInsertError(err))
	}

	return nil
}

func (r *stateRepository) List(ctx context.Context) ([]*models.State, error) {
	query := `
		SELECT id, name, state_id, created_at
		FROM states
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var states []*models.State
	for rows.Next() {
		var state models.State
		if err := rows.Scan(&state.ID, &state.Name, &state.StateID, &state.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, &state)
	}

	return states, rows.Err()
}
