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

// UserRepository defines data access for users. Email is the natural key.
type UserRepository interface {
	// GetByEmail returns apperrors.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Upsert inserts the user, or refreshes contact fields when a user with
	// the same email already exists. The stored password is never
	// overwritten on update. The user's ID is populated either way.
	Upsert(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, firstname, lastname, email, phone_number, role, password,
			birthdate, photo, city_id, created_at, updated_at
		FROM users
		WHERE email = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.Firstname,
		&user.Lastname, &user.Email, &user.PhoneNumber, &user.Role,
		&user.Password, &user.Birthdate, &user.Photo, &user.CityID,
		&user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// city_id is only set on first insert; the password column is
	// deliberately absent from the UPDATE clause.
	query := `
		INSERT INTO users (id, firstname, lastname, email, phone_number, role,
			password, birthdate, photo, city_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (email) DO UPDATE
		SET firstname = EXCLUDED.firstname,
		    lastname = EXCLUDED.lastname,
		    phone_number = EXCLUDED.phone_number,
		    role = EXCLUDED.role,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, user.ID, user.Firstname, user.Lastname,
		user.Email, user.PhoneNumber, user.Role, user.Password,
		user.Birthdate, user.Photo, user.CityID, user.CreatedAt,
		user.UpdatedAt).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}
