package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewtrail/brewtrail-engine/pkg/apperrors"
	"github.com/brewtrail/brewtrail-engine/pkg/crypto"
	"github.com/brewtrail/brewtrail-engine/pkg/csvstream"
	"github.com/brewtrail/brewtrail-engine/pkg/models"
	"github.com/brewtrail/brewtrail-engine/pkg/repositories"
)

// BreweryImportService loads a semicolon-delimited brewery file. Unlike the
// geographic import there is no aggregation stage: every row stands alone and
// is resolved against already-imported states and cities in file order.
type BreweryImportService interface {
	Run(ctx context.Context, filePath string, skipLog *SkipLog) (*BatchReport, error)
}

type breweryImportService struct {
	states    repositories.StateRepository
	cities    repositories.CityRepository
	breweries repositories.BreweryRepository
	users     repositories.UserRepository
	hasher    *crypto.PasswordHasher
	// defaultPassword is the credential assigned to staff users created by
	// the import; operators rotate it after onboarding.
	defaultPassword string
	logger          *zap.Logger
}

// NewBreweryImportService creates a new brewery import service.
func NewBreweryImportService(
	states repositories.StateRepository,
	cities repositories.CityRepository,
	breweries repositories.BreweryRepository,
	users repositories.UserRepository,
	hasher *crypto.PasswordHasher,
	defaultPassword string,
	logger *zap.Logger,
) BreweryImportService {
	return &breweryImportService{
		states:          states,
		cities:          cities,
		breweries:       breweries,
		users:           users,
		hasher:          hasher,
		defaultPassword: defaultPassword,
		logger:          logger,
	}
}

func (s *breweryImportService) Run(ctx context.Context, filePath string, skipLog *SkipLog) (*BatchReport, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	reader, err := csvstream.NewReader(file, ';')
	if err != nil {
		return nil, err
	}

	report := &BatchReport{}
	err = reader.ForEach(func(row csvstream.Row) error {
		outcome, err := s.resolveRow(ctx, row, skipLog)
		if err != nil {
			return err
		}
		report.Record(outcome)
		return nil
	})
	if err != nil {
		return report, err
	}

	s.logger.Info("brewery batch resolved",
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped_duplicate", report.SkippedDuplicate),
		zap.Int("skipped_missing_parent", report.SkippedMissingParent),
		zap.Int("skipped_parse_error", report.SkippedParseError))

	return report, nil
}

func (s *breweryImportService) resolveRow(ctx context.Context, row csvstream.Row, skipLog *SkipLog) (RowOutcome, error) {
	name := row.Get("name")
	cityName := row.Get("city")
	stateCode := row.Get("state_id")

	if stateCode == "" {
		return RowSkippedMissingParent, nil
	}

	state, err := s.states.GetByCode(ctx, stateCode)
	if errors.Is(err, apperrors.ErrNotFound) {
		skipLog.Logf("state not found: %s", stateCode)
		return RowSkippedMissingParent, nil
	}
	if err != nil {
		return 0, err
	}

	city, err := s.cities.FindForBrewery(ctx, cityName, row.Get("zip"), state.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		skipLog.Logf("city not found: %s in state: %s brewery: %s", cityName, stateCode, name)
		return RowSkippedMissingParent, nil
	}
	if err != nil {
		return 0, err
	}

	exists, err := s.breweries.ExistsInCity(ctx, name, city.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		skipLog.Logf("brewery already exists: %s in %s, %s", name, cityName, stateCode)
		return RowSkippedDuplicate, nil
	}

	lat, err := parseImportCoordinate(row.Get("latitude"))
	if err != nil {
		skipLog.Logf("invalid coordinates for brewery: %s in %s, %s (%v)", name, cityName, stateCode, err)
		return RowSkippedParseError, nil
	}
	lng, err := parseImportCoordinate(row.Get("longitude"))
	if err != nil {
		skipLog.Logf("invalid coordinates for brewery: %s in %s, %s (%v)", name, cityName, stateCode, err)
		return RowSkippedParseError, nil
	}

	brewery := &models.Brewery{
		Name:        name,
		Type:        row.Get("type"),
		Website:     row.Get("website"),
		Merchandise: row.Get("merchandise") == "true",
		SocialMedia: row.Get("social_media") == "true",
	}

	// The user link is gated on the row's role: owners connect as owner,
	// managers as manager, anything else means no user at all.
	if role := row.Get("role"); models.IsBreweryStaffRole(role) {
		user, err := s.upsertStaffUser(ctx, row, role, city.ID)
		if err != nil {
			return 0, err
		}
		switch role {
		case models.RoleBreweryOwner:
			brewery.OwnerID = &user.ID
		case models.RoleBreweryManager:
			brewery.ManagerID = &user.ID
		}
	}

	location := &models.Location{
		Address:   row.Get("address"),
		CityID:    city.ID,
		StateID:   state.ID,
		CountyID:  city.CountyID,
		Latitude:  lat,
		Longitude: lng,
		Zip:       row.Get("zip"),
	}
	features := &models.Features{
		Facebook:  row.Get("facebook"),
		X:         row.Get("x"),
		Instagram: row.Get("instagram"),
	}
	hours := &models.OperatingHours{
		MondayOpen: row.Get("mondayOpen"), MondayClose: row.Get("mondayClose"),
		TuesdayOpen: row.Get("tuesdayOpen"), TuesdayClose: row.Get("tuesdayClose"),
		WednesdayOpen: row.Get("wednesdayOpen"), WednesdayClose: row.Get("wednesdayClose"),
		ThursdayOpen: row.Get("thursdayOpen"), ThursdayClose: row.Get("thursdayClose"),
		FridayOpen: row.Get("fridayOpen"), FridayClose: row.Get("fridayClose"),
		SaturdayOpen: row.Get("saturdayOpen"), SaturdayClose: row.Get("saturdayClose"),
		SundayOpen: row.Get("sundayOpen"), SundayClose: row.Get("sundayClose"),
	}

	err = s.breweries.Create(ctx, brewery, location, features, hours)
	if errors.Is(err, apperrors.ErrDuplicate) {
		skipLog.Logf("brewery already exists: %s in %s, %s", name, cityName, stateCode)
		return RowSkippedDuplicate, nil
	}
	if err != nil {
		return 0, err
	}

	s.logger.Debug("brewery created", zap.String("name", name), zap.String("city", cityName))
	return RowInserted, nil
}

// upsertStaffUser creates or refreshes the brewery staff user keyed by email.
// The default credential is hashed per row; an existing user keeps their
// stored password.
func (s *breweryImportService) upsertStaffUser(ctx context.Context, row csvstream.Row,
	role string, cityID uuid.UUID) (*models.User, error) {

	hashed, err := s.hasher.Hash(s.defaultPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default credential: %w", err)
	}

	user := &models.User{
		Firstname:   row.Get("firstname"),
		Lastname:    row.Get("lastname"),
		Email:       row.Get("email"),
		PhoneNumber: row.Get("phone_number"),
		Role:        role,
		Password:    hashed,
		CityID:      &cityID,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// parseImportCoordinate converts a textual coordinate to a float. The source
// files use decimal commas; empty values default to zero as the legacy feed
// leaves coordinates blank for unmapped breweries.
func parseImportCoordinate(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", value)
	}
	return f, nil
}
