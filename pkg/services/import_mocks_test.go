package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/brewtrail/brewtrail-engine/pkg/apperrors"
	"github.com/brewtrail/brewtrail-engine/pkg/models"
)

// The import services are exercised against in-memory repositories that
// enforce the same natural-key uniqueness the database schema does, so
// rerun and duplicate behavior can be asserted without a live store.

type mockStateRepository struct {
	byCode  map[string]*models.State
	getErr  error
	creates int
}

func newMockStateRepository() *mockStateRepository {
	return &mockStateRepository{byCode: make(map[string]*models.State)}
}

func (m *mockStateRepository) GetByCode(_ context.Context, stateCode string) (*models.State, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	state, ok := m.byCode[stateCode]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return state, nil
}

func (m *mockStateRepository) Create(_ context.Context, state *models.State) error {
	if _, ok := m.byCode[state.StateID]; ok {
		return apperrors.ErrDuplicate
	}
	state.ID = uuid.New()
	m.byCode[state.StateID] = state
	m.creates++
	return nil
}

func (m *mockStateRepository) List(_ context.Context) ([]*models.State, error) {
	return nil, nil
}

type mockCountyRepository struct {
	byKey   map[string]*models.County
	creates int
}

func newMockCountyRepository() *mockCountyRepository {
	return &mockCountyRepository{byKey: make(map[string]*models.County)}
}

func countyKey(fips string, stateID uuid.UUID) string {
	return fips + "_" + stateID.String()
}

func (m *mockCountyRepository) GetByFIPS(_ context.Context, countyFIPS string, stateID uuid.UUID) (*models.County, error) {
	county, ok := m.byKey[countyKey(countyFIPS, stateID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return county, nil
}

func (m *mockCountyRepository) Create(_ context.Context, county *models.County) error {
	key := countyKey(county.CountyFIPS, county.StateID)
	if _, ok := m.byKey[key]; ok {
		return apperrors.ErrDuplicate
	}
	county.ID = uuid.New()
	m.byKey[key] = county
	m.creates++
	return nil
}

func (m *mockCountyRepository) ListByState(_ context.Context, _ uuid.UUID) ([]*models.County, error) {
	return nil, nil
}

type mockCityRepository struct {
	byIdentifier map[string]*models.City
	creates      int
	createErr    error
}

func newMockCityRepository() *mockCityRepository {
	return &mockCityRepository{byIdentifier: make(map[string]*models.City)}
}

func (m *mockCityRepository) GetByComposite(_ context.Context, cityASCII string, stateID, countyID uuid.UUID) (*models.City, error) {
	city, ok := m.byIdentifier[models.CityIdentifier(cityASCII, stateID, countyID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return city, nil
}

func (m *mockCityRepository) FindForBrewery(_ context.Context, name, zip string, stateID uuid.UUID) (*models.City, error) {
	for _, city := range m.byIdentifier {
		if city.Name == name && city.StateID == stateID && strings.Contains(city.Zip, zip) {
			return city, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockCityRepository) Create(_ context.Context, city *models.City) error {
	if m.createErr != nil {
		return m.createErr
	}
	key := models.CityIdentifier(city.CityASCII, city.StateID, city.CountyID)
	if _, ok := m.byIdentifier[key]; ok {
		return apperrors.ErrDuplicate
	}
	city.ID = uuid.New()
	city.UniqueIdentifier = key
	m.byIdentifier[key] = city
	m.creates++
	return nil
}

func (m *mockCityRepository) GetByID(_ context.Context, _ uuid.UUID) (*models.City, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockCityRepository) ListByCounty(_ context.Context, _ uuid.UUID) ([]*models.City, error) {
	return nil, nil
}

func (m *mockCityRepository) SearchByName(_ context.Context, _ string) ([]*models.City, error) {
	return nil, nil
}

func (m *mockCityRepository) List(_ context.Context, _, _ int) ([]*models.City, int, error) {
	return nil, 0, nil
}

type storedBrewery struct {
	brewery  *models.Brewery
	location *models.Location
	features *models.Features
	hours    *models.OperatingHours
}

type mockBreweryRepository struct {
	stored    []storedBrewery
	createErr error
}

func newMockBreweryRepository() *mockBreweryRepository {
	return &mockBreweryRepository{}
}

func (m *mockBreweryRepository) ExistsInCity(_ context.Context, name string, cityID uuid.UUID) (bool, error) {
	for _, s := range m.stored {
		if s.brewery.Name == name && s.location.CityID == cityID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBreweryRepository) Create(_ context.Context, brewery *models.Brewery, location *models.Location,
	features *models.Features, hours *models.OperatingHours) error {
	if m.createErr != nil {
		return m.createErr
	}
	brewery.ID = uuid.New()
	m.stored = append(m.stored, storedBrewery{brewery, location, features, hours})
	return nil
}

func (m *mockBreweryRepository) GetByID(_ context.Context, _ uuid.UUID) (*models.BreweryDetail, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockBreweryRepository) List(_ context.Context, _, _ int) ([]*models.BreweryDetail, int, error) {
	return nil, 0, nil
}

func (m *mockBreweryRepository) ListLocationsByState(_ context.Context, _ uuid.UUID) ([]*models.Location, error) {
	return nil, nil
}

func (m *mockBreweryRepository) ListByOwner(_ context.Context, _ uuid.UUID) ([]*models.Brewery, error) {
	return nil, nil
}

type mockUserRepository struct {
	byEmail map[string]*models.User
	upserts int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{byEmail: make(map[string]*models.User)}
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepository) Upsert(_ context.Context, user *models.User) error {
	m.upserts++
	existing, ok := m.byEmail[user.Email]
	if ok {
		// Contact fields refresh, identity and password stay.
		user.ID = existing.ID
		user.Password = existing.Password
		existing.Firstname = user.Firstname
		existing.Lastname = user.Lastname
		existing.PhoneNumber = user.PhoneNumber
		existing.Role = user.Role
		return nil
	}
	user.ID = uuid.New()
	stored := *user
	m.byEmail[user.Email] = &stored
	return nil
}
