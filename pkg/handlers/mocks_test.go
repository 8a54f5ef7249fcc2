package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/brewtrail/brewtrail-engine/pkg/models"
	"github.com/brewtrail/brewtrail-engine/pkg/services"
)

// mockStateRepository is a configurable mock for testing handlers.
type mockStateRepository struct {
	states  []*models.State
	state   *models.State
	getErr  error
	listErr error
}

func (m *mockStateRepository) GetByCode(_ context.Context, _ string) (*models.State, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.state, nil
}

func (m *mockStateRepository) Create(_ context.Context, _ *models.State) error { return nil }

func (m *mockStateRepository) List(_ context.Context) ([]*models.State, error) {
	return m.states, m.listErr
}

type mockCountyRepository struct {
	counties []*models.County
	listErr  error
}

func (m *mockCountyRepository) GetByFIPS(_ context.Context, _ string, _ uuid.UUID) (*models.County, error) {
	return nil, nil
}

func (m *mockCountyRepository) Create(_ context.Context, _ *models.County) error { return nil }

func (m *mockCountyRepository) ListByState(_ context.Context, _ uuid.UUID) ([]*models.County, error) {
	return m.counties, m.listErr
}

type mockCityRepository struct {
	city      *models.City
	cities    []*models.City
	total     int
	getErr    error
	listErr   error
	searchErr error

	capturedPage     int
	capturedPageSize int
}

func (m *mockCityRepository) GetByComposite(_ context.Context, _ string, _, _ uuid.UUID) (*models.City, error) {
	return nil, nil
}

func (m *mockCityRepository) FindForBrewery(_ context.Context, _, _ string, _ uuid.UUID) (*models.City, error) {
	return nil, nil
}

func (m *mockCityRepository) Create(_ context.Context, _ *models.City) error { return nil }

func (m *mockCityRepository) GetByID(_ context.Context, _ uuid.UUID) (*models.City, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.city, nil
}

func (m *mockCityRepository) ListByCounty(_ context.Context, _ uuid.UUID) ([]*models.City, error) {
	return m.cities, m.listErr
}

func (m *mockCityRepository) SearchByName(_ context.Context, _ string) ([]*models.City, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.cities, nil
}

func (m *mockCityRepository) List(_ context.Context, page, pageSize int) ([]*models.City, int, error) {
	m.capturedPage = page
	m.capturedPageSize = pageSize
	return m.cities, m.total, m.listErr
}

type mockBreweryRepository struct {
	detail    *models.BreweryDetail
	details   []*models.BreweryDetail
	locations []*models.Location
	breweries []*models.Brewery
	total     int
	getErr    error
	listErr   error
}

func (m *mockBreweryRepository) ExistsInCity(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (m *mockBreweryRepository) Create(_ context.Context, _ *models.Brewery, _ *models.Location,
	_ *models.Features, _ *models.OperatingHours) error {
	return nil
}

func (m *mockBreweryRepository) GetByID(_ context.Context, _ uuid.UUID) (*models.BreweryDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.detail, nil
}

func (m *mockBreweryRepository) List(_ context.Context, _, _ int) ([]*models.BreweryDetail, int, error) {
	return m.details, m.total, m.listErr
}

func (m *mockBreweryRepository) ListLocationsByState(_ context.Context, _ uuid.UUID) ([]*models.Location, error) {
	return m.locations, m.listErr
}

func (m *mockBreweryRepository) ListByOwner(_ context.Context, _ uuid.UUID) ([]*models.Brewery, error) {
	return m.breweries, m.listErr
}

// mockImportJobService captures Start calls and serves canned jobs.
type mockImportJobService struct {
	job      *services.ImportJob
	jobs     []*services.ImportJob
	startErr error
	found    bool

	capturedKind services.ImportKind
	capturedPath string
}

func (m *mockImportJobService) Start(kind services.ImportKind, filePath string) (*services.ImportJob, error) {
	m.capturedKind = kind
	m.capturedPath = filePath
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.job, nil
}

func (m *mockImportJobService) Get(_ uuid.UUID) (*services.ImportJob, bool) {
	return m.job, m.found
}

func (m *mockImportJobService) List() []*services.ImportJob { return m.jobs }

func (m *mockImportJobService) Shutdown() {}
