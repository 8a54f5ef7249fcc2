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
	"github.com/brewtrail/brewtrail-engine/pkg/csvstream"
	"github.com/brewtrail/brewtrail-engine/pkg/models"
	"github.com/brewtrail/brewtrail-engine/pkg/repositories"
)

// GeoImportService loads a comma-delimited state/county/city file. Rows are
// grouped by state then county before any storage access, so each parent is
// upserted exactly once no matter how many city rows reference it, and a
// city row never depends on where in the file its county appears.
type GeoImportService interface {
	// Run processes one batch file. Per-row skips are recorded in the
	// report and the skip log; only stream or storage failures return an
	// error, and rows resolved before the failure stay persisted.
	Run(ctx context.Context, filePath string, skipLog *SkipLog) (*BatchReport, error)
}

type geoImportService struct {
	states   repositories.StateRepository
	counties repositories.CountyRepository
	cities   repositories.CityRepository
	logger   *zap.Logger
}

// NewGeoImportService creates a new geographic import service.
func NewGeoImportService(
	states repositories.StateRepository,
	counties repositories.CountyRepository,
	cities repositories.CityRepository,
	logger *zap.Logger,
) GeoImportService {
	return &geoImportService{
		states:   states,
		counties: counties,
		cities:   cities,
		logger:   logger,
	}
}

// countyGroup collects the city rows of one county. Name and FIPS keep the
// first-seen values; the source file repeats them on every city row.
type countyGroup struct {
	name   string
	fips   string
	cities []csvstream.Row
}

// stateGroup collects a state's counties in order of first appearance.
type stateGroup struct {
	name     string
	code     string
	counties []*countyGroup
	byFIPS   map[string]*countyGroup
}

// aggregateGeoRows folds the flat row stream into the state → county → city
// hierarchy. Pure in-memory transform; the result is owned by the caller and
// discarded when the batch ends.
func aggregateGeoRows(r *csvstream.Reader) ([]*stateGroup, error) {
	var groups []*stateGroup
	byCode := make(map[string]*stateGroup)

	err := r.ForEach(func(row csvstream.Row) error {
		code := row.Get("state_id")
		sg := byCode[code]
		if sg == nil {
			sg = &stateGroup{
				name:   row.Get("state_name"),
				code:   code,
				byFIPS: make(map[string]*countyGroup),
			}
			byCode[code] = sg
			groups = append(groups, sg)
		}

		fips := row.Get("county_fips")
		cg := sg.byFIPS[fips]
		if cg == nil {
			cg = &countyGroup{
				name: row.Get("county_name"),
				fips: fips,
			}
			sg.byFIPS[fips] = cg
			sg.counties = append(sg.counties, cg)
		}

		cg.cities = append(cg.cities, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

func (s *geoImportService) Run(ctx context.Context, filePath string, skipLog *SkipLog) (*BatchReport, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	reader, err := csvstream.NewReader(file, ',')
	if err != nil {
		return nil, err
	}

	groups, err := aggregateGeoRows(reader)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{}
	for _, sg := range groups {
		state, err := s.resolveState(ctx, sg)
		if err != nil {
			return report, err
		}

		for _, cg := range sg.counties {
			if cg.fips == "" {
				// A county without a FIPS code cannot be matched;
				// skip it and its cities without logging.
				s.logger.Debug("county without fips code, skipping",
					zap.String("state", sg.name),
					zap.String("county", cg.name))
				for range cg.cities {
					report.Record(RowSkippedMissingParent)
				}
				continue
			}

			county, err := s.resolveCounty(ctx, cg, state.ID)
			if err != nil {
				return report, err
			}

			for _, row := range cg.cities {
				outcome, err := s.resolveCity(ctx, row, sg, cg, state.ID, county.ID, skipLog)
				if err != nil {
					return report, err
				}
				report.Record(outcome)
			}
		}
	}

	s.logger.Info("geographic batch resolved",
		zap.Int("states", len(groups)),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped_duplicate", report.SkippedDuplicate),
		zap.Int("skipped_missing_parent", report.SkippedMissingParent),
		zap.Int("skipped_parse_error", report.SkippedParseError))

	return report, nil
}

// resolveState looks the state up by its natural key and inserts it when
// absent. Existing states are reused untouched.
func (s *geoImportService) resolveState(ctx context.Context, sg *stateGroup) (*models.State, error) {
	state, err := s.states.GetByCode(ctx, sg.code)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	state = &models.State{Name: sg.name, StateID: sg.code}
	err = s.states.Create(ctx, state)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// A concurrent batch inserted it between our check and write.
		return s.states.GetByCode(ctx, sg.code)
	}
	if err != nil {
		return nil, err
	}

	return state, nil
}

// resolveCounty inserts the county when absent; existing counties are never
// updated.
func (s *geoImportService) resolveCounty(ctx context.Context, cg *countyGroup, stateID uuid.UUID) (*models.County, error) {
	county, err := s.counties.GetByFIPS(ctx, cg.fips, stateID)
	if err == nil {
		return county, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	county = &models.County{Name: cg.name, CountyFIPS: cg.fips, StateID: stateID}
	err = s.counties.Create(ctx, county)
	if errors.Is(err, apperrors.ErrDuplicate) {
		return s.counties.GetByFIPS(ctx, cg.fips, stateID)
	}
	if err != nil {
		return nil, err
	}

	return county, nil
}

func (s *geoImportService) resolveCity(ctx context.Context, row csvstream.Row,
	sg *stateGroup, cg *countyGroup, stateID, countyID uuid.UUID,
	skipLog *SkipLog) (RowOutcome, error) {

	cityName := row.Get("city")

	lat, lng, population, ranking, parseErr := parseCityNumbers(row)
	if parseErr != nil {
		skipLog.Logf("failed to create city: %s, state: %s, county: %s (%v)",
			cityName, sg.name, cg.name, parseErr)
		return RowSkippedParseError, nil
	}

	_, err := s.cities.GetByComposite(ctx, row.Get("city_ascii"), stateID, countyID)
	if err == nil {
		// Expected on reruns; not worth a log line.
		return RowSkippedDuplicate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, err
	}

	city := &models.City{
		Name:       cityName,
		CityASCII:  row.Get("city_ascii"),
		StateID:    stateID,
		CountyID:   countyID,
		Lat:        lat,
		Lng:        lng,
		Zip:        row.Get("zips"),
		Timezone:   row.Get("timezone"),
		Ranking:    ranking,
		Population: population,
	}

	err = s.cities.Create(ctx, city)
	if errors.Is(err, apperrors.ErrDuplicate) {
		return RowSkippedDuplicate, nil
	}
	if err != nil {
		return 0, err
	}

	return RowInserted, nil
}

// parseCityNumbers coerces the textual numeric fields of a city row. Any
// missing or malformed field fails the whole row; cities are never stored
// with zeroed-out coordinates or population.
func parseCityNumbers(row csvstream.Row) (lat, lng float64, population, ranking int, err error) {
	lat, err = strconv.ParseFloat(strings.TrimSpace(row.Get("lat")), 64)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid lat %q", row.Get("lat"))
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(row.Get("lng")), 64)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid lng %q", row.Get("lng"))
	}
	population, err = strconv.Atoi(strings.TrimSpace(row.Get("population")))
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid population %q", row.Get("population"))
	}
	ranking, err = strconv.Atoi(strings.TrimSpace(row.Get("ranking")))
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid ranking %q", row.Get("ranking"))
	}
	return lat, lng, population, ranking, nil
}
