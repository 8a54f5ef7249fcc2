package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const geoHeader = "city,city_ascii,state_id,state_name,county_fips,county_name,lat,lng,zips,timezone,ranking,population\n"

func writeBatchFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openTestSkipLog(t *testing.T) *SkipLog {
	t.Helper()
	skipLog, err := OpenSkipLog(t.TempDir(), "skips.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = skipLog.Close() })
	return skipLog
}

func readSkipLog(t *testing.T, skipLog *SkipLog) string {
	t.Helper()
	require.NoError(t, skipLog.Close())
	data, err := os.ReadFile(skipLog.Path())
	require.NoError(t, err)
	return string(data)
}

func newGeoFixture(t *testing.T) (GeoImportService, *mockStateRepository, *mockCountyRepository, *mockCityRepository) {
	states := newMockStateRepository()
	counties := newMockCountyRepository()
	cities := newMockCityRepository()
	svc := NewGeoImportService(states, counties, cities, zaptest.NewLogger(t))
	return svc, states, counties, cities
}

func TestGeoImportRun_InsertsHierarchy(t *testing.T) {
	svc, states, counties, cities := newGeoFixture(t)

	// Rows of the same state and county repeat the parent columns; rows of
	// different states are interleaved to show file order does not matter.
	path := writeBatchFile(t, "cities.csv", geoHeader+
		"Denver,Denver,CO,Colorado,08031,Denver County,39.7392,-104.9903,80201 80202,America/Denver,1,715522\n"+
		"Portland,Portland,OR,Oregon,41051,Multnomah County,45.5152,-122.6784,97201,America/Los_Angeles,1,652503\n"+
		"Aurora,Aurora,CO,Colorado,08005,Arapahoe County,39.7294,-104.8319,80010,America/Denver,2,386261\n"+
		"Littleton,Littleton,CO,Colorado,08005,Arapahoe County,39.6133,-105.0166,80120,America/Denver,3,48065\n")

	report, err := svc.Run(context.Background(), path, openTestSkipLog(t))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Inserted)
	assert.Equal(t, 4, report.Total())
	assert.Equal(t, 2, states.creates)
	assert.Equal(t, 3, counties.creates)
	assert.Equal(t, 4, cities.creates)

	co, err := states.GetByCode(context.Background(), "CO")
	require.NoError(t, err)
	assert.Equal(t, "Colorado", co.Name)

	denver, err := counties.GetByFIPS(context.Background(), "08031", co.ID)
	require.NoError(t, err)
	city, err := cities.GetByComposite(context.Background(), "Denver", co.ID, denver.ID)
	require.NoError(t, err)
	assert.Equal(t, 39.7392, city.Lat)
	assert.Equal(t, 715522, city.Population)
	assert.Equal(t, "80201 80202", city.Zip)
}

func TestGeoImportRun_RerunIsIdempotent(t *testing.T) {
	svc, states, counties, cities := newGeoFixture(t)

	path := writeBatchFile(t, "cities.csv", geoHeader+
		"Denver,Denver,CO,Colorado,08031,Denver County,39.7392,-104.9903,80201,America/Denver,1,715522\n"+
		"Aurora,Aurora,CO,Colorado,08005,Arapahoe County,39.7294,-104.8319,80010,America/Denver,2,386261\n")

	first, err := svc.Run(context.Background(), path, openTestSkipLog(t))
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	skipLog := openTestSkipLog(t)
	second, err := svc.Run(context.Background(), path, skipLog)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.SkippedDuplicate)
	assert.Equal(t, 1, states.creates)
	assert.Equal(t, 2, counties.creates)
	assert.Equal(t, 2, cities.creates)

	// Duplicate cities on rerun are the expected case, not a diagnostic.
	assert.Empty(t, readSkipLog(t, skipLog))
}

func TestGeoImportRun_MissingFIPSSkipsCountyAndCities(t *testing.T) {
	svc, _, counties, cities := newGeoFixture(t)

	path := writeBatchFile(t, "cities.csv", geoHeader+
		"Somewhere,Somewhere,CO,Colorado,,Ghost County,39.0,-104.0,80000,America/Denver,5,100\n"+
		"Elsewhere,Elsewhere,CO,Colorado,,Ghost County,39.1,-104.1,80001,America/Denver,6,200\n"+
		"Denver,Denver,CO,Colorado,08031,Denver County,39.7392,-104.9903,80201,America/Denver,1,715522\n")

	skipLog := openTestSkipLog(t)
	report, err := svc.Run(context.Background(), path, skipLog)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.SkippedMissingParent)
	assert.Equal(t, 1, counties.creates)
	assert.Equal(t, 1, cities.creates)
	assert.Empty(t, readSkipLog(t, skipLog))
}

func TestGeoImportRun_MalformedNumbersSkipRowAndLog(t *testing.T) {
	svc, _, _, cities := newGeoFixture(t)

	path := writeBatchFile(t, "cities.csv", geoHeader+
		"Denver,Denver,CO,Colorado,08031,Denver County,not-a-float,-104.9903,80201,America/Denver,1,715522\n"+
		"Aurora,Aurora,CO,Colorado,08031,Denver County,39.7294,-104.8319,80010,America/Denver,2,junk\n"+
		"Littleton,Littleton,CO,Colorado,08031,Denver County,39.6133,-105.0166,80120,America/Denver,3,48065\n")

	skipLog := openTestSkipLog(t)
	report, err := svc.Run(context.Background(), path, skipLog)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.SkippedParseError)
	assert.Equal(t, 1, cities.creates)

	logged := readSkipLog(t, skipLog)
	assert.Contains(t, logged, "failed to create city: Denver, state: Colorado, county: Denver County")
	assert.Contains(t, logged, "failed to create city: Aurora")
	assert.NotContains(t, logged, "Littleton")
}

func TestGeoImportRun_ParentsResolvedOncePerBatch(t *testing.T) {
	svc, states, counties, _ := newGeoFixture(t)

	// Fifty rows of the same county must produce one state and one county
	// insert; the check-then-insert runs per group, not per row.
	content := geoHeader
	for i := 0; i < 50; i++ {
		content += "City" + string(rune('A'+i%26)) + string(rune('a'+i/26)) +
			",CityX,CO,Colorado,08031,Denver County,39.0,-104.0,80000,America/Denver,1,100\n"
	}
	path := writeBatchFile(t, "cities.csv", content)

	_, err := svc.Run(context.Background(), path, openTestSkipLog(t))
	require.NoError(t, err)

	assert.Equal(t, 1, states.creates)
	assert.Equal(t, 1, counties.creates)
}

func TestGeoImportRun_StorageErrorAbortsBatch(t *testing.T) {
	svc, _, _, cities := newGeoFixture(t)
	cities.createErr = assert.AnError

	path := writeBatchFile(t, "cities.csv", geoHeader+
		"Denver,Denver,CO,Colorado,08031,Denver County,39.7392,-104.9903,80201,America/Denver,1,715522\n")

	_, err := svc.Run(context.Background(), path, openTestSkipLog(t))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGeoImportRun_MissingFile(t *testing.T) {
	svc, _, _, _ := newGeoFixture(t)

	_, err := svc.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), openTestSkipLog(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open batch file")
}
