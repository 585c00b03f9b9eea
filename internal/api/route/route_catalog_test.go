package route

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

func testRoutePOIs(n int) []types.POI {
	pois := make([]types.POI, 0, n)
	for i := 0; i < n; i++ {
		pois = append(pois, types.POI{
			ID:                   fmt.Sprintf("poi_%d", i),
			Name:                 fmt.Sprintf("POI %d", i),
			Coordinates:          types.Coordinates{Latitude: 40.41 + float64(i)*0.001, Longitude: -3.71},
			ArrivalRadiusMeters:  50,
			VisitDurationMinutes: 10,
			Order:                i,
		})
	}
	return pois
}

func TestNewCatalog_FailsFastOnEmptyList(t *testing.T) {
	_, err := NewCatalog(nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestNewCatalog_FailsFastOnDuplicateIDs(t *testing.T) {
	pois := testRoutePOIs(3)
	pois[2].ID = pois[0].ID

	_, err := NewCatalog(pois, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewCatalog_FailsFastOnMissingID(t *testing.T) {
	pois := testRoutePOIs(2)
	pois[1].ID = ""

	_, err := NewCatalog(pois, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestNewCatalog_AppliesDefaultRadius(t *testing.T) {
	pois := testRoutePOIs(2)
	pois[0].ArrivalRadiusMeters = 0
	pois[1].ArrivalRadiusMeters = 75

	catalog, err := NewCatalog(pois, 0)
	require.NoError(t, err)

	first, err := catalog.POIAt(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultArrivalRadiusMeters, first.ArrivalRadiusMeters)

	second, err := catalog.POIAt(1)
	require.NoError(t, err)
	assert.Equal(t, 75.0, second.ArrivalRadiusMeters)
}

func TestNewCatalog_ConfiguredDefaultRadius(t *testing.T) {
	pois := testRoutePOIs(2)
	pois[0].ArrivalRadiusMeters = 0
	pois[1].ArrivalRadiusMeters = 75

	catalog, err := NewCatalog(pois, 30)
	require.NoError(t, err)

	// The injected default fills unset entries; explicit radii win.
	first, err := catalog.POIAt(0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, first.ArrivalRadiusMeters)

	second, err := catalog.POIAt(1)
	require.NoError(t, err)
	assert.Equal(t, 75.0, second.ArrivalRadiusMeters)
}

func TestNewCatalog_OrdersByConfiguredOrder(t *testing.T) {
	pois := testRoutePOIs(3)
	// Supply out of order; the catalog must normalize positions.
	pois[0].Order = 2
	pois[2].Order = 0

	catalog, err := NewCatalog(pois, 0)
	require.NoError(t, err)

	first, err := catalog.POIAt(0)
	require.NoError(t, err)
	assert.Equal(t, "poi_2", first.ID)
	assert.Equal(t, 0, first.Order)
}

func TestCatalog_Lookups(t *testing.T) {
	catalog, err := NewCatalog(testRoutePOIs(3), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, catalog.Length())

	poi, err := catalog.POIByID("poi_1")
	require.NoError(t, err)
	assert.Equal(t, 1, poi.Order)

	_, err = catalog.POIByID("unknown")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = catalog.POIAt(-1)
	assert.True(t, errors.Is(err, types.ErrNotFound))
	_, err = catalog.POIAt(3)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestCatalog_NextAfter(t *testing.T) {
	catalog, err := NewCatalog(testRoutePOIs(3), 0)
	require.NoError(t, err)

	next, ok := catalog.NextAfter(0)
	require.True(t, ok)
	assert.Equal(t, "poi_1", next.ID)

	_, ok = catalog.NextAfter(2)
	assert.False(t, ok)
}
