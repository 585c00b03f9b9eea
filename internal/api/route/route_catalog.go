package route

import (
	"fmt"
	"sort"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// DefaultArrivalRadiusMeters applies to catalog entries that do not
// configure their own radius.
const DefaultArrivalRadiusMeters = 50.0

// Catalog is the static, ordered list of POIs for one deployment. It is
// immutable after construction.
type Catalog struct {
	pois []types.POI
	byID map[string]int
}

// NewCatalog validates the configured POI list and fails fast on an empty
// list or duplicate ids. POIs are ordered by their configured Order field.
// Entries without their own arrival radius get defaultArrivalRadiusMeters,
// or the package default when that is unset too.
func NewCatalog(pois []types.POI, defaultArrivalRadiusMeters float64) (*Catalog, error) {
	if len(pois) == 0 {
		return nil, fmt.Errorf("route catalog requires at least one POI: %w", types.ErrValidation)
	}
	if defaultArrivalRadiusMeters <= 0 {
		defaultArrivalRadiusMeters = DefaultArrivalRadiusMeters
	}

	ordered := make([]types.POI, len(pois))
	copy(ordered, pois)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	byID := make(map[string]int, len(ordered))
	for i := range ordered {
		poi := &ordered[i]
		if poi.ID == "" {
			return nil, fmt.Errorf("POI at position %d has no id: %w", i, types.ErrValidation)
		}
		if _, exists := byID[poi.ID]; exists {
			return nil, fmt.Errorf("duplicate POI id %q: %w", poi.ID, types.ErrValidation)
		}
		if err := poi.Coordinates.Validate(); err != nil {
			return nil, fmt.Errorf("POI %q: %w", poi.ID, err)
		}
		if poi.ArrivalRadiusMeters <= 0 {
			poi.ArrivalRadiusMeters = defaultArrivalRadiusMeters
		}
		poi.Order = i
		byID[poi.ID] = i
	}

	return &Catalog{pois: ordered, byID: byID}, nil
}

func (c *Catalog) Length() int {
	return len(c.pois)
}

func (c *Catalog) POIAt(index int) (types.POI, error) {
	if index < 0 || index >= len(c.pois) {
		return types.POI{}, fmt.Errorf("POI index %d out of range: %w", index, types.ErrNotFound)
	}
	return c.pois[index], nil
}

func (c *Catalog) POIByID(id string) (types.POI, error) {
	index, ok := c.byID[id]
	if !ok {
		return types.POI{}, fmt.Errorf("POI %q: %w", id, types.ErrNotFound)
	}
	return c.pois[index], nil
}

// NextAfter returns the POI following index. The second return is false
// when index already points at (or past) the final stop.
func (c *Catalog) NextAfter(index int) (types.POI, bool) {
	next := index + 1
	if next < 0 || next >= len(c.pois) {
		return types.POI{}, false
	}
	return c.pois[next], true
}

// All returns a copy of the ordered POI list.
func (c *Catalog) All() []types.POI {
	out := make([]types.POI, len(c.pois))
	copy(out, c.pois)
	return out
}
