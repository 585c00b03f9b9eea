package route

import (
	"log/slog"

	"github.com/FACorreiaa/go-family-journey/internal/api/geofence"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// DefaultWalkingSpeedKmh is the fixed average speed used for walking-time
// estimates between stops.
const DefaultWalkingSpeedKmh = 4.0

// Progression drives index advancement, completion detection and next-POI
// suggestion over a family's progress.
type Progression struct {
	logger          *slog.Logger
	catalog         *Catalog
	detector        *geofence.Detector
	walkingSpeedKmh float64
}

func NewProgression(catalog *Catalog, detector *geofence.Detector, walkingSpeedKmh float64, logger *slog.Logger) *Progression {
	if walkingSpeedKmh <= 0 {
		walkingSpeedKmh = DefaultWalkingSpeedKmh
	}
	return &Progression{
		logger:          logger,
		catalog:         catalog,
		detector:        detector,
		walkingSpeedKmh: walkingSpeedKmh,
	}
}

func (p *Progression) Catalog() *Catalog {
	return p.catalog
}

// Advance moves the family to the next stop, or to COMPLETED when the
// current stop was the last one. Repeated calls after completion are
// idempotent no-ops.
func (p *Progression) Advance(progress *types.FamilyProgress) types.AdvanceResult {
	if progress.RouteStage == types.StageCompleted {
		return types.AdvanceResult{
			Completed:       true,
			CurrentPOIIndex: progress.CurrentPOIIndex,
			Message:         completionMessage(progress.PreferredLanguage),
		}
	}

	if progress.CurrentPOIIndex+1 < p.catalog.Length() {
		progress.CurrentPOIIndex++
		progress.RouteStage = types.StageAtPOI
		p.logger.Debug("advanced to next POI",
			slog.String("family_id", progress.FamilyID.String()),
			slog.Int("poi_index", progress.CurrentPOIIndex))
		return types.AdvanceResult{CurrentPOIIndex: progress.CurrentPOIIndex}
	}

	progress.RouteStage = types.StageCompleted
	p.logger.Info("route completed", slog.String("family_id", progress.FamilyID.String()))
	return types.AdvanceResult{
		Completed:       true,
		CurrentPOIIndex: progress.CurrentPOIIndex,
		Message:         completionMessage(progress.PreferredLanguage),
	}
}

// SuggestNext describes the family's current target stop. When a location is
// supplied, the straight-line distance and an estimated walking time at the
// configured average speed are included, independent of actual arrival.
func (p *Progression) SuggestNext(progress *types.FamilyProgress, current *types.Coordinates) (types.NextPOISuggestion, error) {
	poi, err := p.catalog.POIAt(progress.CurrentPOIIndex)
	if err != nil {
		// Past the last stop: the route is done.
		return types.NextPOISuggestion{Completed: true}, nil
	}

	suggestion := types.NextPOISuggestion{
		POIID:         poi.ID,
		POIName:       poi.Name,
		POIIndex:      poi.Order,
		Address:       poi.Address,
		Description:   poi.Description,
		VisitDuration: poi.VisitDurationMinutes,
	}

	if current != nil {
		if err := current.Validate(); err != nil {
			return types.NextPOISuggestion{}, err
		}
		distance := p.detector.DistanceMeters(*current, poi.Coordinates)
		walking := p.walkingTimeMinutes(distance)
		suggestion.DistanceMeters = &distance
		suggestion.WalkingTimeMinutes = &walking
	}

	return suggestion, nil
}

// CompletionPercentage is visited stops over total stops, capped at 100.
func (p *Progression) CompletionPercentage(progress *types.FamilyProgress) float64 {
	pct := float64(len(progress.VisitedPOIs)) / float64(p.catalog.Length()) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (p *Progression) Summary(progress *types.FamilyProgress) types.ProgressSummary {
	return types.ProgressSummary{
		FamilyID:             progress.FamilyID.String(),
		RouteStage:           progress.RouteStage,
		CurrentPOIIndex:      progress.CurrentPOIIndex,
		TotalPOIs:            p.catalog.Length(),
		VisitedPOIs:          len(progress.VisitedPOIs),
		TotalPoints:          progress.TotalPoints,
		CompletionPercentage: p.CompletionPercentage(progress),
	}
}

// Overview lists the whole route with leg-by-leg totals. Per-POI distances
// from the caller's location are included when one is supplied.
func (p *Progression) Overview(current *types.Coordinates) (types.RouteOverview, error) {
	if current != nil {
		if err := current.Validate(); err != nil {
			return types.RouteOverview{}, err
		}
	}

	pois := p.catalog.All()
	overview := types.RouteOverview{
		TotalPOIs: len(pois),
		POIs:      make([]types.RouteOverviewPOI, 0, len(pois)),
	}

	for i, poi := range pois {
		if i > 0 {
			overview.TotalDistanceMeters += p.detector.DistanceMeters(pois[i-1].Coordinates, poi.Coordinates)
		}
		overview.TotalVisitMinutes += poi.VisitDurationMinutes

		entry := types.RouteOverviewPOI{
			Name:          poi.Name,
			Order:         poi.Order + 1,
			Address:       poi.Address,
			Description:   poi.Description,
			VisitDuration: poi.VisitDurationMinutes,
		}
		if current != nil {
			distance := p.detector.DistanceMeters(*current, poi.Coordinates)
			walking := p.walkingTimeMinutes(distance)
			entry.DistanceMeters = &distance
			entry.WalkingTimeMinutes = &walking
		}
		overview.POIs = append(overview.POIs, entry)
	}

	overview.EstimatedWalkMinutes = p.walkingTimeMinutes(overview.TotalDistanceMeters)
	return overview, nil
}

func (p *Progression) walkingTimeMinutes(distanceMeters float64) float64 {
	metersPerMinute := p.walkingSpeedKmh * 1000 / 60
	return distanceMeters / metersPerMinute
}

func completionMessage(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "You've completed the whole route! You're true explorers!"
	}
	return "¡Habéis completado toda la ruta! ¡Sois unos verdaderos exploradores!"
}
