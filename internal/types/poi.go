package types

import (
	"fmt"
	"math"
)

type Coordinates struct {
	Latitude  float64 `json:"lat" mapstructure:"lat"`
	Longitude float64 `json:"lng" mapstructure:"lng"`
}

// Validate rejects non-finite and out-of-range coordinates before any
// distance computation runs.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("coordinates must be finite: %w", ErrValidation)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", c.Latitude, ErrValidation)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", c.Longitude, ErrValidation)
	}
	return nil
}

// POI is one stop in the fixed tour sequence. Loaded once from configuration
// at startup, never mutated at runtime.
type POI struct {
	ID                   string      `json:"id" mapstructure:"id"`
	Name                 string      `json:"name" mapstructure:"name"`
	Coordinates          Coordinates `json:"coordinates" mapstructure:"coordinates"`
	Address              string      `json:"address,omitempty" mapstructure:"address"`
	Description          string      `json:"description,omitempty" mapstructure:"description"`
	ArrivalRadiusMeters  float64     `json:"arrival_radius_meters" mapstructure:"arrivalRadiusMeters"`
	VisitDurationMinutes int         `json:"visit_duration_minutes" mapstructure:"visitDurationMinutes"`
	ArrivalPoints        int         `json:"arrival_points,omitempty" mapstructure:"arrivalPoints"`
	Order                int         `json:"order" mapstructure:"order"`
}
