package types

// Request/Response types for the chat and route API.

type ChatRequest struct {
	Message  string       `json:"message"`
	Speaker  string       `json:"speaker,omitempty"`
	Location *Coordinates `json:"location,omitempty"`
}

type ChatResponse struct {
	Message            string                `json:"message"`
	CelebrationMessage string                `json:"celebration_message,omitempty"`
	PointsAwarded      int                   `json:"points_awarded"`
	TotalPoints        int                   `json:"total_points"`
	Categories         []AchievementCategory `json:"categories_awarded,omitempty"`
	Arrival            *ArrivalCheck         `json:"arrival,omitempty"`
	RouteStage         RouteStage            `json:"route_stage"`
	CurrentPOIIndex    int                   `json:"current_poi_index"`
}

// ArrivalCheck is the geofence classification for one coordinate pair.
// Arrived is true iff the distance to the POI is within its radius,
// boundary inclusive.
type ArrivalCheck struct {
	Arrived        bool    `json:"arrived"`
	POIID          string  `json:"poi_id,omitempty"`
	POIName        string  `json:"poi_name,omitempty"`
	POIIndex       int     `json:"poi_index"`
	DistanceMeters float64 `json:"distance_meters"`
}

type ProgressSummary struct {
	FamilyID             string     `json:"family_id"`
	RouteStage           RouteStage `json:"route_stage"`
	CurrentPOIIndex      int        `json:"current_poi_index"`
	TotalPOIs            int        `json:"total_pois"`
	VisitedPOIs          int        `json:"visited_pois"`
	TotalPoints          int        `json:"total_points"`
	CompletionPercentage float64    `json:"completion_percentage"`
}

// NextPOISuggestion describes the upcoming stop. Distance and walking time
// are present only when the caller supplied a current location; Completed
// means there is no next stop.
type NextPOISuggestion struct {
	Completed          bool     `json:"completed"`
	POIID              string   `json:"poi_id,omitempty"`
	POIName            string   `json:"poi_name,omitempty"`
	POIIndex           int      `json:"poi_index,omitempty"`
	Address            string   `json:"address,omitempty"`
	Description        string   `json:"description,omitempty"`
	VisitDuration      int      `json:"visit_duration_minutes,omitempty"`
	DistanceMeters     *float64 `json:"distance_meters,omitempty"`
	WalkingTimeMinutes *float64 `json:"walking_time_minutes,omitempty"`
}

type RouteOverviewPOI struct {
	Name               string   `json:"name"`
	Order              int      `json:"order"`
	Address            string   `json:"address,omitempty"`
	Description        string   `json:"description,omitempty"`
	VisitDuration      int      `json:"visit_duration_minutes"`
	DistanceMeters     *float64 `json:"distance_meters,omitempty"`
	WalkingTimeMinutes *float64 `json:"walking_time_minutes,omitempty"`
}

type RouteOverview struct {
	TotalPOIs            int                `json:"total_pois"`
	TotalDistanceMeters  float64            `json:"total_distance_meters"`
	TotalVisitMinutes    int                `json:"total_visit_minutes"`
	EstimatedWalkMinutes float64            `json:"estimated_walk_minutes"`
	POIs                 []RouteOverviewPOI `json:"pois"`
}

// AdvanceResult reports an index advancement. Once the route is completed
// further calls are idempotent no-ops that keep returning Completed=true.
type AdvanceResult struct {
	Completed       bool   `json:"completed"`
	CurrentPOIIndex int    `json:"current_poi_index"`
	Message         string `json:"message,omitempty"`
}
