package types

// AchievementCategory is a class of point-earning event, awarded at most
// once per POI over the POI's lifetime.
type AchievementCategory string

const (
	CategoryArrival    AchievementCategory = "arrival"
	CategoryEngagement AchievementCategory = "engagement"
	CategoryQuestion   AchievementCategory = "question"
)

// TurnFlags carries signals determined by the dialogue collaborator for the
// current turn, derived from the agent's own output.
type TurnFlags struct {
	AgentAskedQuestion bool `json:"agent_asked_question"`
	AgentToldStory     bool `json:"agent_told_story"`
}

// EvaluationResult is one rule firing. An empty result slice is the normal
// "nothing happened" outcome, never an error.
type EvaluationResult struct {
	Category           AchievementCategory `json:"category"`
	POIID              string              `json:"poi_id"`
	POIName            string              `json:"poi_name,omitempty"`
	POIIndex           int                 `json:"poi_index"`
	Points             int                 `json:"points"`
	CelebrationMessage string              `json:"celebration_message"`
}

// AwardOutcome is what the ledger reports back after applying a turn's
// evaluation results.
type AwardOutcome struct {
	PointsAwarded      int                   `json:"points_awarded"`
	Categories         []AchievementCategory `json:"categories,omitempty"`
	CelebrationMessage string                `json:"celebration_message,omitempty"`
}
