package types

import (
	"time"

	"github.com/google/uuid"
)

type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
)

type MemberType string

const (
	MemberAdult MemberType = "adult"
	MemberChild MemberType = "child"
)

type FamilyMember struct {
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	MemberType MemberType `json:"member_type"`
}

// RouteStage is the family's position in the journey lifecycle. Transitions
// only move forward except for the pause stage, which is reversible.
type RouteStage string

const (
	StageNotStarted RouteStage = "not_started"
	StageInProgress RouteStage = "in_progress"
	StageAtPOI      RouteStage = "at_poi"
	StageCompleted  RouteStage = "completed"
	StagePaused     RouteStage = "paused"
)

// POIVisitRecord tracks one POI's lifetime award state for a family. The
// category flags are what make awards idempotent: once a flag is set the
// category can never pay out again for that POI.
type POIVisitRecord struct {
	POIID             string                       `json:"poi_id"`
	POIName           string                       `json:"poi_name,omitempty"`
	POIIndex          int                          `json:"poi_index"`
	VisitedAt         time.Time                    `json:"visited_at"`
	PointsEarned      int                          `json:"points_earned"`
	AwardedCategories map[AchievementCategory]bool `json:"points_awarded"`
}

func (r *POIVisitRecord) HasCategory(category AchievementCategory) bool {
	return r.AwardedCategories[category]
}

// ConversationExchange is one user turn paired with the agent's reply.
type ConversationExchange struct {
	UserMessage   string    `json:"user_message"`
	AgentResponse string    `json:"agent_response"`
	Speaker       string    `json:"speaker,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Family is the account-level record. The password hash never leaves the
// service layer.
type Family struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	HashedPassword    string         `json:"-"`
	PreferredLanguage Language       `json:"preferred_language"`
	Members           []FamilyMember `json:"members,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// FamilyProgress is the per-family journey aggregate. All gamification and
// route state hangs off this one struct so a message-processing cycle can
// load it, mutate it and save it as a unit.
type FamilyProgress struct {
	FamilyID           uuid.UUID              `json:"family_id"`
	FamilyName         string                 `json:"family_name,omitempty"`
	Members            []FamilyMember         `json:"members,omitempty"`
	PreferredLanguage  Language               `json:"preferred_language"`
	RouteStage         RouteStage             `json:"route_stage"`
	CurrentPOIIndex    int                    `json:"current_poi_index"`
	TotalPoints        int                    `json:"total_points"`
	VisitedPOIs        []*POIVisitRecord      `json:"visited_pois"`
	ConversationMemory []ConversationExchange `json:"conversation_memory,omitempty"`
	CurrentLocation    *Coordinates           `json:"current_location,omitempty"`
	CurrentSpeaker     string                 `json:"current_speaker,omitempty"`
	RouteStartedAt     *time.Time             `json:"route_started_at,omitempty"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// VisitRecord returns the record for poiID, or nil if the family has never
// earned anything there. POI id is the sole visit identity.
func (p *FamilyProgress) VisitRecord(poiID string) *POIVisitRecord {
	for _, record := range p.VisitedPOIs {
		if record.POIID == poiID {
			return record
		}
	}
	return nil
}

func (p *FamilyProgress) Adults() []FamilyMember {
	var out []FamilyMember
	for _, m := range p.Members {
		if m.MemberType == MemberAdult {
			out = append(out, m)
		}
	}
	return out
}

func (p *FamilyProgress) Children() []FamilyMember {
	var out []FamilyMember
	for _, m := range p.Members {
		if m.MemberType == MemberChild {
			out = append(out, m)
		}
	}
	return out
}

// AddressTerm picks how the guide collectively addresses the family, tuned
// to the youngest ages present.
func (p *FamilyProgress) AddressTerm() string {
	children := p.Children()
	english := p.PreferredLanguage == LanguageEnglish

	if len(children) == 0 {
		if english {
			return "travelers"
		}
		return "viajeros"
	}
	for _, c := range children {
		if c.Age <= 7 {
			if english {
				return "little adventurers"
			}
			return "pequeños aventureros"
		}
	}
	if english {
		return "explorers"
	}
	return "exploradores"
}
