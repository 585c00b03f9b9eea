package evaluation

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// Milestone thresholds for bonus celebration lines (no extra points).
const (
	milestoneExplorer = 500
	milestoneMaster   = 1000
)

// Ledger applies evaluation results to a family's progress, atomically per
// message-processing call. For any (poiID, category) pair at most one award
// is ever applied across the POI's lifetime, no matter how often the
// triggering condition recurs.
type Ledger struct {
	logger *slog.Logger
}

func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Apply commits each earned result: creates the visit record on first
// contact with a POI, marks the category awarded, and adds the points to
// both the record and the aggregate total. Results whose category is already
// marked are dropped silently.
func (l *Ledger) Apply(progress *types.FamilyProgress, results []types.EvaluationResult, now time.Time) types.AwardOutcome {
	var outcome types.AwardOutcome
	var messages []string

	before := progress.TotalPoints

	for _, result := range results {
		record := progress.VisitRecord(result.POIID)
		if record == nil {
			record = &types.POIVisitRecord{
				POIID:             result.POIID,
				POIName:           result.POIName,
				POIIndex:          result.POIIndex,
				VisitedAt:         now,
				AwardedCategories: make(map[types.AchievementCategory]bool),
			}
			progress.VisitedPOIs = append(progress.VisitedPOIs, record)
		}
		if record.AwardedCategories == nil {
			record.AwardedCategories = make(map[types.AchievementCategory]bool)
		}
		if record.HasCategory(result.Category) {
			continue
		}

		record.AwardedCategories[result.Category] = true
		record.PointsEarned += result.Points
		progress.TotalPoints += result.Points

		outcome.PointsAwarded += result.Points
		outcome.Categories = append(outcome.Categories, result.Category)
		if result.CelebrationMessage != "" {
			messages = append(messages, result.CelebrationMessage)
		}

		l.logger.Info("points awarded",
			slog.String("family_id", progress.FamilyID.String()),
			slog.String("poi_id", result.POIID),
			slog.String("category", string(result.Category)),
			slog.Int("points", result.Points))
	}

	if outcome.PointsAwarded > 0 {
		messages = append(messages, pointsSummary(outcome.PointsAwarded, progress.PreferredLanguage))
		if bonus := milestoneMessage(before, progress.TotalPoints, progress.PreferredLanguage); bonus != "" {
			messages = append(messages, bonus)
		}
	}

	outcome.CelebrationMessage = strings.Join(messages, "\n\n")
	return outcome
}

// pointsSummary reports the points of this turn only, not the running total.
func pointsSummary(points int, lang types.Language) string {
	if lang == types.LanguageEnglish {
		return fmt.Sprintf("You've earned %d magical points!", points)
	}
	return fmt.Sprintf("¡Habéis ganado %d puntos mágicos!", points)
}

// milestoneMessage fires once, on the turn the family's total crosses a
// threshold.
func milestoneMessage(before, after int, lang types.Language) string {
	switch {
	case before < milestoneMaster && after >= milestoneMaster:
		if lang == types.LanguageEnglish {
			return "You're point masters! Over 1000 magical points!"
		}
		return "¡Sois maestros de los puntos! ¡Más de 1000 puntos mágicos!"
	case before < milestoneExplorer && after >= milestoneExplorer:
		if lang == types.LanguageEnglish {
			return "Great explorers! You've passed 500 points!"
		}
		return "¡Grandes exploradores! ¡Habéis superado los 500 puntos!"
	}
	return ""
}
