package evaluation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-family-journey/internal/api/route"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// Default per-category point values: 100 arrival + 75 engagement +
// 100 question, at most 275 per POI.
const (
	DefaultArrivalPoints    = 100
	DefaultEngagementPoints = 75
	DefaultQuestionPoints   = 100
)

// minParticipationLength is the trimmed length a reply must exceed to count
// as question participation.
const minParticipationLength = 2

type Config struct {
	ArrivalPoints    int
	EngagementPoints int
	QuestionPoints   int
}

func (c Config) withDefaults() Config {
	if c.ArrivalPoints <= 0 {
		c.ArrivalPoints = DefaultArrivalPoints
	}
	if c.EngagementPoints <= 0 {
		c.EngagementPoints = DefaultEngagementPoints
	}
	if c.QuestionPoints <= 0 {
		c.QuestionPoints = DefaultQuestionPoints
	}
	return c
}

// Evaluator runs the achievement rules for one turn. It holds no mutable
// state of its own: everything it needs comes from the family's progress,
// the catalog and the turn's inputs. The rules are additive, not mutually
// exclusive, and each one re-checks the ledger flags so it never fires twice
// for the same POI and category.
type Evaluator struct {
	logger     *slog.Logger
	catalog    *route.Catalog
	classifier Classifier
	cfg        Config
}

func NewEvaluator(catalog *route.Catalog, classifier Classifier, cfg Config, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		logger:     logger,
		catalog:    catalog,
		classifier: classifier,
		cfg:        cfg.withDefaults(),
	}
}

// Evaluate runs every applicable rule and returns the earned results.
// An empty slice is the normal "nothing happened" outcome. Unknown POI ids
// and out-of-bounds indexes yield no achievement rather than an error.
func (e *Evaluator) Evaluate(progress *types.FamilyProgress, poiID string, userMessage string, flags types.TurnFlags) []types.EvaluationResult {
	var results []types.EvaluationResult

	if poiID != "" {
		if result, ok := e.evaluateLocationVisit(progress, poiID); ok {
			results = append(results, result)
		}

		if flags.AgentToldStory {
			if result, ok := e.evaluateStoryEngagement(progress, poiID, userMessage); ok {
				results = append(results, result)
			}
		}

		if flags.AgentAskedQuestion {
			if result, ok := e.evaluateQuestionParticipation(progress, poiID, userMessage); ok {
				results = append(results, result)
			}
		}
	}

	if len(results) > 0 {
		e.logger.Debug("achievements earned",
			slog.String("family_id", progress.FamilyID.String()),
			slog.String("poi_id", poiID),
			slog.Int("count", len(results)))
	}
	return results
}

// EvaluateAtIndex resolves a catalog index to its POI id before evaluating.
// Out-of-bounds indexes yield no achievement.
func (e *Evaluator) EvaluateAtIndex(progress *types.FamilyProgress, poiIndex int, userMessage string, flags types.TurnFlags) []types.EvaluationResult {
	poi, err := e.catalog.POIAt(poiIndex)
	if err != nil {
		return nil
	}
	return e.Evaluate(progress, poi.ID, userMessage, flags)
}

func (e *Evaluator) evaluateLocationVisit(progress *types.FamilyProgress, poiID string) (types.EvaluationResult, bool) {
	poi, err := e.catalog.POIByID(poiID)
	if err != nil {
		return types.EvaluationResult{}, false
	}

	if record := progress.VisitRecord(poiID); record != nil && record.HasCategory(types.CategoryArrival) {
		return types.EvaluationResult{}, false
	}

	points := poi.ArrivalPoints
	if points <= 0 {
		points = e.cfg.ArrivalPoints
	}

	return types.EvaluationResult{
		Category:           types.CategoryArrival,
		POIID:              poi.ID,
		POIName:            poi.Name,
		POIIndex:           poi.Order,
		Points:             points,
		CelebrationMessage: arrivalMessage(poi.Name, progress.PreferredLanguage),
	}, true
}

func (e *Evaluator) evaluateStoryEngagement(progress *types.FamilyProgress, poiID, userMessage string) (types.EvaluationResult, bool) {
	if record := progress.VisitRecord(poiID); record != nil && record.HasCategory(types.CategoryEngagement) {
		return types.EvaluationResult{}, false
	}

	if e.classifier.Classify(userMessage, progress.PreferredLanguage) != CategoryEngaged {
		return types.EvaluationResult{}, false
	}

	poiName := ""
	poiIndex := 0
	if poi, err := e.catalog.POIByID(poiID); err == nil {
		poiName = poi.Name
		poiIndex = poi.Order
	}

	return types.EvaluationResult{
		Category:           types.CategoryEngagement,
		POIID:              poiID,
		POIName:            poiName,
		POIIndex:           poiIndex,
		Points:             e.cfg.EngagementPoints,
		CelebrationMessage: engagementMessage(progress.PreferredLanguage),
	}, true
}

func (e *Evaluator) evaluateQuestionParticipation(progress *types.FamilyProgress, poiID, userMessage string) (types.EvaluationResult, bool) {
	if record := progress.VisitRecord(poiID); record != nil && record.HasCategory(types.CategoryQuestion) {
		return types.EvaluationResult{}, false
	}

	if e.classifier.Classify(userMessage, progress.PreferredLanguage) == CategoryRejection {
		return types.EvaluationResult{}, false
	}
	if len(strings.TrimSpace(userMessage)) <= minParticipationLength {
		return types.EvaluationResult{}, false
	}

	poiName := ""
	poiIndex := 0
	if poi, err := e.catalog.POIByID(poiID); err == nil {
		poiName = poi.Name
		poiIndex = poi.Order
	}

	return types.EvaluationResult{
		Category:           types.CategoryQuestion,
		POIID:              poiID,
		POIName:            poiName,
		POIIndex:           poiIndex,
		Points:             e.cfg.QuestionPoints,
		CelebrationMessage: questionMessage(progress.PreferredLanguage),
	}, true
}

func arrivalMessage(poiName string, lang types.Language) string {
	if lang == types.LanguageEnglish {
		return fmt.Sprintf("Fantastic! You've discovered %s. What adventurers you are!", poiName)
	}
	return fmt.Sprintf("¡Fantástico! Habéis descubierto %s. ¡Qué aventureros sois!", poiName)
}

func engagementMessage(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "I love your curiosity! You're natural explorers."
	}
	return "¡Me encanta vuestra curiosidad! Sois unos exploradores natos."
}

func questionMessage(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "Excellent participation! Each answer brings you closer to completing your adventure."
	}
	return "¡Excelente participación! Cada respuesta os acerca más a completar vuestra aventura."
}
