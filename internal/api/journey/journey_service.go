package journey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-family-journey/app/observability/metrics"
	"github.com/FACorreiaa/go-family-journey/internal/api/dialogue"
	"github.com/FACorreiaa/go-family-journey/internal/api/evaluation"
	"github.com/FACorreiaa/go-family-journey/internal/api/geofence"
	"github.com/FACorreiaa/go-family-journey/internal/api/memory"
	"github.com/FACorreiaa/go-family-journey/internal/api/route"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the message-processing cycle and the route operations for a
// family. All aggregate mutation goes through here, serialized per family.
type Service interface {
	ProcessMessage(ctx context.Context, familyID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error)
	Progress(ctx context.Context, familyID uuid.UUID) (*types.ProgressSummary, error)
	NextPOI(ctx context.Context, familyID uuid.UUID, current *types.Coordinates) (*types.NextPOISuggestion, error)
	Advance(ctx context.Context, familyID uuid.UUID) (*types.AdvanceResult, error)
	Overview(ctx context.Context, current *types.Coordinates) (*types.RouteOverview, error)
	EndSession(ctx context.Context, familyID uuid.UUID) error
}

type ServiceImpl struct {
	logger      *slog.Logger
	store       *ProgressStore
	catalog     *route.Catalog
	detector    *geofence.Detector
	progression *route.Progression
	evaluator   *evaluation.Evaluator
	ledger      *evaluation.Ledger
	buffer      *memory.Buffer
	generator   dialogue.Generator

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewServiceImpl(
	store *ProgressStore,
	catalog *route.Catalog,
	detector *geofence.Detector,
	progression *route.Progression,
	evaluator *evaluation.Evaluator,
	ledger *evaluation.Ledger,
	buffer *memory.Buffer,
	generator dialogue.Generator,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		store:       store,
		catalog:     catalog,
		detector:    detector,
		progression: progression,
		evaluator:   evaluator,
		ledger:      ledger,
		buffer:      buffer,
		generator:   generator,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// familyLock serializes all access to a family's aggregate: the
// load-evaluate-commit cycle of a turn as well as the read paths, which see
// the same cached pointer. Different families proceed in parallel.
func (s *ServiceImpl) familyLock(familyID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[familyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[familyID] = lock
	}
	return lock
}

// ProcessMessage is the engine's single entry point for a conversation turn:
// load the aggregate, classify location, evaluate achievements against the
// previous turn's agent flags, apply awards, generate the reply, remember the
// exchange and persist. A failed save aborts the turn; a failed reply does
// not, the family still keeps its points.
func (s *ServiceImpl) ProcessMessage(ctx context.Context, familyID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error) {
	ctx, span := otel.Tracer("JourneyService").Start(ctx, "ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID.String()))
	l := s.logger.With(slog.String("method", "ProcessMessage"), slog.String("family_id", familyID.String()))

	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message must not be empty: %w", types.ErrValidation)
	}

	lock := s.familyLock(familyID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := s.store.Load(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load progress")
		return nil, err
	}

	now := time.Now()
	if req.Speaker != "" {
		progress.CurrentSpeaker = req.Speaker
	}

	arrival, err := s.classifyLocation(progress, req.Location, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid location")
		return nil, err
	}

	flags := dialogue.DeriveTurnFlags(s.lastAgentReply(progress))
	results := s.evaluator.Evaluate(progress, s.evaluationPOI(progress, arrival), req.Message, flags)
	outcome := s.ledger.Apply(progress, results, now)

	reply, err := s.generator.Generate(ctx, progress, req.Message, s.buffer.ForContext(progress.ConversationMemory, s.buffer.Cap()))
	if err != nil {
		l.WarnContext(ctx, "reply generation failed, using fallback", slog.Any("error", err))
		reply = dialogue.FallbackReply(progress.PreferredLanguage)
	}

	progress.ConversationMemory = s.buffer.Append(progress.ConversationMemory, types.ConversationExchange{
		UserMessage:   req.Message,
		AgentResponse: reply,
		Speaker:       req.Speaker,
		Timestamp:     now,
	})
	progress.UpdatedAt = now

	if err := s.store.Save(ctx, progress); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save progress")
		return nil, err
	}

	if outcome.PointsAwarded > 0 {
		l.InfoContext(ctx, "turn awarded points",
			slog.Int("points", outcome.PointsAwarded),
			slog.Int("total", progress.TotalPoints))
	}

	span.SetAttributes(attribute.Int("points.awarded", outcome.PointsAwarded))
	span.SetStatus(codes.Ok, "Message processed")
	return &types.ChatResponse{
		Message:            reply,
		CelebrationMessage: outcome.CelebrationMessage,
		PointsAwarded:      outcome.PointsAwarded,
		TotalPoints:        progress.TotalPoints,
		Categories:         outcome.Categories,
		Arrival:            arrival,
		RouteStage:         progress.RouteStage,
		CurrentPOIIndex:    progress.CurrentPOIIndex,
	}, nil
}

// classifyLocation validates a reported location, runs the geofence against
// the nearest route POI and applies the stage transitions a position update
// can cause. A nil location is fine, families can chat without sharing one.
func (s *ServiceImpl) classifyLocation(progress *types.FamilyProgress, location *types.Coordinates, now time.Time) (*types.ArrivalCheck, error) {
	if location == nil {
		return nil, nil
	}
	if err := location.Validate(); err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}

	progress.CurrentLocation = location
	if progress.RouteStage == types.StageNotStarted {
		progress.RouteStage = types.StageInProgress
		progress.RouteStartedAt = &now
	}

	nearest, _, ok := s.detector.Nearest(*location, s.catalog.All())
	if !ok {
		return nil, nil
	}
	check, err := s.detector.CheckArrival(*location, nearest)
	if err != nil {
		return nil, err
	}
	if check.Arrived {
		if current, cerr := s.catalog.POIAt(progress.CurrentPOIIndex); cerr == nil && current.ID == check.POIID {
			progress.RouteStage = types.StageAtPOI
		}
	}
	return &check, nil
}

// evaluationPOI picks which POI this turn's achievements attach to: the POI
// just arrived at, or the one the family is standing at mid-conversation.
func (s *ServiceImpl) evaluationPOI(progress *types.FamilyProgress, arrival *types.ArrivalCheck) string {
	if arrival != nil && arrival.Arrived {
		return arrival.POIID
	}
	if progress.RouteStage == types.StageAtPOI {
		if poi, err := s.catalog.POIAt(progress.CurrentPOIIndex); err == nil {
			return poi.ID
		}
	}
	return ""
}

func (s *ServiceImpl) lastAgentReply(progress *types.FamilyProgress) string {
	if len(progress.ConversationMemory) == 0 {
		return ""
	}
	return progress.ConversationMemory[len(progress.ConversationMemory)-1].AgentResponse
}

func (s *ServiceImpl) Progress(ctx context.Context, familyID uuid.UUID) (*types.ProgressSummary, error) {
	ctx, span := otel.Tracer("JourneyService").Start(ctx, "Progress")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID.String()))

	// Reads share the aggregate pointer with in-flight turns, so they hold
	// the same lock.
	lock := s.familyLock(familyID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := s.store.Load(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load progress")
		return nil, err
	}
	summary := s.progression.Summary(progress)
	span.SetStatus(codes.Ok, "Summary built")
	return &summary, nil
}

func (s *ServiceImpl) NextPOI(ctx context.Context, familyID uuid.UUID, current *types.Coordinates) (*types.NextPOISuggestion, error) {
	ctx, span := otel.Tracer("JourneyService").Start(ctx, "NextPOI")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID.String()))

	lock := s.familyLock(familyID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := s.store.Load(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load progress")
		return nil, err
	}
	suggestion, err := s.progression.SuggestNext(progress, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build suggestion")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Suggestion built")
	return &suggestion, nil
}

func (s *ServiceImpl) Advance(ctx context.Context, familyID uuid.UUID) (*types.AdvanceResult, error) {
	ctx, span := otel.Tracer("JourneyService").Start(ctx, "Advance")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID.String()))

	lock := s.familyLock(familyID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := s.store.Load(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load progress")
		return nil, err
	}
	stageBefore := progress.RouteStage
	result := s.progression.Advance(progress)
	progress.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, progress); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save progress")
		return nil, err
	}
	if result.Completed && stageBefore != types.StageCompleted {
		metrics.Get().RoutesCompletedTotal.Add(ctx, 1)
	}
	span.SetStatus(codes.Ok, "Advanced")
	return &result, nil
}

func (s *ServiceImpl) Overview(ctx context.Context, current *types.Coordinates) (*types.RouteOverview, error) {
	_, span := otel.Tracer("JourneyService").Start(ctx, "Overview")
	defer span.End()

	overview, err := s.progression.Overview(current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build overview")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Overview built")
	return &overview, nil
}

// EndSession drops the family's cached state. Durable progress is untouched,
// the next message reloads it from the database.
func (s *ServiceImpl) EndSession(ctx context.Context, familyID uuid.UUID) error {
	_, span := otel.Tracer("JourneyService").Start(ctx, "EndSession")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID.String()))

	s.store.Evict(familyID)
	span.SetStatus(codes.Ok, "Session ended")
	return nil
}
