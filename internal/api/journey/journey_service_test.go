package journey

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-journey/internal/api/dialogue"
	"github.com/FACorreiaa/go-family-journey/internal/api/evaluation"
	"github.com/FACorreiaa/go-family-journey/internal/api/geofence"
	"github.com/FACorreiaa/go-family-journey/internal/api/memory"
	"github.com/FACorreiaa/go-family-journey/internal/api/route"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// MockJourneyRepo is a mock implementation of the Repository interface
type MockJourneyRepo struct {
	mock.Mock
}

func (m *MockJourneyRepo) GetProgress(ctx context.Context, familyID uuid.UUID) (*types.FamilyProgress, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FamilyProgress), args.Error(1)
}

func (m *MockJourneyRepo) SaveProgress(ctx context.Context, progress *types.FamilyProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

// MockGenerator is a mock implementation of the dialogue.Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, progress *types.FamilyProgress, userMessage string, history []memory.ContextMessage) (string, error) {
	args := m.Called(ctx, progress, userMessage, history)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCatalog(t *testing.T) *route.Catalog {
	t.Helper()
	catalog, err := route.NewCatalog([]types.POI{
		{
			ID:          "plaza_oriente",
			Name:        "Plaza de Oriente",
			Coordinates: types.Coordinates{Latitude: 40.4184, Longitude: -3.7109},
			Order:       0,
		},
		{
			ID:          "plaza_ramales",
			Name:        "Plaza de Ramales",
			Coordinates: types.Coordinates{Latitude: 40.4172, Longitude: -3.7115},
			Order:       1,
		},
		{
			ID:          "calle_vergara",
			Name:        "Calle de Vergara",
			Coordinates: types.Coordinates{Latitude: 40.4168, Longitude: -3.7103},
			Order:       2,
		},
	}, 0)
	require.NoError(t, err)
	return catalog
}

func newTestService(t *testing.T, repo Repository, generator dialogue.Generator) *ServiceImpl {
	t.Helper()
	logger := testLogger()
	catalog := testCatalog(t)
	detector := geofence.NewDetector()
	return NewServiceImpl(
		NewProgressStore(repo, time.Minute, logger),
		catalog,
		detector,
		route.NewProgression(catalog, detector, route.DefaultWalkingSpeedKmh, logger),
		evaluation.NewEvaluator(catalog, evaluation.NewKeywordClassifier(), evaluation.Config{}, logger),
		evaluation.NewLedger(logger),
		memory.NewBuffer(memory.DefaultCap),
		generator,
		logger,
	)
}

func freshProgress(familyID uuid.UUID) *types.FamilyProgress {
	return &types.FamilyProgress{
		FamilyID:          familyID,
		FamilyName:        "García",
		PreferredLanguage: types.LanguageSpanish,
		RouteStage:        types.StageNotStarted,
		Members: []types.FamilyMember{
			{Name: "Lucía", Age: 7, MemberType: types.MemberChild},
			{Name: "Marta", Age: 41, MemberType: types.MemberAdult},
		},
	}
}

func TestProcessMessage_ArrivalAwardsOnce(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(freshProgress(familyID), nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("¡Bienvenidos a la Plaza de Oriente!", nil)

	svc := newTestService(t, mockRepo, mockGen)

	req := types.ChatRequest{
		Message:  "¡Hemos llegado!",
		Speaker:  "Lucía",
		Location: &types.Coordinates{Latitude: 40.4184, Longitude: -3.7109},
	}
	resp, err := svc.ProcessMessage(context.Background(), familyID, req)
	require.NoError(t, err)

	assert.Equal(t, 100, resp.PointsAwarded)
	assert.Equal(t, 100, resp.TotalPoints)
	assert.Contains(t, resp.CelebrationMessage, "Plaza de Oriente")
	require.NotNil(t, resp.Arrival)
	assert.True(t, resp.Arrival.Arrived)
	assert.Equal(t, "plaza_oriente", resp.Arrival.POIID)
	assert.Equal(t, types.StageAtPOI, resp.RouteStage)

	// Same arrival reported again: no further arrival points.
	resp, err = svc.ProcessMessage(context.Background(), familyID, req)
	require.NoError(t, err)
	assert.Zero(t, resp.PointsAwarded)
	assert.Equal(t, 100, resp.TotalPoints)

	mockRepo.AssertExpectations(t)
}

func TestProcessMessage_EngagementAfterStory(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	progress.RouteStage = types.StageAtPOI
	progress.VisitedPOIs = []*types.POIVisitRecord{{
		POIID:             "plaza_oriente",
		PointsEarned:      100,
		AwardedCategories: map[types.AchievementCategory]bool{types.CategoryArrival: true},
	}}
	progress.TotalPoints = 100
	progress.ConversationMemory = []types.ConversationExchange{{
		UserMessage:   "cuéntanos algo",
		AgentResponse: "Os voy a contar la historia de este lugar. Había una vez...",
	}}

	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("¡Me alegra que os guste!", nil)

	svc := newTestService(t, mockRepo, mockGen)

	resp, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{Message: "¡Qué fascinante historia!"})
	require.NoError(t, err)
	assert.Equal(t, 75, resp.PointsAwarded)
	assert.Equal(t, 175, resp.TotalPoints)

	// The follow-up reply carries no story marker, so repeating the message
	// earns nothing more.
	resp, err = svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{Message: "¡Qué fascinante historia!"})
	require.NoError(t, err)
	assert.Zero(t, resp.PointsAwarded)
	assert.Equal(t, 175, resp.TotalPoints)
}

func TestProcessMessage_EmptyMessageRejected(t *testing.T) {
	svc := newTestService(t, new(MockJourneyRepo), new(MockGenerator))

	_, err := svc.ProcessMessage(context.Background(), uuid.New(), types.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestProcessMessage_UnknownFamily(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(nil, types.ErrNotFound)

	svc := newTestService(t, mockRepo, new(MockGenerator))

	_, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{Message: "hola"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProcessMessage_InvalidLocationRejected(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(freshProgress(familyID), nil)

	svc := newTestService(t, mockRepo, new(MockGenerator))

	_, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{
		Message:  "hola",
		Location: &types.Coordinates{Latitude: 91, Longitude: 0},
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestProcessMessage_SaveFailureAbortsTurn(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(freshProgress(familyID), nil)
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(errors.New("connection lost"))

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("hola", nil)

	svc := newTestService(t, mockRepo, mockGen)

	_, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{Message: "hola"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save family progress")
}

func TestProcessMessage_GeneratorFailureFallsBack(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(freshProgress(familyID), nil)
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model unavailable"))

	svc := newTestService(t, mockRepo, mockGen)

	resp, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{
		Message:  "¡Hemos llegado!",
		Location: &types.Coordinates{Latitude: 40.4184, Longitude: -3.7109},
	})
	require.NoError(t, err)

	// Points survive a broken reply.
	assert.Equal(t, 100, resp.PointsAwarded)
	assert.Equal(t, dialogue.FallbackReply(types.LanguageSpanish), resp.Message)
}

func TestProcessMessage_ArrivalAtLaterStopRecordsItsPosition(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("¡Habéis llegado a Calle de Vergara!", nil)

	svc := newTestService(t, mockRepo, mockGen)

	// The family is still officially at the first stop but shows up at the
	// third. The visit record must carry the third stop's route position.
	resp, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{
		Message:  "¡Hemos llegado!",
		Location: &types.Coordinates{Latitude: 40.4168, Longitude: -3.7103},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Arrival)
	assert.True(t, resp.Arrival.Arrived)
	assert.Equal(t, "calle_vergara", resp.Arrival.POIID)
	assert.Equal(t, 0, progress.CurrentPOIIndex)

	require.Len(t, progress.VisitedPOIs, 1)
	assert.Equal(t, "calle_vergara", progress.VisitedPOIs[0].POIID)
	assert.Equal(t, 2, progress.VisitedPOIs[0].POIIndex)
}

func TestProcessMessage_ConcurrentReadsAndWrites(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("vale", nil)

	svc := newTestService(t, mockRepo, mockGen)

	// Turns and reads share the cached aggregate pointer; run them together
	// under the race detector.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{
				Message:  "hola ratoncito",
				Location: &types.Coordinates{Latitude: 40.4184, Longitude: -3.7109},
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Progress(context.Background(), familyID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The arrival still pays out exactly once.
	assert.Equal(t, 100, progress.TotalPoints)
	assert.Len(t, progress.ConversationMemory, memory.DefaultCap)
}

func TestProcessMessage_MemoryStaysBounded(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	mockGen := new(MockGenerator)
	mockGen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("vale", nil)

	svc := newTestService(t, mockRepo, mockGen)

	for i := 0; i < 15; i++ {
		_, err := svc.ProcessMessage(context.Background(), familyID, types.ChatRequest{Message: "hola ratoncito"})
		require.NoError(t, err)
	}
	assert.Len(t, progress.ConversationMemory, memory.DefaultCap)
}

func TestAdvance_PersistsNewIndex(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	progress.RouteStage = types.StageAtPOI

	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil).Once()
	mockRepo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, mockRepo, new(MockGenerator))

	result, err := svc.Advance(context.Background(), familyID)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.CurrentPOIIndex)

	// Walk the rest of the route.
	result, err = svc.Advance(context.Background(), familyID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CurrentPOIIndex)

	result, err = svc.Advance(context.Background(), familyID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.NotEmpty(t, result.Message)

	mockRepo.AssertNumberOfCalls(t, "SaveProgress", 3)
}

func TestEndSession_EvictsCache(t *testing.T) {
	familyID := uuid.New()
	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(freshProgress(familyID), nil).Twice()

	svc := newTestService(t, mockRepo, new(MockGenerator))

	_, err := svc.Progress(context.Background(), familyID)
	require.NoError(t, err)

	// Cached: no second repository hit.
	_, err = svc.Progress(context.Background(), familyID)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "GetProgress", 1)

	require.NoError(t, svc.EndSession(context.Background(), familyID))

	_, err = svc.Progress(context.Background(), familyID)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "GetProgress", 2)
}

func TestProgress_Summary(t *testing.T) {
	familyID := uuid.New()
	progress := freshProgress(familyID)
	progress.RouteStage = types.StageInProgress
	progress.TotalPoints = 175
	progress.VisitedPOIs = []*types.POIVisitRecord{{POIID: "plaza_oriente", PointsEarned: 175}}

	mockRepo := new(MockJourneyRepo)
	mockRepo.On("GetProgress", mock.Anything, familyID).Return(progress, nil)

	svc := newTestService(t, mockRepo, new(MockGenerator))

	summary, err := svc.Progress(context.Background(), familyID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPOIs)
	assert.Equal(t, 1, summary.VisitedPOIs)
	assert.Equal(t, 175, summary.TotalPoints)
	assert.InDelta(t, 33.3, summary.CompletionPercentage, 0.1)
}

func TestOverview_NoFamilyStateNeeded(t *testing.T) {
	svc := newTestService(t, new(MockJourneyRepo), new(MockGenerator))

	overview, err := svc.Overview(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, overview.TotalPOIs)
	assert.Len(t, overview.POIs, 3)
}
