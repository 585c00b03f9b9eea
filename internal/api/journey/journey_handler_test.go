package journey

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-family-journey/app/middleware"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// MockJourneyService is a mock implementation of the Service interface
type MockJourneyService struct {
	mock.Mock
}

func (m *MockJourneyService) ProcessMessage(ctx context.Context, familyID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error) {
	args := m.Called(ctx, familyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ChatResponse), args.Error(1)
}

func (m *MockJourneyService) Progress(ctx context.Context, familyID uuid.UUID) (*types.ProgressSummary, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ProgressSummary), args.Error(1)
}

func (m *MockJourneyService) NextPOI(ctx context.Context, familyID uuid.UUID, current *types.Coordinates) (*types.NextPOISuggestion, error) {
	args := m.Called(ctx, familyID, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.NextPOISuggestion), args.Error(1)
}

func (m *MockJourneyService) Advance(ctx context.Context, familyID uuid.UUID) (*types.AdvanceResult, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AdvanceResult), args.Error(1)
}

func (m *MockJourneyService) Overview(ctx context.Context, current *types.Coordinates) (*types.RouteOverview, error) {
	args := m.Called(ctx, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RouteOverview), args.Error(1)
}

func (m *MockJourneyService) EndSession(ctx context.Context, familyID uuid.UUID) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

func authedRequest(t *testing.T, method, target string, familyID uuid.UUID, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), appMiddleware.FamilyIDKey, familyID.String())
	return req.WithContext(ctx)
}

func TestSendMessage_OK(t *testing.T) {
	familyID := uuid.New()
	mockSvc := new(MockJourneyService)
	mockSvc.On("ProcessMessage", mock.Anything, familyID, mock.Anything).Return(&types.ChatResponse{
		Message:       "¡Bienvenidos!",
		PointsAwarded: 100,
		TotalPoints:   100,
		RouteStage:    types.StageAtPOI,
	}, nil)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodPost, "/chat/message", familyID, types.ChatRequest{Message: "¡Hemos llegado!"})
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.PointsAwarded)
	assert.Equal(t, types.StageAtPOI, resp.RouteStage)
}

func TestSendMessage_Unauthenticated(t *testing.T) {
	h := NewHandlerImpl(new(MockJourneyService), testLogger())

	body, _ := json.Marshal(types.ChatRequest{Message: "hola"})
	req := httptest.NewRequest(http.MethodPost, "/chat/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessage_ValidationError(t *testing.T) {
	familyID := uuid.New()
	mockSvc := new(MockJourneyService)
	mockSvc.On("ProcessMessage", mock.Anything, familyID, mock.Anything).
		Return(nil, types.ErrValidation)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodPost, "/chat/message", familyID, types.ChatRequest{Message: ""})
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage_UnknownFamily(t *testing.T) {
	familyID := uuid.New()
	mockSvc := new(MockJourneyService)
	mockSvc.On("ProcessMessage", mock.Anything, familyID, mock.Anything).
		Return(nil, types.ErrNotFound)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodPost, "/chat/message", familyID, types.ChatRequest{Message: "hola"})
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNextPOI_ParsesLocation(t *testing.T) {
	familyID := uuid.New()
	distance := 111.2
	mockSvc := new(MockJourneyService)
	mockSvc.On("NextPOI", mock.Anything, familyID, &types.Coordinates{Latitude: 40.4184, Longitude: -3.7109}).
		Return(&types.NextPOISuggestion{POIID: "plaza_ramales", DistanceMeters: &distance}, nil)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodGet, "/routes/next?lat=40.4184&lng=-3.7109", familyID, nil)
	rec := httptest.NewRecorder()
	h.GetNextPOI(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockSvc.AssertExpectations(t)
}

func TestGetNextPOI_HalfLocationRejected(t *testing.T) {
	h := NewHandlerImpl(new(MockJourneyService), testLogger())

	req := authedRequest(t, http.MethodGet, "/routes/next?lat=40.4184", uuid.New(), nil)
	rec := httptest.NewRecorder()
	h.GetNextPOI(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceRoute_OK(t *testing.T) {
	familyID := uuid.New()
	mockSvc := new(MockJourneyService)
	mockSvc.On("Advance", mock.Anything, familyID).
		Return(&types.AdvanceResult{CurrentPOIIndex: 1}, nil)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodPost, "/routes/advance", familyID, nil)
	rec := httptest.NewRecorder()
	h.AdvanceRoute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result types.AdvanceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.CurrentPOIIndex)
}

func TestEndSession_NoContent(t *testing.T) {
	familyID := uuid.New()
	mockSvc := new(MockJourneyService)
	mockSvc.On("EndSession", mock.Anything, familyID).Return(nil)

	h := NewHandlerImpl(mockSvc, testLogger())

	req := authedRequest(t, http.MethodPost, "/chat/end-session", familyID, nil)
	rec := httptest.NewRecorder()
	h.EndSession(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
