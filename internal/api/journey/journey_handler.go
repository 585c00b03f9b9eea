package journey

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-family-journey/app/middleware"
	"github.com/FACorreiaa/go-family-journey/app/observability/metrics"
	"github.com/FACorreiaa/go-family-journey/internal/api"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SendMessage(w http.ResponseWriter, r *http.Request)
	EndSession(w http.ResponseWriter, r *http.Request)
	GetProgress(w http.ResponseWriter, r *http.Request)
	GetNextPOI(w http.ResponseWriter, r *http.Request)
	AdvanceRoute(w http.ResponseWriter, r *http.Request)
	GetRouteOverview(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	journeyService Service
	logger         *slog.Logger
}

func NewHandlerImpl(journeyService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		journeyService: journeyService,
		logger:         logger,
	}
}

func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/message"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SendMessage"))
	start := time.Now()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("family.id", familyID.String()))

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.journeyService.ProcessMessage(ctx, familyID, req)
	if err != nil {
		l.ErrorContext(ctx, "failed to process message", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to process message")
		h.writeServiceError(w, r, err)
		return
	}

	m := metrics.Get()
	m.ChatMessagesTotal.Add(ctx, 1)
	m.ChatDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if resp.PointsAwarded > 0 {
		m.PointsAwardedTotal.Add(ctx, int64(resp.PointsAwarded))
	}
	if resp.Arrival != nil && resp.Arrival.Arrived {
		m.ArrivalsDetectedTotal.Add(ctx, 1)
	}

	span.SetStatus(codes.Ok, "Message processed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "EndSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/end-session"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	if err := h.journeyService.EndSession(ctx, familyID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to end session")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Session ended")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "GetProgress", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/progress"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	summary, err := h.journeyService.Progress(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load progress")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Progress loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, summary)
}

func (h *HandlerImpl) GetNextPOI(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "GetNextPOI", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/next"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	location, err := parseLocationQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	suggestion, err := h.journeyService.NextPOI(ctx, familyID, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build suggestion")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Suggestion built")
	api.WriteJSONResponse(w, r, http.StatusOK, suggestion)
}

func (h *HandlerImpl) AdvanceRoute(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "AdvanceRoute", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/advance"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	result, err := h.journeyService.Advance(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to advance route")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Route advanced")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *HandlerImpl) GetRouteOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("JourneyHandler").Start(r.Context(), "GetRouteOverview", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/overview"),
	))
	defer span.End()

	location, err := parseLocationQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := h.journeyService.Overview(ctx, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build overview")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Overview built")
	api.WriteJSONResponse(w, r, http.StatusOK, overview)
}

func (h *HandlerImpl) familyID(ctx context.Context, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	familyIDStr, ok := appMiddleware.GetFamilyIDFromContext(ctx)
	if !ok || familyIDStr == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	familyID, err := uuid.Parse(familyIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid family ID format")
		return uuid.Nil, false
	}
	return familyID, true
}

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Family not found")
	case errors.Is(err, types.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// parseLocationQuery reads optional lat/lng query parameters. Both absent is
// fine; only one of the pair is a client error.
func parseLocationQuery(r *http.Request) (*types.Coordinates, error) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errors.New("both lat and lng query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.New("lng must be a number")
	}
	location := &types.Coordinates{Latitude: lat, Longitude: lng}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	return location, nil
}
