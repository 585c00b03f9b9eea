package family

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-family-journey/app/middleware"
	"github.com/FACorreiaa/go-family-journey/internal/api"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	GetFamily(w http.ResponseWriter, r *http.Request)
	UpdateFamily(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	familyService Service
	logger        *slog.Logger
}

func NewHandlerImpl(familyService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		familyService: familyService,
		logger:        logger,
	}
}

func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/register"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterFamilyRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.familyService.Register(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "registration failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Family registered")
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/login"),
	))
	defer span.End()

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.familyService.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Login succeeded")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) GetFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "GetFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/family"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	family, err := h.familyService.GetFamily(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load family")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Family loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, family)
}

func (h *HandlerImpl) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "UpdateFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/family"),
	))
	defer span.End()

	familyID, ok := h.familyID(ctx, w, r)
	if !ok {
		return
	}

	var req types.UpdateFamilyRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	family, err := h.familyService.UpdateFamily(ctx, familyID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update family")
		h.writeServiceError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Family updated")
	api.WriteJSONResponse(w, r, http.StatusOK, family)
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
	case errors.Is(err, types.ErrUnauthenticated):
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Family not found")
	case errors.Is(err, types.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
