package journey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-journey/internal/api"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists the per-family journey aggregate. GetProgress returns
// types.ErrNotFound for unknown families rather than fabricating defaults.
type Repository interface {
	GetProgress(ctx context.Context, familyID uuid.UUID) (*types.FamilyProgress, error)
	SaveProgress(ctx context.Context, progress *types.FamilyProgress) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewRepositoryImpl(pgxpool api.PGXPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *RepositoryImpl) GetProgress(ctx context.Context, familyID uuid.UUID) (*types.FamilyProgress, error) {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "GetProgress", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()

	familyQuery := `
        SELECT f.name, f.preferred_language
        FROM families f
        WHERE f.id = $1
    `
	progress := &types.FamilyProgress{FamilyID: familyID}
	err := r.pgpool.QueryRow(ctx, familyQuery, familyID).Scan(
		&progress.FamilyName,
		&progress.PreferredLanguage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Family not found")
			return nil, fmt.Errorf("family %s: %w", familyID, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query family")
		return nil, fmt.Errorf("failed to query family: %w", err)
	}

	membersQuery := `
        SELECT name, age, member_type
        FROM family_members
        WHERE family_id = $1
        ORDER BY age DESC
    `
	rows, err := r.pgpool.Query(ctx, membersQuery, familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query family members")
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m types.FamilyMember
		if err := rows.Scan(&m.Name, &m.Age, &m.MemberType); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to scan family member")
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		progress.Members = append(progress.Members, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}

	progressQuery := `
        SELECT route_stage, current_poi_index, total_points,
               current_location, visited_pois, conversation_memory,
               current_speaker, route_started_at, updated_at
        FROM family_route_progress
        WHERE family_id = $1
    `
	var (
		locationJSON []byte
		visitedJSON  []byte
		memoryJSON   []byte
	)
	err = r.pgpool.QueryRow(ctx, progressQuery, familyID).Scan(
		&progress.RouteStage,
		&progress.CurrentPOIIndex,
		&progress.TotalPoints,
		&locationJSON,
		&visitedJSON,
		&memoryJSON,
		&progress.CurrentSpeaker,
		&progress.RouteStartedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Family exists but never chatted: start from a clean aggregate.
			progress.RouteStage = types.StageNotStarted
			span.SetStatus(codes.Ok, "Progress loaded with defaults")
			return progress, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query route progress")
		return nil, fmt.Errorf("failed to query route progress: %w", err)
	}

	if len(locationJSON) > 0 {
		if err := json.Unmarshal(locationJSON, &progress.CurrentLocation); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to decode current location: %w", err)
		}
	}
	if len(visitedJSON) > 0 {
		if err := json.Unmarshal(visitedJSON, &progress.VisitedPOIs); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to decode visited pois: %w", err)
		}
	}
	if len(memoryJSON) > 0 {
		if err := json.Unmarshal(memoryJSON, &progress.ConversationMemory); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to decode conversation memory: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "Progress loaded")
	return progress, nil
}

func (r *RepositoryImpl) SaveProgress(ctx context.Context, progress *types.FamilyProgress) error {
	ctx, span := otel.Tracer("JourneyRepo").Start(ctx, "SaveProgress", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "family_route_progress"),
		attribute.String("family.id", progress.FamilyID.String()),
		attribute.Int("total.points", progress.TotalPoints),
	))
	defer span.End()

	locationJSON, err := json.Marshal(progress.CurrentLocation)
	if err != nil {
		return fmt.Errorf("failed to encode current location: %w", err)
	}
	visitedJSON, err := json.Marshal(progress.VisitedPOIs)
	if err != nil {
		return fmt.Errorf("failed to encode visited pois: %w", err)
	}
	memoryJSON, err := json.Marshal(progress.ConversationMemory)
	if err != nil {
		return fmt.Errorf("failed to encode conversation memory: %w", err)
	}

	query := `
        INSERT INTO family_route_progress (
            family_id, route_stage, current_poi_index, total_points,
            current_location, visited_pois, conversation_memory,
            current_speaker, route_started_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (family_id) DO UPDATE SET
            route_stage = EXCLUDED.route_stage,
            current_poi_index = EXCLUDED.current_poi_index,
            total_points = EXCLUDED.total_points,
            current_location = EXCLUDED.current_location,
            visited_pois = EXCLUDED.visited_pois,
            conversation_memory = EXCLUDED.conversation_memory,
            current_speaker = EXCLUDED.current_speaker,
            route_started_at = EXCLUDED.route_started_at,
            updated_at = EXCLUDED.updated_at
    `
	tag, err := r.pgpool.Exec(ctx, query,
		progress.FamilyID,
		progress.RouteStage,
		progress.CurrentPOIIndex,
		progress.TotalPoints,
		locationJSON,
		visitedJSON,
		memoryJSON,
		progress.CurrentSpeaker,
		progress.RouteStartedAt,
		time.Now(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upsert route progress")
		return fmt.Errorf("failed to upsert route progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "No rows affected")
		return fmt.Errorf("route progress upsert affected no rows for family %s", progress.FamilyID)
	}

	span.SetStatus(codes.Ok, "Progress saved")
	return nil
}
