package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

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

type Repository interface {
	CreateFamily(ctx context.Context, family *types.Family) (uuid.UUID, error)
	GetFamilyByEmail(ctx context.Context, email string) (*types.Family, error)
	GetFamily(ctx context.Context, familyID uuid.UUID) (*types.Family, error)
	UpdateFamily(ctx context.Context, familyID uuid.UUID, req types.UpdateFamilyRequest) error
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

func (r *RepositoryImpl) CreateFamily(ctx context.Context, family *types.Family) (uuid.UUID, error) {
	ctx, span := otel.Tracer("FamilyRepo").Start(ctx, "CreateFamily", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "families"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to start transaction")
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO families (name, email, hashed_password, preferred_language)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var familyID uuid.UUID
	err = tx.QueryRow(ctx, query,
		family.Name,
		family.Email,
		family.HashedPassword,
		family.PreferredLanguage,
	).Scan(&familyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert family")
		return uuid.Nil, fmt.Errorf("failed to insert family: %w", err)
	}

	memberQuery := `
        INSERT INTO family_members (family_id, name, age, member_type)
        VALUES ($1, $2, $3, $4)
    `
	for _, m := range family.Members {
		if _, err := tx.Exec(ctx, memberQuery, familyID, m.Name, m.Age, m.MemberType); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to insert family member")
			return uuid.Nil, fmt.Errorf("failed to insert family member %q: %w", m.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetAttributes(attribute.String("family.id", familyID.String()))
	span.SetStatus(codes.Ok, "Family created")
	return familyID, nil
}

func (r *RepositoryImpl) GetFamilyByEmail(ctx context.Context, email string) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyRepo").Start(ctx, "GetFamilyByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "families"),
	))
	defer span.End()

	query := `
        SELECT id, name, email, hashed_password, preferred_language, created_at
        FROM families
        WHERE email = $1
    `
	family := &types.Family{}
	err := r.pgpool.QueryRow(ctx, query, email).Scan(
		&family.ID,
		&family.Name,
		&family.Email,
		&family.HashedPassword,
		&family.PreferredLanguage,
		&family.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Family not found")
			return nil, fmt.Errorf("family with email %s: %w", email, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query family")
		return nil, fmt.Errorf("failed to query family by email: %w", err)
	}

	span.SetStatus(codes.Ok, "Family found")
	return family, nil
}

func (r *RepositoryImpl) GetFamily(ctx context.Context, familyID uuid.UUID) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyRepo").Start(ctx, "GetFamily", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()

	query := `
        SELECT id, name, email, hashed_password, preferred_language, created_at
        FROM families
        WHERE id = $1
    `
	family := &types.Family{}
	err := r.pgpool.QueryRow(ctx, query, familyID).Scan(
		&family.ID,
		&family.Name,
		&family.Email,
		&family.HashedPassword,
		&family.PreferredLanguage,
		&family.CreatedAt,
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

	memberQuery := `
        SELECT name, age, member_type
        FROM family_members
        WHERE family_id = $1
        ORDER BY age DESC
    `
	rows, err := r.pgpool.Query(ctx, memberQuery, familyID)
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
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		family.Members = append(family.Members, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}

	span.SetStatus(codes.Ok, "Family loaded")
	return family, nil
}

func (r *RepositoryImpl) UpdateFamily(ctx context.Context, familyID uuid.UUID, req types.UpdateFamilyRequest) error {
	ctx, span := otel.Tracer("FamilyRepo").Start(ctx, "UpdateFamily", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to start transaction")
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if req.FamilyName != nil {
		tag, err := tx.Exec(ctx, `UPDATE families SET name = $1, updated_at = now() WHERE id = $2`, *req.FamilyName, familyID)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to update family name: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("family %s: %w", familyID, types.ErrNotFound)
		}
	}
	if req.PreferredLanguage != nil {
		if _, err := tx.Exec(ctx, `UPDATE families SET preferred_language = $1, updated_at = now() WHERE id = $2`, *req.PreferredLanguage, familyID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to update preferred language: %w", err)
		}
	}
	if req.Members != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM family_members WHERE family_id = $1`, familyID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to clear family members: %w", err)
		}
		memberQuery := `
            INSERT INTO family_members (family_id, name, age, member_type)
            VALUES ($1, $2, $3, $4)
        `
		for _, m := range *req.Members {
			if _, err := tx.Exec(ctx, memberQuery, familyID, m.Name, m.Age, m.MemberType); err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to insert family member %q: %w", m.Name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "Family updated")
	return nil
}
