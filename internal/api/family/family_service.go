package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-family-journey/config"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Register(ctx context.Context, req types.RegisterFamilyRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	GetFamily(ctx context.Context, familyID uuid.UUID) (*types.Family, error)
	UpdateFamily(ctx context.Context, familyID uuid.UUID, req types.UpdateFamilyRequest) (*types.Family, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cfg    *config.Config
}

func NewServiceImpl(repo Repository, cfg *config.Config, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

func (s *ServiceImpl) Register(ctx context.Context, req types.RegisterFamilyRequest) (*types.AuthResponse, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "Register")
	defer span.End()
	l := s.logger.With(slog.String("method", "Register"))

	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetFamilyByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", req.Email, types.ErrValidation)
	} else if !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	lang := req.PreferredLanguage
	if lang == "" {
		lang = types.LanguageSpanish
	}

	familyID, err := s.repo.CreateFamily(ctx, &types.Family{
		Name:              req.FamilyName,
		Email:             strings.ToLower(req.Email),
		HashedPassword:    string(hashed),
		PreferredLanguage: lang,
		Members:           req.Members,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create family")
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	token, err := s.issueToken(familyID, req.FamilyName, req.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.InfoContext(ctx, "family registered",
		slog.String("family_id", familyID.String()),
		slog.Int("members", len(req.Members)))
	span.SetAttributes(attribute.String("family.id", familyID.String()))
	span.SetStatus(codes.Ok, "Family registered")

	return &types.AuthResponse{
		AccessToken: token,
		FamilyID:    familyID.String(),
		FamilyName:  req.FamilyName,
	}, nil
}

func (s *ServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	family, err := s.repo.GetFamilyByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Same error as a bad password, the caller learns nothing about
			// which part was wrong.
			return nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to look up family: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(family.HashedPassword), []byte(req.Password)); err != nil {
		l.WarnContext(ctx, "failed login attempt", slog.String("family_id", family.ID.String()))
		return nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}

	token, err := s.issueToken(family.ID, family.Name, family.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("family.id", family.ID.String()))
	span.SetStatus(codes.Ok, "Login succeeded")
	return &types.AuthResponse{
		AccessToken: token,
		FamilyID:    family.ID.String(),
		FamilyName:  family.Name,
	}, nil
}

func (s *ServiceImpl) GetFamily(ctx context.Context, familyID uuid.UUID) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "GetFamily")
	defer span.End()

	family, err := s.repo.GetFamily(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Family loaded")
	return family, nil
}

func (s *ServiceImpl) UpdateFamily(ctx context.Context, familyID uuid.UUID, req types.UpdateFamilyRequest) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "UpdateFamily")
	defer span.End()

	if req.PreferredLanguage != nil {
		if *req.PreferredLanguage != types.LanguageSpanish && *req.PreferredLanguage != types.LanguageEnglish {
			return nil, fmt.Errorf("unsupported language %q: %w", *req.PreferredLanguage, types.ErrValidation)
		}
	}
	if req.Members != nil {
		if err := validateMembers(*req.Members); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateFamily(ctx, familyID, req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	family, err := s.repo.GetFamily(ctx, familyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Family updated")
	return family, nil
}

func (s *ServiceImpl) issueToken(familyID uuid.UUID, familyName, email string) (string, error) {
	now := time.Now()
	ttl := s.cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := types.Claims{
		FamilyID:   familyID.String(),
		FamilyName: familyName,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   familyID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func validateRegistration(req types.RegisterFamilyRequest) error {
	if strings.TrimSpace(req.FamilyName) == "" {
		return fmt.Errorf("family name is required: %w", types.ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("a valid email is required: %w", types.ErrValidation)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", types.ErrValidation)
	}
	if req.PreferredLanguage != "" &&
		req.PreferredLanguage != types.LanguageSpanish &&
		req.PreferredLanguage != types.LanguageEnglish {
		return fmt.Errorf("unsupported language %q: %w", req.PreferredLanguage, types.ErrValidation)
	}
	return validateMembers(req.Members)
}

func validateMembers(members []types.FamilyMember) error {
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("member name is required: %w", types.ErrValidation)
		}
		if m.Age < 0 || m.Age > 120 {
			return fmt.Errorf("member %q has an implausible age: %w", m.Name, types.ErrValidation)
		}
		if m.MemberType != types.MemberAdult && m.MemberType != types.MemberChild {
			return fmt.Errorf("member %q has unknown type %q: %w", m.Name, m.MemberType, types.ErrValidation)
		}
	}
	return nil
}
