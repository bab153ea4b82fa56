package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util/errorutil"
)

const minPasswordLength = 8

// ParticipantPurger removes the matches of a participant before its
// directory entry disappears.
type ParticipantPurger interface {
	PurgeParticipant(ctx context.Context, userID string) (int, error)
}

// Session is an authenticated participant with a fresh access token.
type Session struct {
	Participant *domain.Participant
	Token       string
	ExpiresAt   time.Time
}

// RegisterStartupInput describes a startup sign-up.
type RegisterStartupInput struct {
	Name     string
	Email    string
	Password string
	Industry string
	Stage    int
}

// RegisterIncubatorInput describes an incubator sign-up.
type RegisterIncubatorInput struct {
	Name           string
	Email          string
	Password       string
	FocusAreas     []string
	PreferredStage int
	Website        string
}

// DirectoryService coordinates registration, login and account removal.
type DirectoryService struct {
	participants repository.ParticipantRepository
	purger       ParticipantPurger
	tokens       *auth.TokenManager
	bcryptCost   int
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	ParticipantRepo repository.ParticipantRepository
	Purger          ParticipantPurger
	Tokens          *auth.TokenManager
	BcryptCost      int
	Logger          *zap.Logger
	Clock           func() time.Time
	IDGenerator     func() string
}

// NewDirectoryService builds the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	svc := &DirectoryService{
		participants: deps.ParticipantRepo,
		purger:       deps.Purger,
		tokens:       deps.Tokens,
		bcryptCost:   deps.BcryptCost,
		logger:       deps.Logger,
		now:          deps.Clock,
		newID:        deps.IDGenerator,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc
}

// RegisterStartup creates a startup account.
func (s *DirectoryService) RegisterStartup(ctx context.Context, input RegisterStartupInput) (*Session, error) {
	industry := strings.TrimSpace(input.Industry)
	details := validateAccount(input.Name, input.Email, input.Password)
	if industry == "" {
		details["industry"] = "required"
	}
	if input.Stage < 0 {
		details["stage"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid startup registration", details)
	}

	participant, err := s.create(ctx, input.Name, input.Email, input.Password, domain.RoleStartup, func(p *domain.Participant) {
		p.Industry = industry
		p.Stage = input.Stage
	})
	if err != nil {
		return nil, err
	}
	return s.issue(participant)
}

// RegisterIncubator creates an incubator account.
func (s *DirectoryService) RegisterIncubator(ctx context.Context, input RegisterIncubatorInput) (*Session, error) {
	focus := normalizeFocusAreas(input.FocusAreas)
	details := validateAccount(input.Name, input.Email, input.Password)
	if len(focus) == 0 {
		details["focus_areas"] = "at least one focus area is required"
	}
	if input.PreferredStage < 0 {
		details["preferred_stage"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid incubator registration", details)
	}

	participant, err := s.create(ctx, input.Name, input.Email, input.Password, domain.RoleIncubator, func(p *domain.Participant) {
		p.FocusAreas = focus
		p.PreferredStage = input.PreferredStage
		p.Website = strings.TrimSpace(input.Website)
	})
	if err != nil {
		return nil, err
	}
	return s.issue(participant)
}

// EnsureAdmin creates the admin account when no participant owns email.
// Admins cannot register through the API.
func (s *DirectoryService) EnsureAdmin(ctx context.Context, email, password string) (*domain.Participant, error) {
	existing, err := s.participants.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			return nil, fmt.Errorf("admin email %s belongs to a %s", existing.Email, existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if details := validateAccount("admin", email, password); len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid admin account", details)
	}
	participant, err := s.create(ctx, "admin", email, password, domain.RoleAdmin, func(*domain.Participant) {})
	if err != nil {
		return nil, err
	}
	s.logger.Info("seeded admin account", zap.String("participant_id", participant.ID))
	return participant, nil
}

// Login authenticates by email and password.
func (s *DirectoryService) Login(ctx context.Context, email, password string) (*Session, error) {
	participant, err := s.participants.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("load participant: %w", err)
	}
	if err := auth.ComparePassword(participant.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(participant)
}

// GetProfile returns the directory entry for id.
func (s *DirectoryService) GetProfile(ctx context.Context, id string) (*domain.Participant, error) {
	participant, err := s.participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("participant", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("load participant: %w", err)
	}
	return participant, nil
}

// RemoveParticipant deletes a directory entry on behalf of an admin. Matches
// involving the participant are purged first so no match outlives either
// party.
func (s *DirectoryService) RemoveParticipant(ctx context.Context, admin auth.Principal, id string) (int, error) {
	if err := auth.Authorize(admin.Role, domain.RoleAdmin); err != nil {
		return 0, err
	}
	if admin.ID == id {
		return 0, apperrors.NewValidationError("admins cannot remove their own account", nil)
	}
	if _, err := s.GetProfile(ctx, id); err != nil {
		return 0, err
	}

	purged, err := s.purger.PurgeParticipant(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.participants.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return purged, apperrors.NewNotFound("participant", map[string]any{"id": id})
		}
		return purged, fmt.Errorf("delete participant: %w", err)
	}

	s.logger.Info("participant removed",
		zap.String("participant_id", id),
		zap.String("admin_id", admin.ID),
		zap.Int("matches_purged", purged))
	return purged, nil
}

func (s *DirectoryService) create(ctx context.Context, name, email, password string, role domain.Role, profile func(*domain.Participant)) (*domain.Participant, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	participant := &domain.Participant{
		ID:           s.newID(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile(participant)

	if err := s.participants.Create(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": participant.Email})
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func (s *DirectoryService) issue(participant *domain.Participant) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(participant.ID, participant.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Participant: participant, Token: token, ExpiresAt: expiresAt}, nil
}

func validateAccount(name, email, password string) map[string]any {
	details := map[string]any{}
	if strings.TrimSpace(name) == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		details["email"] = "must be a valid email address"
	}
	if len(password) < minPasswordLength {
		details["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	return details
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeFocusAreas(areas []string) []string {
	out := make([]string, 0, len(areas))
	seen := make(map[string]struct{}, len(areas))
	for _, area := range areas {
		area = strings.TrimSpace(area)
		if area == "" {
			continue
		}
		if _, dup := seen[area]; dup {
			continue
		}
		seen[area] = struct{}{}
		out = append(out, area)
	}
	return out
}
