package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/match-service/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness rule.
	ErrConflict = errors.New("record conflict")
)

// MatchRepository persists matches. InsertIfAbsent is the only way to create
// a match and is atomic per unordered participant pair.
type MatchRepository interface {
	// InsertIfAbsent stores match unless one already exists for the same
	// pair. It returns the stored record and true when match was inserted,
	// or the existing record and false.
	InsertIfAbsent(ctx context.Context, match *domain.Match) (*domain.Match, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Match, error)
	UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, lastContactedAt time.Time) (*domain.Match, error)
	Delete(ctx context.Context, id string) error
	// DeleteByParticipant removes every match involving userID and returns
	// the removed records.
	DeleteByParticipant(ctx context.Context, userID string) ([]domain.Match, error)
}

// ParticipantRepository persists directory entries.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.Participant) error
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Participant, error)
	// ListIncubatorsByFocusArea returns incubators listing industry, oldest first.
	ListIncubatorsByFocusArea(ctx context.Context, industry string) ([]domain.Participant, error)
	// ListStartupsByIndustries returns startups in any of industries, oldest first.
	ListStartupsByIndustries(ctx context.Context, industries []string) ([]domain.Participant, error)
	Delete(ctx context.Context, id string) error
}

const pgUniqueViolation = "23505"

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
