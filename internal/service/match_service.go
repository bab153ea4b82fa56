package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/matching"
	"github.com/spec-kit/match-service/internal/repository"
	apperrors "github.com/spec-kit/match-service/pkg/util/errorutil"
)

const tracerName = "github.com/spec-kit/match-service/internal/service"

const defaultSuggestConcurrency = 8

// Directory resolves participants and their profiles.
type Directory interface {
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	ListIncubatorsByFocusArea(ctx context.Context, industry string) ([]domain.Participant, error)
	ListStartupsByIndustries(ctx context.Context, industries []string) ([]domain.Participant, error)
}

// MatchService owns the match lifecycle: proposal, status transitions,
// deletion and suggestions.
type MatchService struct {
	matches     repository.MatchRepository
	directory   Directory
	broadcaster events.Broadcaster
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	concurrency int
	tracer      trace.Tracer
}

// MatchDependencies bundles collaborators for the match service.
type MatchDependencies struct {
	MatchRepo          repository.MatchRepository
	Directory          Directory
	Broadcaster        events.Broadcaster
	Logger             *zap.Logger
	Clock              func() time.Time
	IDGenerator        func() string
	SuggestConcurrency int
}

// NewMatchService constructs the service.
func NewMatchService(deps MatchDependencies) *MatchService {
	svc := &MatchService{
		matches:     deps.MatchRepo,
		directory:   deps.Directory,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
		now:         deps.Clock,
		newID:       deps.IDGenerator,
		concurrency: deps.SuggestConcurrency,
		tracer:      otel.Tracer(tracerName),
	}
	if svc.broadcaster == nil {
		svc.broadcaster = events.Nop{}
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
	if svc.concurrency <= 0 {
		svc.concurrency = defaultSuggestConcurrency
	}
	return svc
}

// DuplicateOf extracts the already existing match carried by a
// DUPLICATE_MATCH error.
func DuplicateOf(err error) (*domain.Match, bool) {
	if !apperrors.HasCode(err, apperrors.CodeDuplicateMatch) {
		return nil, false
	}
	existing, ok := apperrors.ToDomainError(err).Details["match"].(*domain.Match)
	return existing, ok && existing != nil
}

// CreateMatch proposes a match between the requester and target. The
// requester keeps the slot of its own role.
func (s *MatchService) CreateMatch(ctx context.Context, requester auth.Principal, targetID string) (match *domain.Match, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.CreateMatch", trace.WithAttributes(
		attribute.String("requester.id", requester.ID),
		attribute.String("target.id", targetID),
	))
	defer func() { finishSpan(span, err) }()

	counterpartRole, ok := requester.Role.Counterpart()
	if !ok {
		return nil, apperrors.NewInvalidRole(string(requester.Role))
	}
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, apperrors.NewValidationError("match_with must be a valid id", map[string]any{"match_with": targetID})
	}
	if targetID == requester.ID {
		return nil, apperrors.NewValidationError("cannot match with yourself", nil)
	}

	target, err := s.lookupParticipant(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role != counterpartRole {
		return nil, apperrors.NewValidationError("target must be a "+string(counterpartRole), map[string]any{
			"target_role": target.Role,
		})
	}
	self, err := s.lookupParticipant(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	startup, incubator := self, target
	if requester.Role == domain.RoleIncubator {
		startup, incubator = target, self
	}

	now := s.now().UTC()
	candidate := &domain.Match{
		ID:                 s.newID(),
		StartupID:          startup.ID,
		IncubatorID:        incubator.ID,
		Status:             domain.MatchStatusPending,
		CompatibilityScore: matching.Score(startup.StartupProfile(), incubator.IncubatorProfile()),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	stored, inserted, err := s.matches.InsertIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}
	if !inserted {
		return nil, apperrors.NewDuplicateMatch(stored)
	}

	s.notifyParties(ctx, stored, events.EventMatchCreated, events.NewMatchPayload(stored))
	return stored, nil
}

// TransitionStatus moves a match to accepted or rejected. Only the startup
// party may accept; either party may reject.
func (s *MatchService) TransitionStatus(ctx context.Context, actorID, matchID string, status domain.MatchStatus) (match *domain.Match, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.TransitionStatus", trace.WithAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("match.id", matchID),
		attribute.String("match.status", string(status)),
	))
	defer func() { finishSpan(span, err) }()

	if status != domain.MatchStatusAccepted && status != domain.MatchStatusRejected {
		return nil, apperrors.NewValidationError("status must be accepted or rejected", map[string]any{"status": status})
	}

	current, err := s.memberMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}
	if status == domain.MatchStatusAccepted && current.StartupID != actorID {
		return nil, apperrors.NewForbidden("only the startup can accept a match")
	}

	updated, err := s.matches.UpdateStatus(ctx, matchID, status, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, matchNotFound(matchID)
		}
		return nil, fmt.Errorf("update match: %w", err)
	}

	s.notifyParties(ctx, updated, events.EventMatchUpdated, events.NewMatchPayload(updated))
	return updated, nil
}

// DeleteMatch removes a match on behalf of one of its parties.
func (s *MatchService) DeleteMatch(ctx context.Context, actorID, matchID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.DeleteMatch", trace.WithAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("match.id", matchID),
	))
	defer func() { finishSpan(span, err) }()

	current, err := s.memberMatch(ctx, actorID, matchID)
	if err != nil {
		return err
	}
	if err := s.matches.Delete(ctx, matchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return matchNotFound(matchID)
		}
		return fmt.Errorf("delete match: %w", err)
	}

	s.notifyParties(ctx, current, events.EventMatchDeleted, events.MatchDeletedPayload{ID: current.ID})
	return nil
}

// GetMatch returns a match visible to actorID.
func (s *MatchService) GetMatch(ctx context.Context, actorID, matchID string) (match *domain.Match, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.GetMatch", trace.WithAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("match.id", matchID),
	))
	defer func() { finishSpan(span, err) }()

	return s.memberMatch(ctx, actorID, matchID)
}

// ListMatches returns every match involving userID, newest first.
func (s *MatchService) ListMatches(ctx context.Context, userID string) (matches []domain.Match, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.ListMatches", trace.WithAttributes(
		attribute.String("actor.id", userID),
	))
	defer func() { finishSpan(span, err) }()

	matches, err = s.matches.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	return matches, nil
}

// SuggestMatches ranks counterpart participants for requesterID. Results are
// computed on every call.
func (s *MatchService) SuggestMatches(ctx context.Context, requesterID string) (ranked []matching.Candidate, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.SuggestMatches", trace.WithAttributes(
		attribute.String("requester.id", requesterID),
	))
	defer func() { finishSpan(span, err) }()

	requester, err := s.lookupParticipant(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	var (
		pool  []domain.Participant
		score func(other *domain.Participant) int
	)
	switch requester.Role {
	case domain.RoleStartup:
		pool, err = s.directory.ListIncubatorsByFocusArea(ctx, requester.Industry)
		startup := requester.StartupProfile()
		score = func(other *domain.Participant) int {
			return matching.Score(startup, other.IncubatorProfile())
		}
	case domain.RoleIncubator:
		pool, err = s.directory.ListStartupsByIndustries(ctx, requester.FocusAreas)
		incubator := requester.IncubatorProfile()
		score = func(other *domain.Participant) int {
			return matching.Score(other.StartupProfile(), incubator)
		}
	default:
		return nil, apperrors.NewInvalidRole(string(requester.Role))
	}
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]matching.Candidate, len(pool))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i := range pool {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = matching.Candidate{Participant: pool[i], Score: score(&pool[i])}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("suggestions.count", len(candidates)))
	return matching.Rank(candidates), nil
}

// PurgeParticipant deletes every match involving userID and notifies both
// parties of each. It is called before a directory entry is removed.
func (s *MatchService) PurgeParticipant(ctx context.Context, userID string) (removed int, err error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.PurgeParticipant", trace.WithAttributes(
		attribute.String("participant.id", userID),
	))
	defer func() { finishSpan(span, err) }()

	deleted, err := s.matches.DeleteByParticipant(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("purge matches: %w", err)
	}
	for i := range deleted {
		s.notifyParties(ctx, &deleted[i], events.EventMatchDeleted, events.MatchDeletedPayload{ID: deleted[i].ID})
	}
	s.logger.Info("purged participant matches", zap.String("participant_id", userID), zap.Int("count", len(deleted)))
	return len(deleted), nil
}

func (s *MatchService) memberMatch(ctx context.Context, actorID, matchID string) (*domain.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, matchNotFound(matchID)
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	if !match.HasParticipant(actorID) {
		return nil, apperrors.NewForbidden("not a party to this match")
	}
	return match, nil
}

func (s *MatchService) lookupParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	participant, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("participant", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("load participant: %w", err)
	}
	return participant, nil
}

// notifyParties publishes to both parties. Failures are logged and never
// returned; the match is already persisted.
func (s *MatchService) notifyParties(ctx context.Context, match *domain.Match, event events.EventName, payload any) {
	for _, channel := range match.Participants() {
		if err := s.broadcaster.Publish(ctx, channel, event, payload); err != nil {
			s.logger.Warn("publish lifecycle event failed",
				zap.String("match_id", match.ID),
				zap.String("channel", channel),
				zap.String("event", string(event)),
				zap.Error(err))
		}
	}
}

func matchNotFound(id string) error {
	return apperrors.NewNotFound("match", map[string]any{"id": id})
}

func finishSpan(span trace.Span, err error) {
	if err != nil && !isClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isClientError(err error) bool {
	var domainErr *apperrors.DomainError
	return errors.As(err, &domainErr) && domainErr.HTTPStatus < 500
}
