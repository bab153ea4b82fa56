// Package memory holds mutex-guarded in-process repositories used for local
// runs and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
)

// MatchStore implements repository.MatchRepository.
type MatchStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Match
	byPair map[string]string
}

// NewMatchStore creates an empty store.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		byID:   make(map[string]*domain.Match),
		byPair: make(map[string]string),
	}
}

var _ repository.MatchRepository = (*MatchStore)(nil)

func (s *MatchStore) InsertIfAbsent(_ context.Context, match *domain.Match) (*domain.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := match.PairKey()
	if id, ok := s.byPair[key]; ok {
		return cloneMatch(s.byID[id]), false, nil
	}
	stored := cloneMatch(match)
	s.byID[stored.ID] = stored
	s.byPair[key] = stored.ID
	return cloneMatch(stored), true, nil
}

func (s *MatchStore) GetByID(_ context.Context, id string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMatch(match), nil
}

func (s *MatchStore) ListByParticipant(_ context.Context, userID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Match
	for _, match := range s.byID {
		if match.HasParticipant(userID) {
			out = append(out, *cloneMatch(match))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MatchStore) UpdateStatus(_ context.Context, id string, status domain.MatchStatus, lastContactedAt time.Time) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	contacted := lastContactedAt
	match.Status = status
	match.LastContactedAt = &contacted
	match.UpdatedAt = lastContactedAt
	return cloneMatch(match), nil
}

func (s *MatchStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byPair, match.PairKey())
	return nil
}

func (s *MatchStore) DeleteByParticipant(_ context.Context, userID string) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.Match
	for id, match := range s.byID {
		if !match.HasParticipant(userID) {
			continue
		}
		removed = append(removed, *match)
		delete(s.byID, id)
		delete(s.byPair, match.PairKey())
	}
	return removed, nil
}

func cloneMatch(m *domain.Match) *domain.Match {
	out := *m
	if m.LastContactedAt != nil {
		t := *m.LastContactedAt
		out.LastContactedAt = &t
	}
	return &out
}

// ParticipantStore implements repository.ParticipantRepository.
type ParticipantStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Participant
	byEmail map[string]string
	order   []string
}

// NewParticipantStore creates an empty store.
func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{
		byID:    make(map[string]*domain.Participant),
		byEmail: make(map[string]string),
	}
}

var _ repository.ParticipantRepository = (*ParticipantStore)(nil)

func (s *ParticipantStore) Create(_ context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[p.Email]; ok {
		return repository.ErrConflict
	}
	if _, ok := s.byID[p.ID]; ok {
		return repository.ErrConflict
	}
	s.byID[p.ID] = cloneParticipant(p)
	s.byEmail[p.Email] = p.ID
	s.order = append(s.order, p.ID)
	return nil
}

func (s *ParticipantStore) GetByID(_ context.Context, id string) (*domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneParticipant(p), nil
}

func (s *ParticipantStore) GetByEmail(_ context.Context, email string) (*domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneParticipant(s.byID[id]), nil
}

func (s *ParticipantStore) ListIncubatorsByFocusArea(_ context.Context, industry string) ([]domain.Participant, error) {
	return s.list(func(p *domain.Participant) bool {
		return p.Role == domain.RoleIncubator && slices.Contains(p.FocusAreas, industry)
	}), nil
}

func (s *ParticipantStore) ListStartupsByIndustries(_ context.Context, industries []string) ([]domain.Participant, error) {
	return s.list(func(p *domain.Participant) bool {
		return p.Role == domain.RoleStartup && slices.Contains(industries, p.Industry)
	}), nil
}

// list walks participants in insertion order.
func (s *ParticipantStore) list(keep func(*domain.Participant) bool) []domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participant
	for _, id := range s.order {
		if p := s.byID[id]; keep(p) {
			out = append(out, *cloneParticipant(p))
		}
	}
	return out
}

func (s *ParticipantStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, p.Email)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func cloneParticipant(p *domain.Participant) *domain.Participant {
	out := *p
	out.FocusAreas = slices.Clone(p.FocusAreas)
	return &out
}
