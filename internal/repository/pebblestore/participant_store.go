package pebblestore

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/cockroachdb/pebble"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
)

// ParticipantStore implements repository.ParticipantRepository on Pebble.
type ParticipantStore struct {
	db *DB
}

// NewParticipantStore returns a participant repository backed by db.
func NewParticipantStore(db *DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

var _ repository.ParticipantRepository = (*ParticipantStore)(nil)

func (s *ParticipantStore) Create(_ context.Context, p *domain.Participant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, key := range []string{participantEmailPrefix + p.Email, participantPrefix + p.ID} {
		_, err := s.db.get(key)
		if err == nil {
			return repository.ErrConflict
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	data, err := encodeParticipant(p)
	if err != nil {
		return err
	}
	return s.db.commit(func(b *pebble.Batch) error {
		if err := b.Set([]byte(participantPrefix+p.ID), data, nil); err != nil {
			return err
		}
		return b.Set([]byte(participantEmailPrefix+p.Email), []byte(p.ID), nil)
	})
}

func (s *ParticipantStore) GetByID(_ context.Context, id string) (*domain.Participant, error) {
	return s.load(id)
}

func (s *ParticipantStore) GetByEmail(_ context.Context, email string) (*domain.Participant, error) {
	id, err := s.db.get(participantEmailPrefix + email)
	if err != nil {
		return nil, err
	}
	return s.load(string(id))
}

func (s *ParticipantStore) load(id string) (*domain.Participant, error) {
	data, err := s.db.get(participantPrefix + id)
	if err != nil {
		return nil, err
	}
	return decodeParticipant(data)
}

func (s *ParticipantStore) ListIncubatorsByFocusArea(_ context.Context, industry string) ([]domain.Participant, error) {
	return s.list(func(p *domain.Participant) bool {
		return p.Role == domain.RoleIncubator && slices.Contains(p.FocusAreas, industry)
	})
}

func (s *ParticipantStore) ListStartupsByIndustries(_ context.Context, industries []string) ([]domain.Participant, error) {
	return s.list(func(p *domain.Participant) bool {
		return p.Role == domain.RoleStartup && slices.Contains(industries, p.Industry)
	})
}

func (s *ParticipantStore) list(keep func(*domain.Participant) bool) ([]domain.Participant, error) {
	var out []domain.Participant
	err := s.db.scan(participantPrefix, func(val []byte) error {
		p, err := decodeParticipant(val)
		if err != nil {
			return err
		}
		if keep(p) {
			out = append(out, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *ParticipantStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, err := s.load(id)
	if err != nil {
		return err
	}
	return s.db.commit(func(b *pebble.Batch) error {
		if err := b.Delete([]byte(participantPrefix+id), nil); err != nil {
			return err
		}
		return b.Delete([]byte(participantEmailPrefix+p.Email), nil)
	})
}
