package pebblestore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/repository"
)

// MatchStore implements repository.MatchRepository on Pebble.
type MatchStore struct {
	db *DB
}

// NewMatchStore returns a match repository backed by db.
func NewMatchStore(db *DB) *MatchStore {
	return &MatchStore{db: db}
}

var _ repository.MatchRepository = (*MatchStore)(nil)

func (s *MatchStore) InsertIfAbsent(_ context.Context, match *domain.Match) (*domain.Match, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	pairKey := matchPairPrefix + match.PairKey()
	existingID, err := s.db.get(pairKey)
	switch {
	case err == nil:
		existing, err := s.load(string(existingID))
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	data, err := encodeMatch(match)
	if err != nil {
		return nil, false, err
	}
	err = s.db.commit(func(b *pebble.Batch) error {
		if err := b.Set([]byte(matchPrefix+match.ID), data, nil); err != nil {
			return err
		}
		return b.Set([]byte(pairKey), []byte(match.ID), nil)
	})
	if err != nil {
		return nil, false, err
	}
	stored := *match
	return &stored, true, nil
}

func (s *MatchStore) GetByID(_ context.Context, id string) (*domain.Match, error) {
	return s.load(id)
}

func (s *MatchStore) load(id string) (*domain.Match, error) {
	data, err := s.db.get(matchPrefix + id)
	if err != nil {
		return nil, err
	}
	return decodeMatch(data)
}

func (s *MatchStore) ListByParticipant(_ context.Context, userID string) ([]domain.Match, error) {
	matches, err := s.collect(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches, nil
}

func (s *MatchStore) collect(userID string) ([]domain.Match, error) {
	var out []domain.Match
	err := s.db.scan(matchPrefix, func(val []byte) error {
		match, err := decodeMatch(val)
		if err != nil {
			return err
		}
		if match.HasParticipant(userID) {
			out = append(out, *match)
		}
		return nil
	})
	return out, err
}

func (s *MatchStore) UpdateStatus(_ context.Context, id string, status domain.MatchStatus, lastContactedAt time.Time) (*domain.Match, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	match, err := s.load(id)
	if err != nil {
		return nil, err
	}
	contacted := lastContactedAt
	match.Status = status
	match.LastContactedAt = &contacted
	match.UpdatedAt = lastContactedAt

	data, err := encodeMatch(match)
	if err != nil {
		return nil, err
	}
	if err := s.db.db.Set([]byte(matchPrefix+id), data, pebble.Sync); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *MatchStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	match, err := s.load(id)
	if err != nil {
		return err
	}
	return s.db.commit(func(b *pebble.Batch) error {
		return deleteMatch(b, match)
	})
}

func (s *MatchStore) DeleteByParticipant(_ context.Context, userID string) ([]domain.Match, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	matches, err := s.collect(userID)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	err = s.db.commit(func(b *pebble.Batch) error {
		for i := range matches {
			if err := deleteMatch(b, &matches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func deleteMatch(b *pebble.Batch, match *domain.Match) error {
	if err := b.Delete([]byte(matchPrefix+match.ID), nil); err != nil {
		return err
	}
	return b.Delete([]byte(matchPairPrefix+match.PairKey()), nil)
}
