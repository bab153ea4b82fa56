package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/repository/memory"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// sequentialIDs yields well-formed UUIDs with a readable counter suffix.
func sequentialIDs(prefix int) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("00000000-0000-0000-%04d-%012d", prefix, n.Add(1))
	}
}

type published struct {
	Channel string
	Event   events.EventName
	Payload any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []published
	err   error
}

func (f *fakeBroadcaster) Publish(_ context.Context, channelID string, event events.EventName, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, published{Channel: channelID, Event: event, Payload: payload})
	return f.err
}

func (f *fakeBroadcaster) events() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.calls...)
}

type fixture struct {
	matches      *memory.MatchStore
	participants *memory.ParticipantStore
	broadcaster  *fakeBroadcaster
	svc          *MatchService
	ids          func() string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		matches:      memory.NewMatchStore(),
		participants: memory.NewParticipantStore(),
		broadcaster:  &fakeBroadcaster{},
		ids:          sequentialIDs(1),
	}
	f.svc = NewMatchService(MatchDependencies{
		MatchRepo:          f.matches,
		Directory:          f.participants,
		Broadcaster:        f.broadcaster,
		Clock:              fixedClock,
		IDGenerator:        sequentialIDs(2),
		SuggestConcurrency: 3,
	})
	return f
}

func (f *fixture) startup(t *testing.T, industry string, stage int) auth.Principal {
	t.Helper()
	p := &domain.Participant{
		ID: f.ids(), Role: domain.RoleStartup, Industry: industry, Stage: stage,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	p.Email = p.ID + "@startup.test"
	if err := f.participants.Create(context.Background(), p); err != nil {
		t.Fatalf("create startup: %v", err)
	}
	return auth.Principal{ID: p.ID, Role: p.Role}
}

func (f *fixture) incubator(t *testing.T, preferredStage int, focus ...string) auth.Principal {
	t.Helper()
	p := &domain.Participant{
		ID: f.ids(), Role: domain.RoleIncubator, FocusAreas: focus, PreferredStage: preferredStage,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	p.Email = p.ID + "@incubator.test"
	if err := f.participants.Create(context.Background(), p); err != nil {
		t.Fatalf("create incubator: %v", err)
	}
	return auth.Principal{ID: p.ID, Role: p.Role}
}

func (f *fixture) admin(t *testing.T) auth.Principal {
	t.Helper()
	p := &domain.Participant{ID: f.ids(), Role: domain.RoleAdmin, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	p.Email = p.ID + "@admin.test"
	if err := f.participants.Create(context.Background(), p); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return auth.Principal{ID: p.ID, Role: p.Role}
}

var errBroadcastDown = errors.New("broadcast down")
