package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/match-service/internal/domain"
)

// EventName enumerates lifecycle events pushed to participants.
type EventName string

const (
	EventMatchCreated EventName = "matchCreated"
	EventMatchUpdated EventName = "matchUpdated"
	EventMatchDeleted EventName = "matchDeleted"
)

// Envelope is the unit delivered on a participant channel.
type Envelope struct {
	ID         string          `json:"id"`
	Event      EventName       `json:"event"`
	Channel    string          `json:"channel"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEnvelope encodes payload and stamps the envelope with an id and time.
func NewEnvelope(channelID string, event EventName, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		Channel:    channelID,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// MatchPayload is the full match representation carried by
// matchCreated and matchUpdated.
type MatchPayload struct {
	ID                 string             `json:"id"`
	StartupID          string             `json:"startup_id"`
	IncubatorID        string             `json:"incubator_id"`
	Status             domain.MatchStatus `json:"status"`
	CompatibilityScore int                `json:"compatibility_score"`
	LastContactedAt    *time.Time         `json:"last_contacted_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewMatchPayload snapshots a match for publication.
func NewMatchPayload(m *domain.Match) MatchPayload {
	return MatchPayload{
		ID:                 m.ID,
		StartupID:          m.StartupID,
		IncubatorID:        m.IncubatorID,
		Status:             m.Status,
		CompatibilityScore: m.CompatibilityScore,
		LastContactedAt:    m.LastContactedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// MatchDeletedPayload only carries the id of the removed match.
type MatchDeletedPayload struct {
	ID string `json:"id"`
}
