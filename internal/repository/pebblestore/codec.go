package pebblestore

import (
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/spec-kit/match-service/internal/domain"
)

// Records are stored with Core Deterministic Encoding so the same value
// always produces identical bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("pebblestore: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("pebblestore: CBOR decoder initialization failed: " + err.Error())
	}
}

type matchRecord struct {
	ID                 string     `cbor:"id"`
	StartupID          string     `cbor:"startup_id"`
	IncubatorID        string     `cbor:"incubator_id"`
	Status             string     `cbor:"status"`
	CompatibilityScore int        `cbor:"score"`
	LastContactedAt    *time.Time `cbor:"last_contacted_at,omitempty"`
	CreatedAt          time.Time  `cbor:"created_at"`
	UpdatedAt          time.Time  `cbor:"updated_at"`
}

func encodeMatch(m *domain.Match) ([]byte, error) {
	return encMode.Marshal(matchRecord{
		ID:                 m.ID,
		StartupID:          m.StartupID,
		IncubatorID:        m.IncubatorID,
		Status:             string(m.Status),
		CompatibilityScore: m.CompatibilityScore,
		LastContactedAt:    m.LastContactedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	})
}

func decodeMatch(data []byte) (*domain.Match, error) {
	var rec matchRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &domain.Match{
		ID:                 rec.ID,
		StartupID:          rec.StartupID,
		IncubatorID:        rec.IncubatorID,
		Status:             domain.MatchStatus(rec.Status),
		CompatibilityScore: rec.CompatibilityScore,
		LastContactedAt:    rec.LastContactedAt,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}, nil
}

type participantRecord struct {
	ID             string    `cbor:"id"`
	Name           string    `cbor:"name"`
	Email          string    `cbor:"email"`
	PasswordHash   string    `cbor:"password_hash"`
	Role           string    `cbor:"role"`
	Industry       string    `cbor:"industry,omitempty"`
	Stage          int       `cbor:"stage,omitempty"`
	FocusAreas     []string  `cbor:"focus_areas,omitempty"`
	PreferredStage int       `cbor:"preferred_stage,omitempty"`
	Website        string    `cbor:"website,omitempty"`
	CreatedAt      time.Time `cbor:"created_at"`
	UpdatedAt      time.Time `cbor:"updated_at"`
}

func encodeParticipant(p *domain.Participant) ([]byte, error) {
	return encMode.Marshal(participantRecord{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		PasswordHash:   p.PasswordHash,
		Role:           string(p.Role),
		Industry:       p.Industry,
		Stage:          p.Stage,
		FocusAreas:     p.FocusAreas,
		PreferredStage: p.PreferredStage,
		Website:        p.Website,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}

func decodeParticipant(data []byte) (*domain.Participant, error) {
	var rec participantRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &domain.Participant{
		ID:             rec.ID,
		Name:           rec.Name,
		Email:          rec.Email,
		PasswordHash:   rec.PasswordHash,
		Role:           domain.Role(rec.Role),
		Industry:       rec.Industry,
		Stage:          rec.Stage,
		FocusAreas:     rec.FocusAreas,
		PreferredStage: rec.PreferredStage,
		Website:        rec.Website,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}
