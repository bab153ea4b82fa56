package domain

import "time"

// MatchStatus enumerates lifecycle states for a match.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected:
		return true
	}
	return false
}

// Match pairs one startup (demand side) with one incubator (supply side).
// StartupID and IncubatorID never change after creation, and neither does
// CompatibilityScore.
type Match struct {
	ID                 string
	StartupID          string
	IncubatorID        string
	Status             MatchStatus
	CompatibilityScore int
	LastContactedAt    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasParticipant reports whether userID is either party of the match.
func (m *Match) HasParticipant(userID string) bool {
	return m.StartupID == userID || m.IncubatorID == userID
}

// Counterpart returns the other party's id.
func (m *Match) Counterpart(userID string) (string, bool) {
	switch userID {
	case m.StartupID:
		return m.IncubatorID, true
	case m.IncubatorID:
		return m.StartupID, true
	}
	return "", false
}

// Participants returns both party ids, startup first.
func (m *Match) Participants() [2]string {
	return [2]string{m.StartupID, m.IncubatorID}
}

// PairKey is the order-independent key of the match's two parties.
func (m *Match) PairKey() string {
	return PairKey(m.StartupID, m.IncubatorID)
}

// PairKey normalizes an unordered pair of participant ids.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
