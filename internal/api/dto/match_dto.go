package dto

import "time"

// CreateMatchRequest payload for proposing a match.
type CreateMatchRequest struct {
	MatchWith string `json:"match_with"`
}

// UpdateMatchStatusRequest payload for accepting or rejecting a match.
type UpdateMatchStatusRequest struct {
	Status string `json:"status"`
}

// MatchResponse is the public shape of a match.
type MatchResponse struct {
	ID                 string     `json:"id"`
	StartupID          string     `json:"startup_id"`
	IncubatorID        string     `json:"incubator_id"`
	Status             string     `json:"status"`
	CompatibilityScore int        `json:"compatibility_score"`
	LastContactedAt    *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SuggestionResponse is a ranked counterpart.
type SuggestionResponse struct {
	Participant        ParticipantResponse `json:"participant"`
	CompatibilityScore int                 `json:"compatibility_score"`
}
