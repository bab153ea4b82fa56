package dto

import "time"

// RegisterStartupRequest payload for startup sign-up.
type RegisterStartupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Industry string `json:"industry"`
	Stage    int    `json:"stage"`
}

// RegisterIncubatorRequest payload for incubator sign-up.
type RegisterIncubatorRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	FocusAreas     []string `json:"focus_areas"`
	PreferredStage int      `json:"preferred_stage"`
	Website        string   `json:"website"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StartupProfile is the startup-specific part of a participant.
type StartupProfile struct {
	Industry string `json:"industry"`
	Stage    int    `json:"stage"`
}

// IncubatorProfile is the incubator-specific part of a participant.
type IncubatorProfile struct {
	FocusAreas     []string `json:"focus_areas"`
	PreferredStage int      `json:"preferred_stage"`
	Website        string   `json:"website,omitempty"`
}

// ParticipantResponse is the public shape of a directory entry.
type ParticipantResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Role             string            `json:"role"`
	StartupProfile   *StartupProfile   `json:"startup_profile,omitempty"`
	IncubatorProfile *IncubatorProfile `json:"incubator_profile,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// SessionResponse pairs a participant with its access token.
type SessionResponse struct {
	Participant ParticipantResponse `json:"participant"`
	Auth        AuthResponse        `json:"auth"`
}
