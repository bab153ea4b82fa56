package domain

import (
	"slices"
	"time"
)

// Role identifies which side of the marketplace a participant is on.
type Role string

const (
	RoleStartup   Role = "startup"
	RoleIncubator Role = "incubator"
	RoleAdmin     Role = "admin"
)

// CanMatch reports whether the role takes part in matches.
func (r Role) CanMatch() bool {
	return r == RoleStartup || r == RoleIncubator
}

// Counterpart returns the role a participant of role r is matched with.
func (r Role) Counterpart() (Role, bool) {
	switch r {
	case RoleStartup:
		return RoleIncubator, true
	case RoleIncubator:
		return RoleStartup, true
	}
	return "", false
}

// Participant is a directory entry. Startups carry Industry and Stage,
// incubators carry FocusAreas, PreferredStage and Website.
type Participant struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	Industry       string
	Stage          int
	FocusAreas     []string
	PreferredStage int
	Website        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StartupProfile is the demand-side scoring snapshot.
type StartupProfile struct {
	Industry string
	Stage    int
}

// IncubatorProfile is the supply-side scoring snapshot.
type IncubatorProfile struct {
	FocusAreas     []string
	PreferredStage int
}

// StartupProfile snapshots the startup attributes used for scoring.
func (p *Participant) StartupProfile() StartupProfile {
	return StartupProfile{Industry: p.Industry, Stage: p.Stage}
}

// IncubatorProfile snapshots the incubator attributes used for scoring.
func (p *Participant) IncubatorProfile() IncubatorProfile {
	return IncubatorProfile{FocusAreas: slices.Clone(p.FocusAreas), PreferredStage: p.PreferredStage}
}

// Focuses reports whether the incubator lists industry among its focus areas.
func (p IncubatorProfile) Focuses(industry string) bool {
	return slices.Contains(p.FocusAreas, industry)
}
