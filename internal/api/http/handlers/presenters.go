package handlers

import (
	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/matching"
	"github.com/spec-kit/match-service/internal/service"
)

func matchResponse(m *domain.Match) dto.MatchResponse {
	return dto.MatchResponse{
		ID:                 m.ID,
		StartupID:          m.StartupID,
		IncubatorID:        m.IncubatorID,
		Status:             string(m.Status),
		CompatibilityScore: m.CompatibilityScore,
		LastContactedAt:    m.LastContactedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func participantResponse(p *domain.Participant) dto.ParticipantResponse {
	resp := dto.ParticipantResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
	}
	switch p.Role {
	case domain.RoleStartup:
		resp.StartupProfile = &dto.StartupProfile{Industry: p.Industry, Stage: p.Stage}
	case domain.RoleIncubator:
		focus := p.FocusAreas
		if focus == nil {
			focus = []string{}
		}
		resp.IncubatorProfile = &dto.IncubatorProfile{FocusAreas: focus, PreferredStage: p.PreferredStage, Website: p.Website}
	}
	return resp
}

func suggestionResponse(c *matching.Candidate) dto.SuggestionResponse {
	return dto.SuggestionResponse{
		Participant:        participantResponse(&c.Participant),
		CompatibilityScore: c.Score,
	}
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Participant: participantResponse(s.Participant),
		Auth:        dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}
