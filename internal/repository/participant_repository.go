package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

const participantColumns = `id, name, email, password_hash, role, industry, stage, focus_areas, preferred_stage, website, created_at, updated_at`

type participantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository returns a Postgres-backed implementation.
func NewParticipantRepository(pool *pgxpool.Pool) ParticipantRepository {
	return &participantRepository{pool: pool}
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	const query = `
        INSERT INTO participants (` + participantColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	focus := p.FocusAreas
	if focus == nil {
		focus = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.PasswordHash,
		p.Role,
		p.Industry,
		p.Stage,
		focus,
		p.PreferredStage,
		p.Website,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return translate(err)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	const query = `SELECT ` + participantColumns + ` FROM participants WHERE id=$1`
	p, err := scanParticipant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	const query = `SELECT ` + participantColumns + ` FROM participants WHERE email=$1`
	p, err := scanParticipant(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *participantRepository) ListIncubatorsByFocusArea(ctx context.Context, industry string) ([]domain.Participant, error) {
	const query = `
        SELECT ` + participantColumns + `
        FROM participants
        WHERE role=$1 AND $2 = ANY(focus_areas)
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, domain.RoleIncubator, industry)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *participantRepository) ListStartupsByIndustries(ctx context.Context, industries []string) ([]domain.Participant, error) {
	if len(industries) == 0 {
		return nil, nil
	}
	const query = `
        SELECT ` + participantColumns + `
        FROM participants
        WHERE role=$1 AND industry = ANY($2)
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, domain.RoleStartup, industries)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *participantRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.Industry,
		&p.Stage,
		&p.FocusAreas,
		&p.PreferredStage,
		&p.Website,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectParticipants(rows pgx.Rows) ([]domain.Participant, error) {
	defer rows.Close()
	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
