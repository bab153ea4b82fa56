package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/match-service/internal/domain"
)

const matchColumns = `id, startup_id, incubator_id, status, compatibility_score, last_contacted_at, created_at, updated_at`

type matchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository returns a Postgres-backed implementation.
func NewMatchRepository(pool *pgxpool.Pool) MatchRepository {
	return &matchRepository{pool: pool}
}

func (r *matchRepository) InsertIfAbsent(ctx context.Context, match *domain.Match) (*domain.Match, bool, error) {
	const insert = `
        INSERT INTO matches (id, startup_id, incubator_id, pair_key, status, compatibility_score, last_contacted_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (pair_key) DO NOTHING
        RETURNING ` + matchColumns
	const existing = `SELECT ` + matchColumns + ` FROM matches WHERE pair_key=$1`

	// The existing row can be deleted between the conflicting insert and the
	// read, so a second attempt is allowed.
	for attempt := 0; attempt < 2; attempt++ {
		stored, err := scanMatch(r.pool.QueryRow(ctx, insert,
			match.ID,
			match.StartupID,
			match.IncubatorID,
			match.PairKey(),
			match.Status,
			match.CompatibilityScore,
			match.LastContactedAt,
			match.CreatedAt,
			match.UpdatedAt,
		))
		if err == nil {
			return stored, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, translate(err)
		}

		found, err := scanMatch(r.pool.QueryRow(ctx, existing, match.PairKey()))
		if err == nil {
			return found, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, translate(err)
		}
	}
	return nil, false, fmt.Errorf("insert match %s: pair contended", match.PairKey())
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE id=$1`
	match, err := scanMatch(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return match, nil
}

func (r *matchRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Match, error) {
	const query = `
        SELECT ` + matchColumns + `
        FROM matches
        WHERE startup_id=$1 OR incubator_id=$1
        ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, lastContactedAt time.Time) (*domain.Match, error) {
	const query = `
        UPDATE matches SET status=$1, last_contacted_at=$2, updated_at=$2
        WHERE id=$3
        RETURNING ` + matchColumns
	match, err := scanMatch(r.pool.QueryRow(ctx, query, status, lastContactedAt, id))
	if err != nil {
		return nil, translate(err)
	}
	return match, nil
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *matchRepository) DeleteByParticipant(ctx context.Context, userID string) ([]domain.Match, error) {
	const query = `
        DELETE FROM matches
        WHERE startup_id=$1 OR incubator_id=$1
        RETURNING ` + matchColumns
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var match domain.Match
	if err := row.Scan(
		&match.ID,
		&match.StartupID,
		&match.IncubatorID,
		&match.Status,
		&match.CompatibilityScore,
		&match.LastContactedAt,
		&match.CreatedAt,
		&match.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &match, nil
}

func collectMatches(rows pgx.Rows) ([]domain.Match, error) {
	defer rows.Close()
	var matches []domain.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}
