package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

const defaultListLimit = 50

type VerificationRepository struct {
	pool PgxPool
}

func NewVerificationRepository(pool PgxPool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, session_id, template_id, external_id, outcome, distance, matched, liveness_passed, challenges, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	challenges := v.Challenges
	if challenges == nil {
		challenges = []string{}
	}

	err := r.pool.QueryRow(ctx, query,
		v.ID,
		v.SessionID,
		v.TemplateID,
		v.ExternalID,
		string(v.Outcome),
		v.Distance,
		v.Matched,
		v.LivenessPassed,
		challenges,
		v.LatencyMs,
	).Scan(&v.CreatedAt)

	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}

	return nil
}

// ListByExternalID returns the most recent outcomes for an identity, newest first
func (r *VerificationRepository) ListByExternalID(ctx context.Context, externalID string, limit int) ([]*domain.Verification, error) {
	query := `
		SELECT id, session_id, template_id, external_id, outcome, distance, matched, liveness_passed, challenges, latency_ms, created_at
		FROM verifications
		WHERE external_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx, query, externalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Verification
	for rows.Next() {
		var v domain.Verification
		var outcome string
		if err := rows.Scan(
			&v.ID,
			&v.SessionID,
			&v.TemplateID,
			&v.ExternalID,
			&outcome,
			&v.Distance,
			&v.Matched,
			&v.LivenessPassed,
			&v.Challenges,
			&v.LatencyMs,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		v.Outcome = domain.OutcomeKind(outcome)
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}

	return out, nil
}
