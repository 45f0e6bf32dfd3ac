package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

type TemplateRepository struct {
	pool PgxPool
}

func NewTemplateRepository(pool PgxPool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Create inserts a new template. An existing template for the same external id
// yields domain.ErrTemplateExists.
func (r *TemplateRepository) Create(ctx context.Context, t *domain.Template) error {
	query := `
		INSERT INTO templates (id, external_id, embedding, sample_count, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.ExternalID,
		toVector(t.Embedding),
		t.SampleCount,
		t.Model,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTemplateExists
		}
		return fmt.Errorf("create template: %w", err)
	}

	return nil
}

func (r *TemplateRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Template, error) {
	query := `
		SELECT id, external_id, embedding, sample_count, model, created_at, updated_at
		FROM templates
		WHERE external_id = $1
	`

	var t domain.Template
	var embedding *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&t.ID,
		&t.ExternalID,
		&embedding,
		&t.SampleCount,
		&t.Model,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template by external_id: %w", err)
	}

	t.Embedding = fromVector(embedding)
	return &t, nil
}

// Replace writes t over whatever is enrolled for t.ExternalID, inserting when
// nothing is. The row keeps its id and created_at across re-enrollment.
func (r *TemplateRepository) Replace(ctx context.Context, t *domain.Template) error {
	query := `
		INSERT INTO templates (id, external_id, embedding, sample_count, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    sample_count = EXCLUDED.sample_count,
		    model = EXCLUDED.model,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.ExternalID,
		toVector(t.Embedding),
		t.SampleCount,
		t.Model,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("replace template: %w", err)
	}

	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, externalID string) error {
	query := `DELETE FROM templates WHERE external_id = $1`

	result, err := r.pool.Exec(ctx, query, externalID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}

	return nil
}
