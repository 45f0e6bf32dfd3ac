package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// DB is satisfied by *pgxpool.Pool and pgxmock
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OutcomeStats aggregates the recorded sessions of one outcome kind
type OutcomeStats struct {
	Outcome        domain.OutcomeKind `json:"outcome"`
	Count          int64              `json:"count"`
	LivenessPassed int64              `json:"liveness_passed"`
	AvgLatencyMs   float64            `json:"avg_latency_ms"`
	P95LatencyMs   float64            `json:"p95_latency_ms"`
	AvgDistance    *float64           `json:"avg_distance,omitempty"`
}

// Summary covers every session recorded since Since
type Summary struct {
	Since            time.Time      `json:"since"`
	Total            int64          `json:"total"`
	LivenessPassRate float64        `json:"liveness_pass_rate"`
	MatchRate        float64        `json:"match_rate"`
	Outcomes         []OutcomeStats `json:"outcomes"`
}

// Repository computes session statistics from the verifications table
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Summary groups verifications by outcome. Rates are 0 when their denominator is.
func (r *Repository) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	query := `
		SELECT
			outcome,
			COUNT(*),
			COUNT(*) FILTER (WHERE liveness_passed),
			COALESCE(AVG(latency_ms), 0)::float8,
			COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY latency_ms), 0)::float8,
			AVG(distance)::float8
		FROM verifications
		WHERE created_at >= $1
		GROUP BY outcome
		ORDER BY outcome
	`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query outcome stats: %w", err)
	}
	defer rows.Close()

	sum := &Summary{Since: since, Outcomes: []OutcomeStats{}}
	var passed, matched, compared int64

	for rows.Next() {
		var (
			s       OutcomeStats
			outcome string
		)
		if err := rows.Scan(&outcome, &s.Count, &s.LivenessPassed, &s.AvgLatencyMs, &s.P95LatencyMs, &s.AvgDistance); err != nil {
			return nil, fmt.Errorf("scan outcome stats: %w", err)
		}
		s.Outcome = domain.OutcomeKind(outcome)
		sum.Outcomes = append(sum.Outcomes, s)
		sum.Total += s.Count
		passed += s.LivenessPassed

		switch s.Outcome {
		case domain.OutcomeMatched:
			matched += s.Count
			compared += s.Count
		case domain.OutcomeNoMatch:
			compared += s.Count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome stats: %w", err)
	}

	if sum.Total > 0 {
		sum.LivenessPassRate = float64(passed) / float64(sum.Total)
	}
	if compared > 0 {
		sum.MatchRate = float64(matched) / float64(compared)
	}

	return sum, nil
}
