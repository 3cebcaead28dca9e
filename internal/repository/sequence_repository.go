package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type sequenceRepository struct {
	db *sqlx.DB
}

func NewSequenceRepository(db *sqlx.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Increment advances the year-scoped counter in a single upsert. Postgres
// serializes concurrent upserts on the same row, so two callers can never
// observe the same count: the conflict arm runs against the committed row
// state under the row lock. A year change resets the count to 1.
func (r *sequenceRepository) Increment(ctx context.Context, domain string, year int) (int, error) {
	query := `
		INSERT INTO sequence_counters (domain, year, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (domain) DO UPDATE SET
			count = CASE
				WHEN sequence_counters.year = EXCLUDED.year THEN sequence_counters.count + 1
				ELSE 1
			END,
			year = EXCLUDED.year
		RETURNING count
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, domain, year); err != nil {
		return 0, err
	}

	return count, nil
}
