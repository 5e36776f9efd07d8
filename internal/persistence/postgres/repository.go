// Package postgres provides pgx-backed persistence for raw samples and
// daily summaries.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittracker/internal/domain"
	"example.com/fittracker/internal/observability"
)

// Repository implements domain.Repository over a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertSample persists one enriched telemetry sample. A zero Timestamp
// defers to the column default (ingestion wall-clock time).
func (r *Repository) InsertSample(ctx context.Context, sample domain.RawSample) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	ts := any(sample.Timestamp)
	if sample.Timestamp.IsZero() {
		ts = nil
	}

	_, err = conn.Exec(ctx,
		`INSERT INTO user_fit_data (user_id, steps, heart_beat, met, height, weight, "timestamp")
         VALUES ($1,$2,$3,$4,$5,$6, COALESCE($7, now()))`,
		sample.UserID,
		sample.Steps,
		sample.HeartBeat,
		sample.MET,
		sample.Height,
		sample.Weight,
		ts,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	observability.RecordSamplePersisted(time.Now().UTC())
	return nil
}

// FirstSampleByUser returns the earliest-ingested sample for the user, or
// nil when none exists.
func (r *Repository) FirstSampleByUser(ctx context.Context, userID string) (*domain.RawSample, error) {
	const query = `SELECT id, user_id, steps, heart_beat, met, height, weight, "timestamp"
        FROM user_fit_data WHERE user_id=$1 ORDER BY id LIMIT 1`

	row := r.pool.QueryRow(ctx, query, userID)
	var sample domain.RawSample
	if err := row.Scan(&sample.ID, &sample.UserID, &sample.Steps, &sample.HeartBeat, &sample.MET, &sample.Height, &sample.Weight, &sample.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query sample: %w", err)
	}
	return &sample, nil
}

// SamplesForDay returns the user's samples whose timestamp falls within the
// calendar day, ordered by ingestion.
func (r *Repository) SamplesForDay(ctx context.Context, userID string, day time.Time) ([]domain.RawSample, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	const query = `SELECT id, user_id, steps, heart_beat, met, height, weight, "timestamp"
        FROM user_fit_data
        WHERE user_id=$1 AND "timestamp" >= $2 AND "timestamp" < $3
        ORDER BY id`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.RawSample
	for rows.Next() {
		var sample domain.RawSample
		if err := rows.Scan(&sample.ID, &sample.UserID, &sample.Steps, &sample.HeartBeat, &sample.MET, &sample.Height, &sample.Weight, &sample.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// UpsertDailySummary writes the aggregate for (user_id, date), fully
// overwriting any prior derived values for that key. The conflict target's
// row lock serializes concurrent upserts for the same key while different
// keys proceed independently.
func (r *Repository) UpsertDailySummary(ctx context.Context, summary domain.DailySummary) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO user_daily_summary (user_id, date, total_steps, distance, average_heart_beat, kcal_burned)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, date) DO UPDATE SET
            total_steps = EXCLUDED.total_steps,
            distance = EXCLUDED.distance,
            average_heart_beat = EXCLUDED.average_heart_beat,
            kcal_burned = EXCLUDED.kcal_burned`

	if _, err = tx.Exec(ctx, stmt,
		summary.UserID,
		summary.Date,
		summary.TotalSteps,
		summary.Distance,
		summary.AverageHeartBeat,
		summary.KcalBurned,
	); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	observability.RecordSummaryUpserted()
	return nil
}

// ListSummaries returns every stored daily summary ordered by user and date.
func (r *Repository) ListSummaries(ctx context.Context) ([]domain.DailySummary, error) {
	const query = `SELECT user_id, date, total_steps, distance, average_heart_beat, kcal_burned
        FROM user_daily_summary ORDER BY user_id, date`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		var summary domain.DailySummary
		if err := rows.Scan(&summary.UserID, &summary.Date, &summary.TotalSteps, &summary.Distance, &summary.AverageHeartBeat, &summary.KcalBurned); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}
