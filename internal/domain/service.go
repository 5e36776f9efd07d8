// Package domain defines the business logic for the fit-tracker service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrUserNotFound is returned when no raw sample exists for a user.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSamples is returned when a user has no samples on the requested day.
	ErrNoSamples = errors.New("no samples for user on date")
	// ErrNoSummaries is returned when the summary table is empty on export.
	ErrNoSummaries = errors.New("no daily summaries stored")
)

// Repository captures persistence operations for samples and summaries.
type Repository interface {
	InsertSample(ctx context.Context, sample RawSample) error
	FirstSampleByUser(ctx context.Context, userID string) (*RawSample, error)
	SamplesForDay(ctx context.Context, userID string, day time.Time) ([]RawSample, error)
	UpsertDailySummary(ctx context.Context, summary DailySummary) error
	ListSummaries(ctx context.Context) ([]DailySummary, error)
}

// Service orchestrates sample lookups and summary aggregation.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetUser returns the first stored sample for the user, matching the order
// samples were ingested.
func (s *Service) GetUser(ctx context.Context, userID string) (*RawSample, error) {
	sample, err := s.repo.FirstSampleByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, ErrUserNotFound
	}
	return sample, nil
}

// GetDailySummary recomputes the aggregate for (userID, day) from the day's
// raw samples, upserts it, and returns the stored values. Returns
// ErrNoSamples when the user has no samples within the calendar day.
func (s *Service) GetDailySummary(ctx context.Context, userID string, day time.Time) (DailySummary, error) {
	samples, err := s.repo.SamplesForDay(ctx, userID, day)
	if err != nil {
		return DailySummary{}, err
	}
	if len(samples) == 0 {
		return DailySummary{}, ErrNoSamples
	}

	summary := ComputeDailySummary(userID, day, samples)
	if err := s.repo.UpsertDailySummary(ctx, summary); err != nil {
		return DailySummary{}, fmt.Errorf("upsert daily summary: %w", err)
	}
	return summary, nil
}

// ExportSummaries returns every stored daily summary, or ErrNoSummaries when
// none exist.
func (s *Service) ExportSummaries(ctx context.Context) ([]DailySummary, error) {
	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNoSummaries
	}
	return summaries, nil
}

// ComputeDailySummary derives the aggregate figures for one user-day.
// kcal uses the weight from the first sample; samples are assumed to share
// one weight value per user per day.
func ComputeDailySummary(userID string, day time.Time, samples []RawSample) DailySummary {
	var totalSteps, totalHeartBeat int
	var totalMET float64
	for _, sample := range samples {
		totalSteps += sample.Steps
		totalHeartBeat += sample.HeartBeat
		totalMET += sample.MET
	}

	n := float64(len(samples))
	weight := float64(samples[0].Weight)

	return DailySummary{
		UserID:           userID,
		Date:             day,
		TotalSteps:       totalSteps,
		Distance:         round2(float64(totalSteps) / 1000 * 0.7), // 1000 steps = 0.7 km
		AverageHeartBeat: round2(float64(totalHeartBeat) / n),
		KcalBurned:       round2(n * (totalMET * 3.5 * weight / 200)),
	}
}

// round2 rounds half-to-even at two decimals, reproducing the figures the
// upstream platform publishes (6.125 rounds to 6.12).
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
