package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestComputeDailySummary(t *testing.T) {
	d := day(t, "2024-05-01")
	samples := []RawSample{
		{UserID: "u1", Steps: 1000, HeartBeat: 80, MET: 1.0, Weight: 70, Timestamp: d.Add(8 * time.Hour)},
		{UserID: "u1", Steps: 2000, HeartBeat: 100, MET: 1.5, Weight: 70, Timestamp: d.Add(14 * time.Hour)},
	}

	summary := ComputeDailySummary("u1", d, samples)

	require.Equal(t, 3000, summary.TotalSteps)
	require.Equal(t, 2.10, summary.Distance)
	require.Equal(t, 90.0, summary.AverageHeartBeat)
	// 2 * (2.5 * 3.5 * 70 / 200) = 6.125, rounded half-even to 6.12.
	require.Equal(t, 6.12, summary.KcalBurned)
}

func TestGetDailySummaryUpsertsAndIsIdempotent(t *testing.T) {
	d := day(t, "2024-05-01")
	repo := &stubRepo{
		samples: []RawSample{
			{ID: 1, UserID: "u1", Steps: 1000, HeartBeat: 80, MET: 1.0, Weight: 70, Timestamp: d.Add(time.Hour)},
			{ID: 2, UserID: "u1", Steps: 2000, HeartBeat: 100, MET: 1.5, Weight: 70, Timestamp: d.Add(2 * time.Hour)},
		},
		summaries: map[string]DailySummary{},
	}
	service := NewService(repo)

	first, err := service.GetDailySummary(context.Background(), "u1", d)
	require.NoError(t, err)

	second, err := service.GetDailySummary(context.Background(), "u1", d)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, repo.summaries, 1)
	require.Equal(t, first, repo.summaries["u1|2024-05-01"])
}

func TestGetDailySummaryNoSamples(t *testing.T) {
	repo := &stubRepo{summaries: map[string]DailySummary{}}
	service := NewService(repo)

	_, err := service.GetDailySummary(context.Background(), "u1", day(t, "2024-05-01"))
	require.ErrorIs(t, err, ErrNoSamples)
	require.Empty(t, repo.summaries, "no row should be written for an empty day")
}

func TestGetUserUnknown(t *testing.T) {
	service := NewService(&stubRepo{})

	_, err := service.GetUser(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestExportSummariesEmpty(t *testing.T) {
	service := NewService(&stubRepo{})

	_, err := service.ExportSummaries(context.Background())
	require.ErrorIs(t, err, ErrNoSummaries)
}

type stubRepo struct {
	samples   []RawSample
	summaries map[string]DailySummary
}

func (r *stubRepo) InsertSample(_ context.Context, sample RawSample) error {
	r.samples = append(r.samples, sample)
	return nil
}

func (r *stubRepo) FirstSampleByUser(_ context.Context, userID string) (*RawSample, error) {
	for _, sample := range r.samples {
		if sample.UserID == userID {
			s := sample
			return &s, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) SamplesForDay(_ context.Context, userID string, day time.Time) ([]RawSample, error) {
	start := day
	end := day.Add(24 * time.Hour)
	var out []RawSample
	for _, sample := range r.samples {
		if sample.UserID == userID && !sample.Timestamp.Before(start) && sample.Timestamp.Before(end) {
			out = append(out, sample)
		}
	}
	return out, nil
}

func (r *stubRepo) UpsertDailySummary(_ context.Context, summary DailySummary) error {
	r.summaries[summary.UserID+"|"+summary.Date.Format("2006-01-02")] = summary
	return nil
}

func (r *stubRepo) ListSummaries(_ context.Context) ([]DailySummary, error) {
	out := make([]DailySummary, 0, len(r.summaries))
	for _, summary := range r.summaries {
		out = append(out, summary)
	}
	return out, nil
}
