package domain

import "time"

// RawSample is one enriched telemetry observation stored in Postgres.
type RawSample struct {
	ID        int64
	UserID    string
	Steps     int
	HeartBeat int
	MET       float64
	Height    int
	Weight    int
	Timestamp time.Time
}

// DailySummary is the per-user, per-day aggregate derived from raw samples.
// There is at most one row per (UserID, Date); recomputation fully
// overwrites the derived values for that key.
type DailySummary struct {
	UserID           string
	Date             time.Time
	TotalSteps       int
	Distance         float64
	AverageHeartBeat float64
	KcalBurned       float64
}
