package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittracker/internal/domain"
)

func TestWriteSummariesRoundTrip(t *testing.T) {
	date := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.DailySummary{
		{UserID: "u1", Date: date, TotalSteps: 3000, Distance: 2.1, AverageHeartBeat: 90, KcalBurned: 6.12},
		{UserID: "u2", Date: date.AddDate(0, 0, 1), TotalSteps: 12000, Distance: 8.4, AverageHeartBeat: 101.5, KcalBurned: 33.08},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, rows))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	require.Equal(t, Columns, parsed[0])
	require.Equal(t, []string{"u1", "3000", "2.1", "90", "6.12", "2024-05-01"}, parsed[1])
	require.Equal(t, []string{"u2", "12000", "8.4", "101.5", "33.08", "2024-05-02"}, parsed[2])
}

func TestWriteSummariesEmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, nil))
	require.Equal(t, "user_id,total_steps,distance,average_heart_beat,kcal_burned,date\n", buf.String())
}
