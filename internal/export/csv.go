// Package export serializes daily summaries for bulk download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"example.com/fittracker/internal/domain"
)

// Columns is the fixed CSV column order for summary exports.
var Columns = []string{"user_id", "total_steps", "distance", "average_heart_beat", "kcal_burned", "date"}

// WriteSummaries writes rows as CSV to w, header first.
func WriteSummaries(w io.Writer, rows []domain.DailySummary) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.UserID,
			strconv.Itoa(row.TotalSteps),
			formatFloat(row.Distance),
			formatFloat(row.AverageHeartBeat),
			formatFloat(row.KcalBurned),
			row.Date.Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
