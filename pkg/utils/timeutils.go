package utils

import (
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// DateRange converts a Grafana time range to the inclusive start and end
// dates of the SendGrid stats API. The end date is the day before To, since a
// range ending at midnight should not include the following empty day. The end
// never precedes the start.
func DateRange(timeRange backend.TimeRange) (string, string) {
	from := timeRange.From.UTC()
	to := timeRange.To.UTC().Add(-24 * time.Hour)

	start := truncateToDay(from)
	end := truncateToDay(to)
	if end.Before(start) {
		end = start
	}
	return start.Format(StatsDateLayout), end.Format(StatsDateLayout)
}

// YesterdayRange returns the single-day range covering the day before now.
func YesterdayRange(now time.Time) backend.TimeRange {
	today := truncateToDay(now.UTC())
	return backend.TimeRange{
		From: today.Add(-24 * time.Hour),
		To:   today,
	}
}

// ParseStatsDate parses a date returned by the SendGrid stats API as UTC midnight.
func ParseStatsDate(date string) (time.Time, error) {
	return time.Parse(StatsDateLayout, date)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
