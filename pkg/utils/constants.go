// Package utils defines shared constants and time helpers used throughout the
// SendGrid Grafana plugin.
package utils

const (
	// Field names used in Grafana DataFrames
	TimeFieldName = "time" // Field name for the bucket date of each row

	// Frame names used for Grafana DataFrames
	StandardResponseFrameName = "response" // Name for standard query response frames

	// StatsDateLayout is the date format of the SendGrid stats API.
	StatsDateLayout = "2006-01-02"
)
