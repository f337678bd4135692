// Package statsiface provides interfaces for SendGrid statistics queries.
// This package enables dependency injection and testing by abstracting the concrete
// SendGrid client implementation behind interfaces.
package statsiface

import (
	"context"

	"sendgrid-grafana-plugin/pkg/sendgrid"
)

// StatsQueryExecutor defines the interface for fetching email statistics from SendGrid.
type StatsQueryExecutor interface {
	GlobalStats(ctx context.Context, req sendgrid.StatsRequest) ([]sendgrid.DailyStats, error)
}

// RealStatsExecutor is a wrapper around the real sendgrid.Client that implements StatsQueryExecutor.
type RealStatsExecutor struct {
	Client *sendgrid.Client
}

// GlobalStats fetches statistics using the real SendGrid client.
func (r *RealStatsExecutor) GlobalStats(ctx context.Context, req sendgrid.StatsRequest) ([]sendgrid.DailyStats, error) {
	return r.Client.GlobalStats(ctx, req)
}
