// Package handler processes incoming query requests from Grafana and fetches
// email statistics from the SendGrid API. It handles query parsing, validation,
// execution, and response formatting with proper error handling.
package handler

import (
	"context"
	"fmt"
	"time"

	"sendgrid-grafana-plugin/pkg/formatter"
	"sendgrid-grafana-plugin/pkg/metrics"
	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/sendgrid"
	"sendgrid-grafana-plugin/pkg/statsiface"
	"sendgrid-grafana-plugin/pkg/utils"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// StatsExecutionError represents an error while fetching statistics.
type StatsExecutionError struct {
	Request string
	Msg     string
	Err     error // Wrapped error
}

func (e *StatsExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stats query error for '%s': %s: %v", e.Request, e.Msg, e.Err)
	}
	return fmt.Sprintf("stats query error for '%s': %s", e.Request, e.Msg)
}

func (e *StatsExecutionError) Unwrap() error {
	return e.Err
}

// BuildStatsRequest maps a query and its Grafana time range to a stats request.
func BuildStatsRequest(qm *models.QueryModel, timeRange backend.TimeRange) sendgrid.StatsRequest {
	start, end := utils.DateRange(timeRange)
	return sendgrid.StatsRequest{
		StartDate:    start,
		EndDate:      end,
		AggregatedBy: qm.AggregatedBy,
	}
}

// ExecuteStatsQuery runs req through executor.
func ExecuteStatsQuery(ctx context.Context, executor statsiface.StatsQueryExecutor, req sendgrid.StatsRequest) ([]sendgrid.DailyStats, error) {
	if executor == nil {
		return nil, &StatsExecutionError{Request: req.String(), Msg: "stats query executor is nil, cannot execute query"}
	}
	if req.StartDate == "" {
		return nil, &StatsExecutionError{Request: req.String(), Msg: "start date cannot be empty"}
	}

	stats, err := executor.GlobalStats(ctx, req)
	if err != nil {
		return nil, &StatsExecutionError{Request: req.String(), Msg: "error from SendGrid API", Err: err}
	}
	return stats, nil
}

// HandleQuery processes a single Grafana data query. Failures are reported
// in the returned response's Error and never affect other queries.
func HandleQuery(ctx context.Context, executor statsiface.StatsQueryExecutor, query backend.DataQuery) (resp *backend.DataResponse) {
	logger := log.DefaultLogger.FromContext(ctx)
	started := time.Now()
	metrics.IncrementConcurrentQueries()
	defer func() {
		metrics.DecrementConcurrentQueries()
		metrics.RecordQuery(time.Since(started), resp.Error)
	}()

	qm, err := models.ParseQuery(query.JSON)
	if err != nil {
		logger.Error("Error parsing query JSON", "refId", query.RefID, "error", err)
		return &backend.DataResponse{Error: err}
	}
	if err := qm.Validate(); err != nil {
		logger.Warn("Rejecting invalid query", "refId", query.RefID, "error", err)
		return &backend.DataResponse{Error: err}
	}

	req := BuildStatsRequest(qm, query.TimeRange)
	selected := qm.SelectedMetrics()
	logger.Debug("Processing query", "refId", query.RefID, "request", req.String(), "metrics", len(selected), "constant", qm.Constant)

	stats, err := ExecuteStatsQuery(ctx, executor, req)
	if err != nil {
		logger.Error("Stats query execution failed", "refId", query.RefID, "request", req.String(), "error", err)
		return &backend.DataResponse{Error: fmt.Errorf("stats query execution failed: %w", err)}
	}

	resp = formatter.FormatStats(stats, selected, req.String(), query)
	for _, frame := range resp.Frames {
		frame.RefID = query.RefID
		if frame.Meta != nil {
			frame.Meta.Custom = map[string]interface{}{"constant": qm.Constant}
		}
	}
	return resp
}
