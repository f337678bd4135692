package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sendgrid-grafana-plugin/pkg/sendgrid"

	"github.com/go-playground/validator/v10"
)

// DefaultConstant is the constant a newly created query starts with.
const DefaultConstant = 6.5

// QueryModel represents the structure of a single query sent from Grafana.
// This struct will be unmarshaled from the JSON data in backend.DataQuery.
type QueryModel struct {
	// QueryText optionally selects metrics, separated by commas or spaces.
	QueryText string  `json:"queryText,omitempty"`
	Constant  float64 `json:"constant"`
	// AggregatedBy is the SendGrid bucket size.
	AggregatedBy string `json:"aggregatedBy,omitempty" validate:"omitempty,oneof=day week month"`
	// Metrics selects metrics explicitly and takes precedence over QueryText.
	Metrics []string `json:"metrics,omitempty" validate:"omitempty,dive,sendgrid_metric"`
}

// QueryError represents a query that cannot be parsed or is invalid.
type QueryError struct {
	Msg string
	Err error // Wrapped error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid query: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid query: %s", e.Msg)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("sendgrid_metric", func(fl validator.FieldLevel) bool {
		return sendgrid.IsMetric(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("registering sendgrid_metric validation: %v", err))
	}
	return v
}

// DefaultQuery returns the values a new query starts with.
func DefaultQuery() QueryModel {
	return QueryModel{
		Constant:     DefaultConstant,
		AggregatedBy: sendgrid.AggregateByDay,
	}
}

// ParseQuery decodes the JSON of a Grafana query. Fields missing from raw keep
// their DefaultQuery value; an empty or null document is the default query.
func ParseQuery(raw json.RawMessage) (*QueryModel, error) {
	qm := DefaultQuery()

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &qm, nil
	}

	if err := json.Unmarshal(trimmed, &qm); err != nil {
		return nil, &QueryError{Msg: "error parsing query JSON", Err: err}
	}
	if qm.AggregatedBy == "" {
		qm.AggregatedBy = sendgrid.AggregateByDay
	}
	return &qm, nil
}

// SelectedMetrics returns the metrics the query asks for, without duplicates.
// With nothing selected every metric is returned in sendgrid.MetricNames order.
func (q *QueryModel) SelectedMetrics() []string {
	names := q.Metrics
	if len(names) == 0 {
		names = strings.FieldsFunc(q.QueryText, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	}
	if len(names) == 0 {
		return append([]string(nil), sendgrid.MetricNames...)
	}

	seen := make(map[string]bool, len(names))
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, name)
	}
	return selected
}

// Validate checks the aggregation and every selected metric name.
func (q *QueryModel) Validate() error {
	if q == nil {
		return &QueryError{Msg: "query model cannot be nil"}
	}
	if err := validate.Struct(q); err != nil {
		return &QueryError{Msg: "validation failed", Err: err}
	}
	for _, name := range q.SelectedMetrics() {
		if !sendgrid.IsMetric(name) {
			return &QueryError{Msg: fmt.Sprintf("unknown metric %q", name)}
		}
	}
	return nil
}
