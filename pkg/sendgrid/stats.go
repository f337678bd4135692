package sendgrid

import (
	"fmt"
	"strconv"
)

// Metric names as exposed to Grafana. The order is the column order of the
// frames returned to dashboards.
const (
	MetricProcessed        = "processed"
	MetricRequests         = "requests"
	MetricDelivered        = "delivered"
	MetricDeferred         = "deferred"
	MetricOpens            = "opens"
	MetricUniqueOpens      = "uniqueOpens"
	MetricClicks           = "clicks"
	MetricUniqueClicks     = "uniqueClicks"
	MetricBounces          = "bounces"
	MetricBounceDrops      = "bounceDrops"
	MetricBlocks           = "blocks"
	MetricInvalidEmails    = "invalidEmails"
	MetricSpamReports      = "spamReports"
	MetricSpamReportDrops  = "spamReportDrops"
	MetricUnsubscribes     = "unsubscribes"
	MetricUnsubscribeDrops = "unsubscribeDrops"
)

// MetricNames lists every metric returned by the global stats endpoint.
var MetricNames = []string{
	MetricProcessed,
	MetricRequests,
	MetricDelivered,
	MetricDeferred,
	MetricOpens,
	MetricUniqueOpens,
	MetricClicks,
	MetricUniqueClicks,
	MetricBounces,
	MetricBounceDrops,
	MetricBlocks,
	MetricInvalidEmails,
	MetricSpamReports,
	MetricSpamReportDrops,
	MetricUnsubscribes,
	MetricUnsubscribeDrops,
}

// IsMetric reports whether name is one of MetricNames.
func IsMetric(name string) bool {
	for _, m := range MetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// Aggregation periods accepted by the stats endpoint.
const (
	AggregateByDay   = "day"
	AggregateByWeek  = "week"
	AggregateByMonth = "month"
)

// StatsRequest describes a call to GET /v3/stats.
type StatsRequest struct {
	StartDate    string // YYYY-MM-DD, required
	EndDate      string // YYYY-MM-DD, optional
	AggregatedBy string
	Limit        int
	Offset       int
}

func (r StatsRequest) queryParams() map[string]string {
	params := map[string]string{
		"start_date": r.StartDate,
	}
	if r.EndDate != "" {
		params["end_date"] = r.EndDate
	}
	if r.AggregatedBy != "" {
		params["aggregated_by"] = r.AggregatedBy
	}
	if r.Limit > 0 {
		params["limit"] = strconv.Itoa(r.Limit)
	}
	if r.Offset > 0 {
		params["offset"] = strconv.Itoa(r.Offset)
	}
	return params
}

// String renders the request the way it is sent, for frame metadata and logs.
func (r StatsRequest) String() string {
	s := fmt.Sprintf("GET /v3/stats start_date=%s", r.StartDate)
	if r.EndDate != "" {
		s += " end_date=" + r.EndDate
	}
	if r.AggregatedBy != "" {
		s += " aggregated_by=" + r.AggregatedBy
	}
	return s
}

// DailyStats is one element of the /v3/stats response.
type DailyStats struct {
	Date  string      `json:"date"`
	Stats []StatEntry `json:"stats"`
}

// StatEntry holds the metrics of one stats bucket within a day.
type StatEntry struct {
	Metrics Metrics `json:"metrics"`
}

// Metrics are the email activity counters SendGrid reports.
type Metrics struct {
	Blocks           int64 `json:"blocks"`
	BounceDrops      int64 `json:"bounce_drops"`
	Bounces          int64 `json:"bounces"`
	Clicks           int64 `json:"clicks"`
	Deferred         int64 `json:"deferred"`
	Delivered        int64 `json:"delivered"`
	InvalidEmails    int64 `json:"invalid_emails"`
	Opens            int64 `json:"opens"`
	Processed        int64 `json:"processed"`
	Requests         int64 `json:"requests"`
	SpamReportDrops  int64 `json:"spam_report_drops"`
	SpamReports      int64 `json:"spam_reports"`
	UniqueClicks     int64 `json:"unique_clicks"`
	UniqueOpens      int64 `json:"unique_opens"`
	UnsubscribeDrops int64 `json:"unsubscribe_drops"`
	Unsubscribes     int64 `json:"unsubscribes"`
}

// Add returns the element-wise sum of m and o.
func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		Blocks:           m.Blocks + o.Blocks,
		BounceDrops:      m.BounceDrops + o.BounceDrops,
		Bounces:          m.Bounces + o.Bounces,
		Clicks:           m.Clicks + o.Clicks,
		Deferred:         m.Deferred + o.Deferred,
		Delivered:        m.Delivered + o.Delivered,
		InvalidEmails:    m.InvalidEmails + o.InvalidEmails,
		Opens:            m.Opens + o.Opens,
		Processed:        m.Processed + o.Processed,
		Requests:         m.Requests + o.Requests,
		SpamReportDrops:  m.SpamReportDrops + o.SpamReportDrops,
		SpamReports:      m.SpamReports + o.SpamReports,
		UniqueClicks:     m.UniqueClicks + o.UniqueClicks,
		UniqueOpens:      m.UniqueOpens + o.UniqueOpens,
		UnsubscribeDrops: m.UnsubscribeDrops + o.UnsubscribeDrops,
		Unsubscribes:     m.Unsubscribes + o.Unsubscribes,
	}
}

// Value returns the counter for a metric name and whether the name is known.
func (m Metrics) Value(name string) (int64, bool) {
	switch name {
	case MetricProcessed:
		return m.Processed, true
	case MetricRequests:
		return m.Requests, true
	case MetricDelivered:
		return m.Delivered, true
	case MetricDeferred:
		return m.Deferred, true
	case MetricOpens:
		return m.Opens, true
	case MetricUniqueOpens:
		return m.UniqueOpens, true
	case MetricClicks:
		return m.Clicks, true
	case MetricUniqueClicks:
		return m.UniqueClicks, true
	case MetricBounces:
		return m.Bounces, true
	case MetricBounceDrops:
		return m.BounceDrops, true
	case MetricBlocks:
		return m.Blocks, true
	case MetricInvalidEmails:
		return m.InvalidEmails, true
	case MetricSpamReports:
		return m.SpamReports, true
	case MetricSpamReportDrops:
		return m.SpamReportDrops, true
	case MetricUnsubscribes:
		return m.Unsubscribes, true
	case MetricUnsubscribeDrops:
		return m.UnsubscribeDrops, true
	}
	return 0, false
}

// Total sums the metrics of every entry of the day.
func (d DailyStats) Total() Metrics {
	var total Metrics
	for _, s := range d.Stats {
		total = total.Add(s.Metrics)
	}
	return total
}
