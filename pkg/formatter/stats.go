// Package formatter turns SendGrid statistics into Grafana data frames.
package formatter

import (
	"sort"
	"time"

	"sendgrid-grafana-plugin/pkg/sendgrid"
	"sendgrid-grafana-plugin/pkg/utils"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/data"
)

type row struct {
	at      time.Time
	metrics sendgrid.Metrics
}

// FormatStats builds a single wide frame: a time field followed by one int64
// field per metric in metricNames. Entries of the same day are summed and
// rows are ordered by date. executed is recorded as the frame's executed query.
func FormatStats(stats []sendgrid.DailyStats, metricNames []string, executed string, query backend.DataQuery) *backend.DataResponse {
	resp := &backend.DataResponse{}

	rows := make([]row, 0, len(stats))
	for _, day := range stats {
		at, err := utils.ParseStatsDate(day.Date)
		if err != nil {
			log.DefaultLogger.Warn("Skipping stats bucket with unparseable date", "refId", query.RefID, "date", day.Date, "error", err)
			continue
		}
		rows = append(rows, row{at: at, metrics: day.Total()})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	times := make([]time.Time, len(rows))
	for i, r := range rows {
		times[i] = r.at
	}

	frame := data.NewFrame(utils.StandardResponseFrameName,
		data.NewField(utils.TimeFieldName, nil, times),
	)

	for _, name := range metricNames {
		if !sendgrid.IsMetric(name) {
			log.DefaultLogger.Warn("Skipping unknown metric", "refId", query.RefID, "metric", name)
			continue
		}
		values := make([]int64, len(rows))
		for i, r := range rows {
			values[i], _ = r.metrics.Value(name)
		}
		frame.Fields = append(frame.Fields, data.NewField(name, nil, values))
	}

	frame.SetMeta(&data.FrameMeta{
		Type:                data.FrameTypeTimeSeriesWide,
		ExecutedQueryString: executed,
	})

	resp.Frames = append(resp.Frames, frame)
	return resp
}
