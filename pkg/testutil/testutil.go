package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/stretchr/testify/require"
)

// MockTimeNow returns a fixed time for testing
func MockTimeNow() time.Time {
	return time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
}

// CreateTestQuery creates a test query with the given refID and query text.
// An empty queryText is left out of the JSON.
func CreateTestQuery(t *testing.T, refID string, queryText string) backend.DataQuery {
	t.Helper()

	queryJSON := map[string]interface{}{
		"refId": refID,
	}
	if queryText != "" {
		queryJSON["queryText"] = queryText
	}

	return CreateTestQueryJSON(t, refID, queryJSON)
}

// CreateTestQueryJSON creates a test query from an arbitrary JSON model
// covering the week before MockTimeNow.
func CreateTestQueryJSON(t *testing.T, refID string, model map[string]interface{}) backend.DataQuery {
	t.Helper()

	jsonBytes, err := json.Marshal(model)
	require.NoError(t, err)

	return backend.DataQuery{
		RefID: refID,
		JSON:  jsonBytes,
		TimeRange: backend.TimeRange{
			From: MockTimeNow().Add(-7 * 24 * time.Hour),
			To:   MockTimeNow(),
		},
	}
}

// CreateTestSettings creates datasource settings pointing at host with the
// given secure API key.
func CreateTestSettings(t *testing.T, host string, apiKey string) *backend.DataSourceInstanceSettings {
	t.Helper()

	jsonData, err := json.Marshal(map[string]string{"host": host})
	require.NoError(t, err)

	secure := map[string]string{}
	if apiKey != "" {
		secure["sendgridApiKey"] = apiKey
	}
	return &backend.DataSourceInstanceSettings{
		ID:                      1,
		UID:                     "sendgrid-test",
		Name:                    "sendgrid",
		JSONData:                jsonData,
		DecryptedSecureJSONData: secure,
	}
}

// FakeSendGrid is an httptest server answering every request with a fixed
// status and body.
type FakeSendGrid struct {
	*httptest.Server
	requests atomic.Int64
	// LastRequest is the most recent request seen by the server.
	LastRequest atomic.Pointer[http.Request]
}

// NewFakeSendGrid starts a FakeSendGrid that is closed with the test.
func NewFakeSendGrid(t *testing.T, status int, body string) *FakeSendGrid {
	t.Helper()

	fake := &FakeSendGrid{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.requests.Add(1)
		fake.LastRequest.Store(r.Clone(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fake.Close)
	return fake
}

// Requests returns how many requests the server has received.
func (f *FakeSendGrid) Requests() int64 {
	return f.requests.Load()
}

// AssertFrameFields checks if a data frame has the expected fields
func AssertFrameFields(t *testing.T, frame *data.Frame, expectedFields []string) {
	t.Helper()

	require.Equal(t, len(expectedFields), len(frame.Fields), "number of fields")
	for i, field := range frame.Fields {
		require.Equal(t, expectedFields[i], field.Name, "field name")
	}
}

// CreateTestPluginContext creates a test plugin context
func CreateTestPluginContext(t *testing.T, settings *backend.DataSourceInstanceSettings) backend.PluginContext {
	t.Helper()
	return backend.PluginContext{
		DataSourceInstanceSettings: settings,
	}
}
