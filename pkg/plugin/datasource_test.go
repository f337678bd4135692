package plugin

import (
	"context"
	"net/http"
	"testing"

	"sendgrid-grafana-plugin/pkg/client"
	"sendgrid-grafana-plugin/pkg/config"
	"sendgrid-grafana-plugin/pkg/testutil"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statsBody = `[
	{"date": "2024-01-01", "stats": [{"metrics": {"opens": 4, "clicks": 1, "delivered": 10}}]},
	{"date": "2024-01-02", "stats": [{"metrics": {"opens": 6, "clicks": 2, "delivered": 12}}]}
]`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SENDGRID_API_KEY", "SENDGRID_HOST", "SENDGRID_TIMEOUT",
		"SENDGRID_RETRY_COUNT", "SENDGRID_RATE_LIMIT", "SENDGRID_RATE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestNewDatasource(t *testing.T) {
	clearEnv(t)

	ds, err := NewDatasource(context.Background(), backend.DataSourceInstanceSettings{})
	require.NoError(t, err)
	require.NotNil(t, ds)

	sgds, ok := ds.(*Datasource)
	require.True(t, ok)
	require.NotNil(t, sgds.clientOpts.Env)
	assert.Equal(t, "https://api.sendgrid.com", sgds.clientOpts.Env.Host)
	assert.NotNil(t, sgds.clientOpts.Limiter)
}

func TestNewDatasource_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENDGRID_TIMEOUT", "soon")

	ds, err := NewDatasource(context.Background(), backend.DataSourceInstanceSettings{})
	require.Error(t, err)
	assert.Nil(t, ds)
}

func TestDispose(t *testing.T) {
	ds := newDatasource(client.Options{})
	// Should not panic
	ds.Dispose()
}

func TestQueryData(t *testing.T) {
	tests := []struct {
		name    string
		queries []backend.DataQuery
	}{
		{
			name:    "empty queries",
			queries: []backend.DataQuery{},
		},
		{
			name: "single query",
			queries: []backend.DataQuery{
				testutil.CreateTestQuery(t, "A", "opens"),
			},
		},
		{
			name: "multiple queries",
			queries: []backend.DataQuery{
				testutil.CreateTestQuery(t, "A", "opens"),
				testutil.CreateTestQuery(t, "B", "clicks delivered"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeSendGrid(t, http.StatusOK, statsBody)
			settings := testutil.CreateTestSettings(t, fake.URL, "SG.test")

			ds := newDatasource(client.Options{})
			resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
				PluginContext: testutil.CreateTestPluginContext(t, settings),
				Queries:       tt.queries,
			})
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Len(t, resp.Responses, len(tt.queries))
			assert.Equal(t, int64(len(tt.queries)), fake.Requests())

			for _, q := range tt.queries {
				res, ok := resp.Responses[q.RefID]
				require.True(t, ok)
				require.NoError(t, res.Error)
				require.Len(t, res.Frames, 1)
				assert.Equal(t, q.RefID, res.Frames[0].RefID)
				rows, err := res.Frames[0].RowLen()
				require.NoError(t, err)
				assert.Equal(t, 2, rows)
			}
		})
	}
}

func TestQueryData_FieldsPerQuery(t *testing.T) {
	fake := testutil.NewFakeSendGrid(t, http.StatusOK, statsBody)
	settings := testutil.CreateTestSettings(t, fake.URL, "SG.test")

	ds := newDatasource(client.Options{})
	resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
		PluginContext: testutil.CreateTestPluginContext(t, settings),
		Queries: []backend.DataQuery{
			testutil.CreateTestQuery(t, "A", "clicks, opens"),
		},
	})
	require.NoError(t, err)

	frame := resp.Responses["A"].Frames[0]
	testutil.AssertFrameFields(t, frame, []string{"time", "clicks", "opens"})
	assert.Equal(t, int64(1), frame.Fields[1].At(0))
	assert.Equal(t, int64(6), frame.Fields[2].At(1))

	last := fake.LastRequest.Load()
	require.NotNil(t, last)
	assert.Equal(t, "/v3/stats", last.URL.Path)
	assert.Equal(t, "Bearer SG.test", last.Header.Get("Authorization"))
}

func TestQueryData_QueryErrorsStayPerQuery(t *testing.T) {
	fake := testutil.NewFakeSendGrid(t, http.StatusOK, statsBody)
	settings := testutil.CreateTestSettings(t, fake.URL, "SG.test")

	ds := newDatasource(client.Options{})
	resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
		PluginContext: testutil.CreateTestPluginContext(t, settings),
		Queries: []backend.DataQuery{
			testutil.CreateTestQuery(t, "A", "opens"),
			testutil.CreateTestQuery(t, "B", "views"),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Responses, 2)
	assert.NoError(t, resp.Responses["A"].Error)
	require.Error(t, resp.Responses["B"].Error)
	assert.Contains(t, resp.Responses["B"].Error.Error(), "views")
	assert.Equal(t, int64(1), fake.Requests())
}

func TestQueryData_SettingsErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings *backend.DataSourceInstanceSettings
		wantErr  string
	}{
		{
			name:     "missing settings",
			settings: nil,
			wantErr:  "missing datasource instance settings",
		},
		{
			name:     "invalid JSON data",
			settings: &backend.DataSourceInstanceSettings{JSONData: []byte(`{`)},
			wantErr:  "failed to load plugin settings",
		},
		{
			name:     "missing API key",
			settings: &backend.DataSourceInstanceSettings{JSONData: []byte(`{}`)},
			wantErr:  "invalid plugin configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newDatasource(client.Options{})
			resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
				PluginContext: backend.PluginContext{DataSourceInstanceSettings: tt.settings},
				Queries:       []backend.DataQuery{testutil.CreateTestQuery(t, "A", "")},
			})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQueryData_EnvironmentKey(t *testing.T) {
	fake := testutil.NewFakeSendGrid(t, http.StatusOK, `[]`)
	settings := testutil.CreateTestSettings(t, "", "")

	ds := newDatasource(client.Options{Env: &config.Env{APIKey: "SG.env", Host: fake.URL}})
	resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
		PluginContext: testutil.CreateTestPluginContext(t, settings),
		Queries:       []backend.DataQuery{testutil.CreateTestQuery(t, "A", "")},
	})
	require.NoError(t, err)
	assert.NoError(t, resp.Responses["A"].Error)

	last := fake.LastRequest.Load()
	require.NotNil(t, last)
	assert.Equal(t, "Bearer SG.env", last.Header.Get("Authorization"))
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		apiKey         string
		missing        bool
		expectedStatus backend.HealthStatus
	}{
		{
			name:           "valid settings",
			status:         http.StatusOK,
			apiKey:         "SG.test",
			expectedStatus: backend.HealthStatusOk,
		},
		{
			name:           "rejected key",
			status:         http.StatusForbidden,
			apiKey:         "SG.test",
			expectedStatus: backend.HealthStatusError,
		},
		{
			name:           "missing credentials",
			status:         http.StatusOK,
			expectedStatus: backend.HealthStatusError,
		},
		{
			name:           "missing settings",
			missing:        true,
			expectedStatus: backend.HealthStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeSendGrid(t, tt.status, `[]`)
			pluginCtx := testutil.CreateTestPluginContext(t, testutil.CreateTestSettings(t, fake.URL, tt.apiKey))
			if tt.missing {
				pluginCtx = backend.PluginContext{}
			}

			ds := newDatasource(client.Options{})
			resp, err := ds.CheckHealth(context.Background(), &backend.CheckHealthRequest{PluginContext: pluginCtx})
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedStatus, resp.Status)
		})
	}
}

type captureSender struct {
	responses []*backend.CallResourceResponse
}

func (s *captureSender) Send(resp *backend.CallResourceResponse) error {
	s.responses = append(s.responses, resp)
	return nil
}

func TestCallResource(t *testing.T) {
	ds := newDatasource(client.Options{})
	sender := &captureSender{}

	err := ds.CallResource(context.Background(), &backend.CallResourceRequest{
		Method: http.MethodGet,
		Path:   "metrics",
		URL:    "/metrics",
	}, sender)
	require.NoError(t, err)
	require.Len(t, sender.responses, 1)
	assert.Equal(t, http.StatusOK, sender.responses[0].Status)
	assert.Contains(t, string(sender.responses[0].Body), `"uniqueOpens"`)
}
