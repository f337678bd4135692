// Package plugin implements the SendGrid Grafana datasource plugin.
// It answers Grafana queries with email statistics read from the SendGrid API.
package plugin

import (
	"context"
	"fmt"

	"sendgrid-grafana-plugin/pkg/client"
	"sendgrid-grafana-plugin/pkg/config"
	"sendgrid-grafana-plugin/pkg/handler"
	"sendgrid-grafana-plugin/pkg/health"
	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/ratelimit"
	"sendgrid-grafana-plugin/pkg/resource"
	"sendgrid-grafana-plugin/pkg/statsiface"
	"sendgrid-grafana-plugin/pkg/validator"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"
)

var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ backend.CallResourceHandler   = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

// Datasource implements the SendGrid Grafana datasource plugin.
// It handles data queries, health checks, and resource calls.
type Datasource struct {
	clientOpts client.Options
	resources  backend.CallResourceHandler
}

// NewDatasource is the instance factory handed to datasource.Manage. It reads
// the SENDGRID_* environment once per instance and shares one rate limiter
// between all queries of the instance. Per-instance settings are loaded on
// every request, so edits in Grafana apply without a restart.
func NewDatasource(ctx context.Context, settings backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	env, err := config.Load()
	if err != nil {
		log.DefaultLogger.FromContext(ctx).Error("Invalid plugin environment", "error", err)
		return nil, err
	}

	limiter := ratelimit.NewRateLimiter(env.RateLimit, env.RateBurst)
	log.DefaultLogger.FromContext(ctx).Debug("SendGrid Datasource instance created",
		"datasourceID", settings.ID, "rateLimit", env.RateLimit, "rateBurst", env.RateBurst)

	return newDatasource(client.Options{Env: env, Limiter: limiter}), nil
}

func newDatasource(opts client.Options) *Datasource {
	return &Datasource{
		clientOpts: opts,
		resources:  httpadapter.New(resource.NewRouter()),
	}
}

// Dispose is called when Grafana replaces the instance after a settings change.
func (d *Datasource) Dispose() {
	log.DefaultLogger.Debug("SendGrid Datasource instance disposed")
}

// QueryData runs every query of the request concurrently against one SendGrid
// client. Query failures land in the matching DataResponse; only settings
// and client problems fail the whole request.
func (d *Datasource) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	logger := log.DefaultLogger.FromContext(ctx)
	response := backend.NewQueryDataResponse()

	if req.PluginContext.DataSourceInstanceSettings == nil {
		return nil, fmt.Errorf("missing datasource instance settings")
	}
	dsSettings := req.PluginContext.DataSourceInstanceSettings

	pluginSettings, err := models.LoadPluginSettings(*dsSettings)
	if err != nil {
		logger.Error("Failed to load plugin settings", "error", err, "datasourceID", dsSettings.ID)
		return nil, fmt.Errorf("failed to load plugin settings: %w", err)
	}
	pluginSettings.ApplyEnv(d.clientOpts.Env)

	if err := validator.ValidatePluginSettings(pluginSettings); err != nil {
		logger.Error("Invalid plugin configuration", "error", err, "datasourceID", dsSettings.ID)
		return nil, fmt.Errorf("invalid plugin configuration: %w", err)
	}

	sgClient, err := client.CreateSendGridClient(pluginSettings, d.clientOpts)
	if err != nil {
		logger.Error("Failed to create SendGrid client", "error", err, "datasourceID", dsSettings.ID)
		return nil, fmt.Errorf("failed to create SendGrid client: %w", err)
	}

	executor := &statsiface.RealStatsExecutor{Client: sgClient}

	type queryResult struct {
		refID string
		res   backend.DataResponse
	}
	queryResults := make(chan queryResult, len(req.Queries))

	for _, q := range req.Queries {
		go func(query backend.DataQuery) {
			res := handler.HandleQuery(ctx, executor, query)
			queryResults <- queryResult{query.RefID, *res}
		}(q)
	}

	for i := 0; i < len(req.Queries); i++ {
		result := <-queryResults
		response.Responses[result.refID] = result.res
	}

	return response, nil
}

// CheckHealth routes Grafana's health check to the health package.
func (d *Datasource) CheckHealth(ctx context.Context, req *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	log.DefaultLogger.FromContext(ctx).Debug("Datasource.CheckHealth: routing health check")

	if req.PluginContext.DataSourceInstanceSettings == nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: "Datasource settings are missing from the health check request.",
		}, nil
	}

	healthResult, err := health.ExecuteHealthCheck(ctx, *req.PluginContext.DataSourceInstanceSettings, d.clientOpts)
	if err != nil {
		log.DefaultLogger.FromContext(ctx).Error("Datasource.CheckHealth: health check failed internally", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Health check encountered an internal error: %s", err.Error()),
		}, nil
	}

	return healthResult, nil
}

// CallResource serves the editor endpoints of the resource package.
func (d *Datasource) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	log.DefaultLogger.FromContext(ctx).Debug("Datasource.CallResource", "path", req.Path, "method", req.Method)
	return d.resources.CallResource(ctx, req, sender)
}
