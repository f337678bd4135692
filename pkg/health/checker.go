// Package health runs the datasource health check end to end.
package health

import (
	"context"
	"fmt"

	"sendgrid-grafana-plugin/pkg/client"
	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/statsiface"
	"sendgrid-grafana-plugin/pkg/validator"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// ExecuteHealthCheck answers Grafana's "Save & test" for one datasource
// instance. Settings problems and API failures are reported as an error
// status with a user-facing message; the returned error is reserved for
// failures of the plugin itself.
func ExecuteHealthCheck(ctx context.Context, dsSettings backend.DataSourceInstanceSettings, opts client.Options) (*backend.CheckHealthResult, error) {
	logger := log.DefaultLogger.FromContext(ctx)
	logger.Debug("health.ExecuteHealthCheck: Starting health check")

	settings, err := models.LoadPluginSettings(dsSettings)
	if err != nil {
		logger.Error("health.ExecuteHealthCheck: Failed to load plugin settings", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Failed to load datasource configuration: %s", err.Error()),
		}, nil
	}
	settings.ApplyEnv(opts.Env)

	if err := validator.ValidatePluginSettings(settings); err != nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Plugin configuration validation failed: %s", err.Error()),
		}, nil
	}

	sgClient, err := client.CreateSendGridClient(settings, opts)
	if err != nil {
		logger.Error("health.ExecuteHealthCheck: Failed to create SendGrid client", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("SendGrid client failed to initialize: %s", err.Error()),
		}, nil
	}

	healthResult, err := validator.CheckHealth(ctx, settings, &statsiface.RealStatsExecutor{Client: sgClient})
	if err != nil {
		logger.Error("health.ExecuteHealthCheck: Unexpected error from validator.CheckHealth", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Internal error during SendGrid API check: %s", err.Error()),
		}, nil
	}

	logger.Debug("health.ExecuteHealthCheck: Health check completed", "status", healthResult.Status.String(), "message", healthResult.Message)
	return healthResult, nil
}
