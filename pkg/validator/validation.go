// Package validator provides validation functions for plugin settings and health checks.
// It ensures that configuration parameters are valid and that the SendGrid API
// accepts the configured key before queries are processed.
package validator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/sendgrid"
	"sendgrid-grafana-plugin/pkg/statsiface"
	"sendgrid-grafana-plugin/pkg/utils"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

var timeNow = time.Now

// ValidatePluginSettings validates the plugin settings
func ValidatePluginSettings(settings *models.PluginSettings) error {
	if settings == nil {
		return &models.PluginSettingsError{Msg: "plugin settings cannot be nil"}
	}

	if settings.APIKey() == "" {
		return &models.PluginSettingsError{Msg: "SendGrid API key is missing, enter it in the datasource settings"}
	}

	if settings.Host != "" {
		u, err := url.Parse(settings.Host)
		if err != nil {
			return &models.PluginSettingsError{Msg: fmt.Sprintf("invalid host %q", settings.Host), Err: err}
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &models.PluginSettingsError{Msg: fmt.Sprintf("host %q must be an absolute http or https URL", settings.Host)}
		}
	}

	return nil
}

// CheckHealth checks the SendGrid connection by fetching yesterday's stats.
func CheckHealth(ctx context.Context, settings *models.PluginSettings, executor statsiface.StatsQueryExecutor) (*backend.CheckHealthResult, error) {
	if executor == nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: "Stats query executor is not initialized for health check.",
		}, nil
	}

	if err := ValidatePluginSettings(settings); err != nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Plugin configuration validation failed: %s", err.Error()),
		}, nil
	}

	start, end := utils.DateRange(utils.YesterdayRange(timeNow()))
	req := sendgrid.StatsRequest{
		StartDate:    start,
		EndDate:      end,
		AggregatedBy: sendgrid.AggregateByDay,
		Limit:        1,
	}

	if _, err := executor.GlobalStats(ctx, req); err != nil {
		if errors.Is(err, sendgrid.ErrUnauthorized) {
			return &backend.CheckHealthResult{
				Status:  backend.HealthStatusError,
				Message: "Authentication failed. Please verify your SendGrid API key is correct and has the stats.read scope.",
			}, nil
		}
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Failed to connect to SendGrid API. Error: %s", err.Error()),
		}, nil
	}

	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: "Successfully connected to SendGrid API.",
	}, nil
}
