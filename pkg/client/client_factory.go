// Package client builds SendGrid API clients from datasource settings.
package client

import (
	"sendgrid-grafana-plugin/pkg/config"
	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/sendgrid"
)

// Options carries the process-wide pieces shared by every client.
type Options struct {
	Env     *config.Env
	Limiter sendgrid.Limiter
	// Factory defaults to sendgrid.DefaultClientFactory.
	Factory sendgrid.ClientFactory
}

// ConfigFor derives the client configuration of one datasource instance.
// Instance settings win over environment defaults.
func ConfigFor(settings *models.PluginSettings, opts Options) sendgrid.ClientConfig {
	cfg := sendgrid.DefaultConfig()
	if opts.Env != nil {
		cfg.Host = opts.Env.Host
		cfg.Timeout = opts.Env.Timeout
		cfg.RetryCount = opts.Env.RetryCount
		cfg.APIKey = opts.Env.APIKey
	}
	if settings != nil {
		if key := settings.APIKey(); key != "" {
			cfg.APIKey = key
		}
		if settings.Host != "" {
			cfg.Host = settings.Host
		}
	}
	cfg.Limiter = opts.Limiter
	return cfg
}

// CreateSendGridClient initializes a SendGrid client for settings.
func CreateSendGridClient(settings *models.PluginSettings, opts Options) (*sendgrid.Client, error) {
	factory := opts.Factory
	if factory == nil {
		factory = &sendgrid.DefaultClientFactory{}
	}
	return factory.CreateClient(ConfigFor(settings, opts))
}
