package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"sendgrid-grafana-plugin/pkg/config"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// SecureAPIKeyField is the secure JSON data key holding the SendGrid API key.
const SecureAPIKeyField = "sendgridApiKey"

// PluginSettingsError represents an error specifically related to plugin settings.
type PluginSettingsError struct {
	Msg string
	Err error // Wrapped error
}

func (e *PluginSettingsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin settings error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("plugin settings error: %s", e.Msg)
}

func (e *PluginSettingsError) Unwrap() error {
	return e.Err
}

// PluginSettings holds the options configured for each SendGrid datasource instance.
type PluginSettings struct {
	// Host overrides the SendGrid API base URL, mostly useful for proxies.
	Host string `json:"host,omitempty"`
	// SendgridAPIKey is accepted in plain JSON data for datasources created
	// before the key moved to secure JSON data.
	SendgridAPIKey string                `json:"sendgridApiKey,omitempty"`
	Secrets        *SecretPluginSettings `json:"-"`
}

// SecretPluginSettings holds sensitive data decrypted by Grafana.
type SecretPluginSettings struct {
	SendgridAPIKey string `json:"sendgridApiKey"`
}

// LoadPluginSettings unmarshals the JSON data and decrypted secure JSON data
// from Grafana's DataSourceInstanceSettings into a PluginSettings struct.
// A missing API key is not an error here; ValidatePluginSettings rejects it
// before any request is made.
func LoadPluginSettings(source backend.DataSourceInstanceSettings) (*PluginSettings, error) {
	settings := PluginSettings{}
	if len(source.JSONData) > 0 {
		if err := json.Unmarshal(source.JSONData, &settings); err != nil {
			return nil, &PluginSettingsError{Msg: "could not unmarshal PluginSettings JSON", Err: err}
		}
	}

	settings.Host = strings.TrimRight(strings.TrimSpace(settings.Host), "/")
	settings.Secrets = loadSecretPluginSettings(source.DecryptedSecureJSONData)

	return &settings, nil
}

// loadSecretPluginSettings extracts secure data from the decrypted map.
func loadSecretPluginSettings(source map[string]string) *SecretPluginSettings {
	return &SecretPluginSettings{
		SendgridAPIKey: strings.TrimSpace(source[SecureAPIKeyField]),
	}
}

// APIKey returns the key to authenticate with, preferring the secure copy.
func (s *PluginSettings) APIKey() string {
	if s == nil {
		return ""
	}
	if s.Secrets != nil && s.Secrets.SendgridAPIKey != "" {
		return s.Secrets.SendgridAPIKey
	}
	return strings.TrimSpace(s.SendgridAPIKey)
}

// ApplyEnv fills the key and host from the process environment when the
// instance does not configure them.
func (s *PluginSettings) ApplyEnv(env *config.Env) {
	if env == nil {
		return
	}
	if s.Secrets == nil {
		s.Secrets = &SecretPluginSettings{}
	}
	if s.APIKey() == "" {
		s.Secrets.SendgridAPIKey = env.APIKey
	}
	if s.Host == "" {
		s.Host = env.Host
	}
}
