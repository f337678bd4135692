// Package config reads the process-level defaults of the plugin binary from
// the environment. Per-datasource settings come from Grafana and are handled by
// the models package; values here fill in what an instance leaves unset.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const envPrefix = "SENDGRID"

// Keys understood by Load. Each maps to SENDGRID_<KEY> in the environment.
const (
	KeyAPIKey     = "api_key"
	KeyHost       = "host"
	KeyTimeout    = "timeout"
	KeyRetryCount = "retry_count"
	KeyRateLimit  = "rate_limit"
	KeyRateBurst  = "rate_burst"
)

// EnvError represents an invalid environment setting.
type EnvError struct {
	Key string
	Msg string
	Err error // Wrapped error
}

func (e *EnvError) Error() string {
	name := envPrefix + "_" + strings.ToUpper(e.Key)
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", name, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", name, e.Msg)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// Env holds the environment defaults.
type Env struct {
	APIKey     string
	Host       string
	Timeout    time.Duration
	RetryCount int
	RateLimit  float64
	RateBurst  int
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyHost, "https://api.sendgrid.com")
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyRetryCount, 3)
	v.SetDefault(KeyRateLimit, 5.0)
	v.SetDefault(KeyRateBurst, 10)
	return v
}

// Load reads the environment.
func Load() (*Env, error) {
	v := newViper()

	timeout, err := time.ParseDuration(v.GetString(KeyTimeout))
	if err != nil {
		return nil, &EnvError{Key: KeyTimeout, Msg: "not a duration", Err: err}
	}
	if timeout <= 0 {
		return nil, &EnvError{Key: KeyTimeout, Msg: "must be positive"}
	}

	retryCount, err := cast.ToIntE(v.Get(KeyRetryCount))
	if err != nil {
		return nil, &EnvError{Key: KeyRetryCount, Msg: "not a number", Err: err}
	}
	if retryCount < 0 {
		return nil, &EnvError{Key: KeyRetryCount, Msg: "must not be negative"}
	}

	rateLimit, err := cast.ToFloat64E(v.Get(KeyRateLimit))
	if err != nil {
		return nil, &EnvError{Key: KeyRateLimit, Msg: "not a number", Err: err}
	}

	burst, err := cast.ToIntE(v.Get(KeyRateBurst))
	if err != nil {
		return nil, &EnvError{Key: KeyRateBurst, Msg: "not a number", Err: err}
	}
	if burst < 0 {
		return nil, &EnvError{Key: KeyRateBurst, Msg: "must not be negative"}
	}

	host := strings.TrimRight(v.GetString(KeyHost), "/")
	if host == "" {
		return nil, &EnvError{Key: KeyHost, Msg: "cannot be empty"}
	}

	return &Env{
		APIKey:     v.GetString(KeyAPIKey),
		Host:       host,
		Timeout:    timeout,
		RetryCount: retryCount,
		RateLimit:  rateLimit,
		RateBurst:  burst,
	}, nil
}
