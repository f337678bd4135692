// Package resource serves the datasource's resource endpoints, used by the
// query editor to discover metrics and query defaults.
package resource

import (
	"net/http"

	"sendgrid-grafana-plugin/pkg/models"
	"sendgrid-grafana-plugin/pkg/sendgrid"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// MetricsResponse lists the metric names a query can select.
type MetricsResponse struct {
	Metrics []string `json:"metrics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter returns the handler mounted behind CallResource.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/metrics", handleMetrics)
	r.Get("/defaults", handleDefaults)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		render.Status(req, http.StatusNotFound)
		render.JSON(w, req, errorResponse{Error: "unknown resource " + req.URL.Path})
	})
	return r
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	log.DefaultLogger.FromContext(r.Context()).Debug("Serving metric names")
	names := make([]string, len(sendgrid.MetricNames))
	copy(names, sendgrid.MetricNames)
	render.JSON(w, r, MetricsResponse{Metrics: names})
}

func handleDefaults(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, models.DefaultQuery())
}
