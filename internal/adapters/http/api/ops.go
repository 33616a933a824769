package api

import (
	"net/http"

	"github.com/okian/dyscreen/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider reports pipeline configuration and occupancy.
type StatsProvider interface {
	GetStats() map[string]any
}

// OpsHandler serves the operational endpoints: liveness, stats and metrics.
type OpsHandler struct {
	stats StatsProvider
}

// NewOpsHandler creates an OpsHandler. A nil stats provider serves an empty object.
func NewOpsHandler(stats StatsProvider) *OpsHandler {
	return &OpsHandler{stats: stats}
}

// HandleHealth handles GET /healthz.
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStats handles GET /stats.
func (h *OpsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

// MetricsHandler serves the service registry without the default Go collectors.
func (h *OpsHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
