package handlers

import (
	"net/http"
	"runtime"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/services/gateway"
	"github.com/ternarybob/bondval/internal/services/precalc"
	"github.com/ternarybob/bondval/internal/services/throttle"
)

// StatusHandler reports operational state: dependency breaker states, cache
// ages, and request-path load.
type StatusHandler struct {
	gateways []*gateway.Gateway
	precalc  *precalc.Service
	limiter  *throttle.ConcurrencyLimiter
	logger   arbor.ILogger
}

func NewStatusHandler(gateways []*gateway.Gateway, precalcSvc *precalc.Service, limiter *throttle.ConcurrencyLimiter) *StatusHandler {
	return &StatusHandler{
		gateways: gateways,
		precalc:  precalcSvc,
		limiter:  limiter,
		logger:   common.GetLogger(),
	}
}

// GetStatusHandler returns application status.
// GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	dependencies := make(map[string]string, len(h.gateways))
	for _, g := range h.gateways {
		dependencies[g.Name()] = string(g.State())
	}

	status := map[string]interface{}{
		"version":      common.GetVersion(),
		"dependencies": dependencies,
		"goroutines": map[string]interface{}{
			"runtime": runtime.NumGoroutine(),
			"spawned": common.GetGoroutineCount(),
		},
	}
	if h.precalc != nil {
		status["cache_ages"] = h.precalc.CacheAges()
	}
	if h.limiter != nil {
		status["in_flight"] = h.limiter.InFlight()
	}

	WriteJSON(w, http.StatusOK, status)
}
