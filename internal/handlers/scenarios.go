package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/interfaces"
)

// ScenariosHandler lists the loaded rate scenarios.
type ScenariosHandler struct {
	scenarios interfaces.ScenarioService
	logger    arbor.ILogger
}

func NewScenariosHandler(scenarios interfaces.ScenarioService) *ScenariosHandler {
	return &ScenariosHandler{
		scenarios: scenarios,
		logger:    common.GetLogger(),
	}
}

// ListHandler returns all scenarios.
// GET /api/scenarios
func (h *ScenariosHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": h.scenarios.List(),
	})
}
