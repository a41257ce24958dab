package handler

import (
	"net/http"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/logging"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
