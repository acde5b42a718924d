package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type statusResponse struct {
	Phase        string    `json:"phase"`
	Head         uint64    `json:"head"`
	UpstreamHead uint64    `json:"upstream_head"`
	Lag          uint64    `json:"lag"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusHandler serves the sync status as JSON.
type StatusHandler struct {
	source StatusSource
	logger *zap.Logger
}

// NewStatusHandler returns a StatusHandler instance.
func NewStatusHandler(source StatusSource, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHandler{source: source, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	st := h.source.Status()
	resp := statusResponse{
		Phase:        string(st.Phase),
		Head:         st.Head,
		UpstreamHead: st.UpstreamHead,
		Lag:          lag(st),
		UpdatedAt:    st.UpdatedAt.UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("write status response", zap.Error(err))
	}
}
