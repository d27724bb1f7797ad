package stream

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/kb"
	"github.com/signalsfoundry/orbit-viz/model"
)

// Handler returns the HTTP surface: /ws, /api/frame, /api/catalog and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWebSocket)
	mux.HandleFunc("/api/frame", h.handleFrame)
	mux.HandleFunc("/api/catalog", h.handleCatalog)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

func (h *Hub) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame, err := h.store.Latest()
	if errors.Is(err, kb.ErrNoFrame) {
		h.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, r, http.StatusOK, frame)
}

func (h *Hub) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	catalog := h.store.Catalog()
	if catalog == nil {
		catalog = []model.CatalogEntry{}
	}
	h.writeJSON(w, r, http.StatusOK, catalog)
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Frame   uint64 `json:"frame"`
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Clients: h.ClientCount()}
	if frame, err := h.store.Latest(); err == nil {
		resp.Frame = frame.Index
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Hub) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn(r.Context(), "failed to write response",
			logging.String("path", r.URL.Path),
			logging.Err(err),
		)
	}
}
