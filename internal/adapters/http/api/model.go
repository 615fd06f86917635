package api

import "net/http"

// ModelHandler exposes the loaded model's metadata.
type ModelHandler struct {
	deps Dependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps Dependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleModel handles GET /model requests.
func (h *ModelHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.model"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	meta, err := h.deps.Metadata()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
