package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/gamefit/internal/domain/prediction"
)

// maxBodyBytes bounds prediction request bodies.
const maxBodyBytes = 1 << 20

// predictRequest mirrors the OpenAPI schema for POST /predict-success.
// Pointers distinguish an absent field from its zero value.
type predictRequest struct {
	Genre         *string  `json:"genre"`
	Platform      *string  `json:"platform"`
	Price         *float64 `json:"price"`
	ReleaseYear   *int     `json:"release_year"`
	IsMultiplayer *bool    `json:"is_multiplayer"`
	TeamSize      *int     `json:"team_size"`
}

func (p predictRequest) toDomain() (prediction.Request, error) {
	switch {
	case p.Genre == nil:
		return prediction.Request{}, errors.New("missing genre")
	case p.Platform == nil:
		return prediction.Request{}, errors.New("missing platform")
	case p.Price == nil:
		return prediction.Request{}, errors.New("missing price")
	case p.ReleaseYear == nil:
		return prediction.Request{}, errors.New("missing release_year")
	case p.IsMultiplayer == nil:
		return prediction.Request{}, errors.New("missing is_multiplayer")
	case p.TeamSize == nil:
		return prediction.Request{}, errors.New("missing team_size")
	}
	return prediction.Request{
		Genre:         *p.Genre,
		Platform:      *p.Platform,
		Price:         *p.Price,
		ReleaseYear:   *p.ReleaseYear,
		IsMultiplayer: *p.IsMultiplayer,
		TeamSize:      *p.TeamSize,
	}, nil
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict-success requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_success"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.deps.Ready() {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", NewKind(op, ErrUnavailable))
		return
	}

	var body predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.Predict(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, prediction.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, fmt.Errorf("prediction failed: %w", err)))
	}
}
