package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"squizer-game-service/internal/app"
	"squizer-game-service/internal/domain"
	"go.uber.org/zap"
)

// SoloHandler exposes solo rounds over plain JSON endpoints. Battles live
// on the websocket; solo play is request/response.
type SoloHandler struct {
	service *app.GameService
	logger  *zap.Logger
}

func NewSoloHandler(service *app.GameService, logger *zap.Logger) *SoloHandler {
	return &SoloHandler{service: service, logger: logger}
}

// Register mounts the solo routes on mux.
func (h *SoloHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/solo/start", h.handleStart)
	mux.HandleFunc("/solo/state", h.handleState)
	mux.HandleFunc("/solo/answer", h.handleAnswer)
	mux.HandleFunc("/solo/quit", h.handleQuit)
	mux.HandleFunc("/solo/result", h.handleResult)
}

type startRequest struct {
	UserID string  `json:"userId"`
	Mode   string  `json:"mode"`
	Level  string  `json:"level"`
	Stake  float64 `json:"stake"`
}

type answerRequest struct {
	UserID string `json:"userId"`
	Option int    `json:"option"`
}

type answerResponse struct {
	Correct  bool   `json:"correct"`
	Missed   bool   `json:"missed"`
	Advanced bool   `json:"advanced"`
	Score    int    `json:"score"`
	Phase    string `json:"phase"`
}

func (h *SoloHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg, ok := soloConfig(req)
	if !ok {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	session, err := h.service.StartSolo(r.Context(), req.UserID, cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("solo round started",
		zap.String("userId", req.UserID),
		zap.String("mode", cfg.Mode),
		zap.Float64("stake", cfg.Stake))
	writeJSON(w, http.StatusCreated, session.View())
}

func (h *SoloHandler) handleState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *SoloHandler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	session, ok := h.lookup(w, req.UserID)
	if !ok {
		return
	}
	out, err := session.SubmitAnswer(req.Option)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{
		Correct:  out.Correct,
		Missed:   out.Missed,
		Advanced: out.Advanced,
		Score:    out.Score,
		Phase:    out.Phase.String(),
	})
}

func (h *SoloHandler) handleQuit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	session, ok := h.lookup(w, req.UserID)
	if !ok {
		return
	}
	session.Quit()
	writeJSON(w, http.StatusOK, session.View())
}

func (h *SoloHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	result, err := session.Result(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *SoloHandler) lookup(w http.ResponseWriter, userID string) (*app.SoloSession, bool) {
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return nil, false
	}
	session, ok := h.service.Solo(userID)
	if !ok {
		h.writeError(w, fmt.Errorf("%w: user %s", domain.ErrSessionNotFound, userID))
		return nil, false
	}
	return session, true
}

func (h *SoloHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidStake),
		errors.Is(err, domain.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrInsufficientQuestions):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

func soloConfig(req startRequest) (domain.SessionConfig, bool) {
	switch req.Mode {
	case domain.ModeQuickPlay:
		return domain.QuickPlayConfig(req.Stake), true
	case domain.ModeGoldenChance:
		return domain.GoldenChanceConfig(req.Stake), true
	case domain.ModeLevel:
		return domain.LevelConfig(domain.Level(req.Level), req.Stake), true
	default:
		return domain.SessionConfig{}, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
