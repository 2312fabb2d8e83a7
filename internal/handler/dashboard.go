package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pavelanni/karne/internal/analysis"
	"github.com/pavelanni/karne/internal/llm"
	"github.com/pavelanni/karne/internal/model"
)

// maxCoachBody bounds the JSON body of a coach request.
const maxCoachBody = 1 << 20

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := analysis.Select(history, r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	points := analysis.Trend(history)
	if points == nil {
		points = []model.TrendPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

type coachRequest struct {
	Message string              `json:"message"`
	History []model.ChatMessage `json:"history"`
	Scope   string              `json:"scope"`
}

type coachResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) handleCoach(w http.ResponseWriter, r *http.Request) {
	var req coachRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCoachBody)).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, r, errEmptyMessage)
		return
	}

	history, err := h.store.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := analysis.Select(history, req.Scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.llm.Chat(r.Context(), req.Message, req.History, a)
	if err != nil {
		if !errors.Is(err, llm.ErrRateLimited) {
			err = fmt.Errorf("%w: %w", errCoach, err)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coachResponse{Reply: reply})
}

type themeBody struct {
	Theme model.Theme `json:"theme"`
}

func (h *Handler) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Theme()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

func (h *Handler) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCoachBody)).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := h.store.SetTheme(body.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
