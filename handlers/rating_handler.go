package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/elo-ledger/services"
	"github.com/go-chi/chi/v5"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func (h *RatingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID, err := urlParamInt(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	leaderboard, err := h.ratingService.Leaderboard(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": leaderboard}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History returns a participant's rating changes newest first. Pass
// ?include_reversed=true to see audit rows of reversed matches too.
func (h *RatingHandler) History(w http.ResponseWriter, r *http.Request) {
	seasonID, err := urlParamInt(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID := chi.URLParam(r, "participantID")
	if participantID == "" {
		badRequestResponse(w, r, errors.New("invalid participantID parameter"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequestResponse(w, r, errors.New("invalid limit parameter"))
			return
		}
	}
	includeReversed := r.URL.Query().Get("include_reversed") == "true"

	history, err := h.ratingService.History(r.Context(), seasonID, participantID, limit, includeReversed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) Overview(w http.ResponseWriter, r *http.Request) {
	seasonID, err := urlParamInt(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overview, err := h.ratingService.Overview(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"overview": overview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
