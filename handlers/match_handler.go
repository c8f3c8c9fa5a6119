package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/elo-ledger/middleware"
	"github.com/Dosada05/elo-ledger/services"
)

type MatchHandler struct {
	matchService services.MatchService
	groupService services.GroupService
}

func NewMatchHandler(matchService services.MatchService, groupService services.GroupService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		groupService: groupService,
	}
}

// Apply records a finished match and rates it. The whole report is
// accepted or rejected; a 409 means a concurrent write won the rating
// race and the client may simply retry.
func (h *MatchHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.ApplyMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupService.EnsureUserMember(r.Context(), input.GroupID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	match, err := h.matchService.Apply(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reverse undoes a previously recorded match. The match stays in the
// ledger, soft-deleted, with its audit rows intact.
func (h *MatchHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := h.groupService.EnsureUserMember(r.Context(), match.GroupID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	reversed, err := h.matchService.Reverse(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": reversed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListBySeason(w http.ResponseWriter, r *http.Request) {
	seasonID, err := urlParamInt(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
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

	matches, err := h.matchService.ListBySeason(r.Context(), seasonID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
