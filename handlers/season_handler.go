package handlers

import (
	"net/http"

	"github.com/Dosada05/elo-ledger/middleware"
	"github.com/Dosada05/elo-ledger/services"
)

type SeasonHandler struct {
	seasonService services.SeasonService
	groupService  services.GroupService
}

func NewSeasonHandler(seasonService services.SeasonService, groupService services.GroupService) *SeasonHandler {
	return &SeasonHandler{
		seasonService: seasonService,
		groupService:  groupService,
	}
}

// Create rotates the group onto a fresh season: the previous active
// season is closed in the same transaction.
func (h *SeasonHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.groupService.EnsureUserMember(r.Context(), groupID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.Create(r.Context(), groupID, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	seasons, err := h.seasonService.ListByGroup(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) Get(w http.ResponseWriter, r *http.Request) {
	seasonID, err := urlParamInt(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.GetByID(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
