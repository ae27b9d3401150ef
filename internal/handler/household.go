package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/pantry/internal/household"
)

type HouseholdHandler struct {
	households *household.Service
	logger     *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: svc, logger: logger}
}

type householdRequest struct {
	Name string `json:"name"`
}

type memberRequest struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type memberPatchRequest struct {
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	hs, err := h.households.ListForUser(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hs))
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	hh, err := h.households.Create(r.Context(), actor(r), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.households.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	hh, err := h.households.Invite(r.Context(), actor(r), chi.URLParam(r, "id"), household.Invitation{
		UserID:      req.UserID,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

func (h *HouseholdHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	hh, err := h.households.UpdateMember(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), household.MemberPatch{
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	hh, err := h.households.RemoveMember(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}
