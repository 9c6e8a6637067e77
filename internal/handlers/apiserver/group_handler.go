package apiserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"notifyhub/internal/middleware"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
)

// GroupHandler exposes group endpoints.
type GroupHandler struct {
	GroupService services.GroupService
}

// NewGroupHandler creates a new GroupHandler instance.
func NewGroupHandler(groupService services.GroupService) *GroupHandler {
	return &GroupHandler{GroupService: groupService}
}

// CreateGroupRequest is the payload for group creation.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// InviteRequest is the payload for inviting a user to a group.
type InviteRequest struct {
	UserID uint `json:"userId" validate:"required"`
}

// CreateGroupHandler creates a new group owned by the caller.
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req CreateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	group, err := h.GroupService.CreateGroup(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeJSONError(w, "could not create group", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, group)
}

// GetGroupHandler returns a group's public details.
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := storage.StrToUint(mux.Vars(r)["groupID"])
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	group, err := h.GroupService.GetGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			writeJSONError(w, "group not found", http.StatusNotFound)
		} else {
			writeJSONError(w, "could not load group", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, group)
}

// InviteToGroupHandler invites another user into the group. The
// invitation lands as a notification on the invitee's feed.
func (h *GroupHandler) InviteToGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	groupID, err := storage.StrToUint(mux.Vars(r)["groupID"])
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	var req InviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err = h.GroupService.InviteToGroup(r.Context(), userID, req.UserID, groupID)
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "invitation sent"})
	case errors.Is(err, services.ErrGroupNotFound), errors.Is(err, services.ErrInviteeNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotGroupMember):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInviteSelf), errors.Is(err, services.ErrAlreadyMember):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		writeJSONError(w, "could not send invitation", http.StatusInternalServerError)
	}
}

// LeaveGroupHandler removes the caller from the group.
func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	groupID, err := storage.StrToUint(mux.Vars(r)["groupID"])
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	if err := h.GroupService.LeaveGroup(r.Context(), groupID, userID); err != nil {
		if errors.Is(err, services.ErrNotGroupMember) {
			writeJSONError(w, err.Error(), http.StatusForbidden)
		} else {
			writeJSONError(w, "could not leave group", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "left group"})
}

// ListMyGroupsHandler returns the groups the caller belongs to.
func (h *GroupHandler) ListMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	groups, err := h.GroupService.ListUserGroups(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "could not list groups", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, groups)
}
