package apiserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"notifyhub/internal/middleware"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
)

// UserHandler exposes user profile endpoints.
type UserHandler struct {
	UserService services.UserService
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// UpdateProfileRequest is the payload for profile updates.
type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Bio       string `json:"bio" validate:"max=1000"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

// GetMyProfileHandler returns the authenticated user's profile.
func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "could not load profile", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateMyProfileHandler updates the authenticated user's profile.
func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), userID, req.Name, req.Bio, req.AvatarURL)
	if err != nil {
		writeJSONError(w, "could not update profile", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// GetUserProfileHandler returns another user's public info.
func (h *UserHandler) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := storage.StrToUint(mux.Vars(r)["userID"])
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	info, err := h.UserService.GetBasicInfo(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, "user not found", http.StatusNotFound)
		} else {
			writeJSONError(w, "could not load user", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}

// SearchUsersHandler searches users by username or name.
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	users, err := h.UserService.SearchUsers(r.Context(), query, userID)
	if err != nil {
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	writeJSONResponse(w, http.StatusOK, users)
}
