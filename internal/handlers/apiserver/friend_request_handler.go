package apiserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"notifyhub/internal/middleware"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
)

// FriendRequestHandler exposes friend request endpoints.
type FriendRequestHandler struct {
	FriendService services.FriendRequestService
}

// NewFriendRequestHandler creates a new FriendRequestHandler instance.
func NewFriendRequestHandler(friendService services.FriendRequestService) *FriendRequestHandler {
	return &FriendRequestHandler{FriendService: friendService}
}

// SendFriendRequestRequest is the payload for sending a friend request.
type SendFriendRequestRequest struct {
	RecipientID uint   `json:"recipientId" validate:"required"`
	Message     string `json:"message" validate:"max=500"`
}

// SendFriendRequestHandler validates and enqueues a friend request.
func (h *FriendRequestHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req SendFriendRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.FriendService.SendFriendRequest(r.Context(), userID, req.RecipientID, req.Message)
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "friend request sent"})
	case errors.Is(err, services.ErrFriendRequestSelf),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrFriendRequestExists):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrRecipientNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		writeJSONError(w, "could not send friend request", http.StatusInternalServerError)
	}
}

// ListPendingRequestsHandler returns the user's pending friend requests
// with sender info attached.
func (h *FriendRequestHandler) ListPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	pending, err := h.FriendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "could not list pending requests", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, pending)
}

// AcceptFriendRequestHandler accepts a pending request addressed to the
// authenticated user.
func (h *FriendRequestHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.settleRequest(w, r, h.FriendService.AcceptFriendRequest, "friend request accepted")
}

// DeclineFriendRequestHandler declines a pending request addressed to
// the authenticated user.
func (h *FriendRequestHandler) DeclineFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.settleRequest(w, r, h.FriendService.DeclineFriendRequest, "friend request declined")
}

// settleRequest is the shared accept/decline path: both take the same
// parameters and map service errors to the same status codes.
func (h *FriendRequestHandler) settleRequest(w http.ResponseWriter, r *http.Request, settle func(ctx context.Context, recipientUserID, requestID uint) error, successMessage string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	requestID, err := storage.StrToUint(mux.Vars(r)["requestID"])
	if err != nil {
		writeJSONError(w, "invalid request id", http.StatusBadRequest)
		return
	}

	err = settle(r.Context(), userID, requestID)
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusOK, map[string]string{"message": successMessage})
	case errors.Is(err, services.ErrFriendRequestNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotRecipientOfRequest):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrRequestNotPending):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		writeJSONError(w, "could not process friend request", http.StatusInternalServerError)
	}
}

// ListFriendsHandler returns the authenticated user's friends.
func (h *FriendRequestHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	friends, err := h.FriendService.GetFriendsList(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "could not list friends", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}
