package apiserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"notifyhub/internal/middleware"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
)

// PostHandler exposes post interaction endpoints.
type PostHandler struct {
	PostService services.PostService
}

// NewPostHandler creates a new PostHandler instance.
func NewPostHandler(postService services.PostService) *PostHandler {
	return &PostHandler{PostService: postService}
}

// CreatePostRequest is the payload for post creation.
type CreatePostRequest struct {
	Caption  string `json:"caption" validate:"max=2000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

// CommentRequest is the payload for commenting on a post.
type CommentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// TargetUserRequest is the payload for tagging or mentioning a user.
type TargetUserRequest struct {
	UserID  uint   `json:"userId" validate:"required"`
	Excerpt string `json:"excerpt" validate:"max=500"`
}

// CreatePostHandler creates a new post by the caller.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), userID, req.Caption, req.ImageURL)
	if err != nil {
		writeJSONError(w, "could not create post", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, post)
}

// LikePostHandler likes a post, notifying its author.
func (h *PostHandler) LikePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, postID, ok := h.actorAndPost(w, r)
	if !ok {
		return
	}

	if err := h.PostService.LikePost(r.Context(), userID, postID); err != nil {
		h.writeInteractionError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "liked"})
}

// CommentOnPostHandler comments on a post, notifying its author.
func (h *PostHandler) CommentOnPostHandler(w http.ResponseWriter, r *http.Request) {
	userID, postID, ok := h.actorAndPost(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.PostService.CommentOnPost(r.Context(), userID, postID, req.Comment); err != nil {
		h.writeInteractionError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "comment posted"})
}

// TagUserHandler tags a user in a post, notifying them.
func (h *PostHandler) TagUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, postID, ok := h.actorAndPost(w, r)
	if !ok {
		return
	}

	var req TargetUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.PostService.TagUser(r.Context(), userID, postID, req.UserID); err != nil {
		h.writeInteractionError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "user tagged"})
}

// MentionUserHandler mentions a user on a post, notifying them.
func (h *PostHandler) MentionUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, postID, ok := h.actorAndPost(w, r)
	if !ok {
		return
	}

	var req TargetUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.PostService.MentionUser(r.Context(), userID, postID, req.UserID, req.Excerpt); err != nil {
		h.writeInteractionError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "user mentioned"})
}

func (h *PostHandler) actorAndPost(w http.ResponseWriter, r *http.Request) (userID, postID uint, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
		return 0, 0, false
	}
	postID, err := storage.StrToUint(mux.Vars(r)["postID"])
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, postID, true
}

func (h *PostHandler) writeInteractionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrUserNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		writeJSONError(w, "could not process interaction", http.StatusInternalServerError)
	}
}
