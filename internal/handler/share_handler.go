package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudvault/internal/middleware"
	"cloudvault/internal/model"
	"cloudvault/internal/service"
	"cloudvault/pkg/apierror"
)

type ShareHandler struct {
	service *service.ShareService
}

func NewShareHandler(service *service.ShareService) *ShareHandler {
	return &ShareHandler{service: service}
}

func (h *ShareHandler) ShareWithUsers(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	fileID := chi.URLParam(r, "id")
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	file, err := h.service.ShareWithUsers(r.Context(), fileID, claims.UserID, payload.Users, payload.Permission, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, file, nil)
}

func (h *ShareHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	fileID := chi.URLParam(r, "id")
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.ShareLinkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
			return
		}
	}

	data, err := h.service.CreateLink(r.Context(), fileID, claims.UserID, payload.ExpiresIn, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, data, nil)
}

func (h *ShareHandler) RevokeLink(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	linkID := chi.URLParam(r, "linkId")
	if linkID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "link id is required", "linkId", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.RevokeLink(r.Context(), fileID, claims.UserID, linkID, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"revoked": true}, nil)
}

func (h *ShareHandler) RevokeUser(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "user id is required", "userId", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.RevokeUser(r.Context(), fileID, claims.UserID, userID, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"revoked": true}, nil)
}

// ResolveLink serves GET /files/link/{token}: any authenticated user with a
// valid token gets the file details.
func (h *ShareHandler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, apierror.New("BAD_REQUEST", "token is required", "token", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	file, err := h.service.ResolveLink(r.Context(), token, claims.UserID, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, file, nil)
}
