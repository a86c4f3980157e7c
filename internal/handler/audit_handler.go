package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudvault/internal/middleware"
	"cloudvault/internal/model"
	"cloudvault/internal/service"
	"cloudvault/pkg/apierror"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// FileTrail serves GET /audit/file/{id}. Only the file owner may read it.
func (h *AuditHandler) FileTrail(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	logs, err := h.service.FileTrail(r.Context(), fileID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Logs: logs, Total: len(logs)}, nil)
}

func (h *AuditHandler) MyActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	logs, err := h.service.UserActivity(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Logs: logs, Total: len(logs)}, nil)
}
