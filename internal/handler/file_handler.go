package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cloudvault/internal/middleware"
	"cloudvault/internal/model"
	"cloudvault/internal/service"
	"cloudvault/pkg/apierror"
)

type FileHandler struct {
	service        *service.FileService
	maxUploadSize  int64
	maxUploadFiles int
}

func NewFileHandler(service *service.FileService, maxUploadSize int64, maxUploadFiles int) *FileHandler {
	return &FileHandler{service: service, maxUploadSize: maxUploadSize, maxUploadFiles: maxUploadFiles}
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	// Bound the whole request; per-file limits are enforced by the service.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize*int64(h.maxUploadFiles)+1024*1024)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid multipart body", "", http.StatusBadRequest))
		return
	}

	ip := clientIP(r)
	result := model.UploadResponse{Uploaded: []model.File{}, Failed: []model.UploadFailure{}}
	count := 0

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			if isPayloadTooLarge(nextErr) {
				writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "request body is too large", "", http.StatusRequestEntityTooLarge))
				return
			}
			writeError(w, apierror.New("BAD_REQUEST", "invalid multipart stream", nextErr.Error(), http.StatusBadRequest))
			return
		}

		if part.FormName() != "files" || strings.TrimSpace(part.FileName()) == "" {
			_ = part.Close()
			continue
		}

		count++
		if count > h.maxUploadFiles {
			_ = part.Close()
			writeError(w, apierror.New("BAD_REQUEST", "too many files in one request", "", http.StatusBadRequest))
			return
		}

		mimeType := part.Header.Get("Content-Type")
		file, uploadErr := h.service.Upload(r.Context(), claims.UserID, part.FileName(), mimeType, part, ip)
		_ = part.Close()
		if uploadErr != nil {
			result.Failed = append(result.Failed, model.UploadFailure{Name: part.FileName(), Reason: uploadErr.Error()})
			continue
		}

		result.Uploaded = append(result.Uploaded, file)
	}

	if count == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "no files uploaded", "", http.StatusBadRequest))
		return
	}

	status := http.StatusCreated
	if len(result.Uploaded) == 0 {
		status = http.StatusBadRequest
	}
	writeSuccess(w, status, result, nil)
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

func (h *FileHandler) MyFiles(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	files, err := h.service.ListMine(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.FileListData{Files: files}, nil)
}

func (h *FileHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	files, err := h.service.ListSharedWithMe(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.FileListData{Files: files}, nil)
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	if fileID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "file id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	file, err := h.service.Get(r.Context(), fileID, claims.UserID, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, file, nil)
}

// Download answers with a redirect to the provider's retrieval URL; the
// bytes never pass through this server on the way down.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	if fileID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "file id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	url, err := h.service.DownloadURL(r.Context(), fileID, claims.UserID, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	if fileID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "file id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.Delete(r.Context(), fileID, claims.UserID, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
