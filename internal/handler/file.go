package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

// maxUploadFiles caps one multipart request.
const maxUploadFiles = 10

// maxUploadMemory is how much of a parsed multipart form stays in memory
// before spilling to temp files (the request itself may be larger).
const maxUploadMemory = 32 << 20 // 32 MB

// FileHandler serves per-user file storage. Every route requires auth and is
// implicitly scoped to the caller's own directory — there is no way to name
// another user's files.
type FileHandler struct {
	files  *service.FileService
	logger *slog.Logger
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(files *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// HandleUpload stores up to 10 files from the multipart field "files".
//
// HTTP: POST /api/files/upload (multipart/form-data)
// Auth: Required
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperror.ValidationFailed("files", "invalid multipart form"))
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(w, apperror.ValidationFailed("files", "no files uploaded"))
		return
	}
	if len(uploads) > maxUploadFiles {
		writeError(w, apperror.ValidationFailed("files", "too many files (max 10)"))
		return
	}

	saved, err := h.files.Save(username, uploads)
	if err != nil {
		h.logger.Error("file upload failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "files": saved})
}

// HandleList returns metadata for the caller's uploads.
//
// HTTP: GET /api/files
// Auth: Required
func (h *FileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	files, err := h.files.List(username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// HandleDelete removes one of the caller's uploads.
//
// HTTP: DELETE /api/files/{filename}
// Auth: Required
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	filename := chi.URLParam(r, "filename")

	if err := h.files.Delete(username, filename); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
