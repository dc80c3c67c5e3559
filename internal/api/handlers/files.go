package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/pdfchat/internal/document"
	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/store"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

type Uploader interface {
	Upload(ctx context.Context, req document.UploadRequest) (*models.File, error)
}

type FileHandler struct {
	uploader Uploader
	store    store.DocumentStore
	maxSize  int64
	logger   *slog.Logger
}

func NewFileHandler(u Uploader, st store.DocumentStore, maxSize int64, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{uploader: u, store: st, maxSize: maxSize, logger: logger}
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	f, err := h.uploader.Upload(r.Context(), document.UploadRequest{
		OwnerID: uid,
		Name:    header.Filename,
		Size:    header.Size,
		Data:    file,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, f)
	case errors.Is(err, document.ErrNotPDF):
		writeError(w, http.StatusUnsupportedMediaType, "only PDF files are accepted")
	default:
		h.logger.Error("upload file", "error", err)
		writeError(w, http.StatusInternalServerError, internalError)
	}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	files, err := h.store.ListFiles(r.Context(), uid)
	if err != nil {
		h.logger.Error("list files", "error", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FileHandler) Status(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.UploadStatus{"status": f.UploadStatus})
}

func (h *FileHandler) Messages(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFile(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page, err := h.store.ListMessages(r.Context(), f.ID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.logger.Error("list messages", "file_id", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *FileHandler) ownedFile(w http.ResponseWriter, r *http.Request) (*models.File, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}

	f, err := h.store.FindFile(r.Context(), chi.URLParam(r, "id"), uid)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("find file", "error", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return nil, false
	}
	return f, true
}
