package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fra-atlas/platform/pkg/auth"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/gorilla/mux"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/documents/upload", h.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/documents", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}/download", h.handleDownload).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}/correct-ocr", h.handleCorrect).Methods(http.MethodPost)
	router.HandleFunc("/documents/{id}/reprocess", h.handleReprocess).Methods(http.MethodPost)
	router.HandleFunc("/documents/{id}/audit", h.handleAuditTrail).Methods(http.MethodGet)
	router.HandleFunc("/ocr-review", h.handleReviewQueue).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		// Multipart framing adds overhead beyond the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody+64*1024)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "multipart form must carry a \"file\" part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Log.WithError(err).Warn("failed to read upload")
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	actor, _ := auth.IdentityFromContext(r.Context())

	doc, err := h.service.Upload(r.Context(), actor, UploadRequest{
		Filename:  header.Filename,
		MediaType: mediaType,
		Content:   content,
		ClaimID:   r.FormValue("claimId"),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedMediaType):
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		case errors.Is(err, ErrPayloadTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case IsValidationError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Log.WithError(err).Error("failed to store upload")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":        doc.ID,
		"filename":  doc.OriginalFilename,
		"ocrStatus": doc.OCRStatus,
		"status":    "uploaded",
	})
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list documents")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := h.service.Get(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch document")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (h *HTTPHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	data, mediaType, filename, err := h.service.Download(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch document content")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

func (h *HTTPHandler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ReviewQueue(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list review queue")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *HTTPHandler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	entries, err := h.service.AuditTrail(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to list audit trail")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *HTTPHandler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok || !actor.CanEditClaims() {
		http.Error(w, "insufficient role", http.StatusForbidden)
		return
	}

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	doc, err := h.service.Correct(r.Context(), actor, vars["id"], req)
	if err != nil {
		switch {
		case IsValidationError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, ErrConflict):
			http.Error(w, "document is not awaiting review", http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("failed to apply correction")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (h *HTTPHandler) handleReprocess(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())

	vars := mux.Vars(r)
	if err := h.service.Reprocess(r.Context(), actor, vars["id"]); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, ErrConflict):
			http.Error(w, "document state does not allow reprocessing", http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("failed to reprocess document")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"id":     vars["id"],
		"status": "reprocessing",
	})
}
