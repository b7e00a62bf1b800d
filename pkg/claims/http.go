package claims

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fra-atlas/platform/pkg/auth"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/document"
	"github.com/gorilla/mux"
)

type HTTPHandler struct {
	materializer *Materializer
	repo         *Repository
}

func NewHTTPHandler(materializer *Materializer, repo *Repository) *HTTPHandler {
	return &HTTPHandler{materializer: materializer, repo: repo}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/documents/{id}/promote", h.handlePromote).Methods(http.MethodPost)
	router.HandleFunc("/claims", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/claims/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/states", h.handleStates).Methods(http.MethodGet)
}

func (h *HTTPHandler) handlePromote(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok || !actor.CanEditClaims() {
		http.Error(w, "insufficient role", http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	claim, err := h.materializer.Materialize(r.Context(), actor, vars["id"])
	if err != nil {
		switch {
		case errors.Is(err, document.ErrNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, ErrNotApproved):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("failed to promote document")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(claim)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	claims, err := h.repo.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list claims")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	claim, err := h.repo.Get(r.Context(), vars["id"])
	if errors.Is(err, ErrNotFound) {
		claim, err = h.repo.GetByClaimID(r.Context(), vars["id"])
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "claim not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch claim")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claim)
}

func (h *HTTPHandler) handleStates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(States)
}
