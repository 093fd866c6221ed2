package wizard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

// SessionHeader carries the visitor's draft session id.
const SessionHeader = "X-Session-Id"

const maxDraftBytes = 32 << 10

// DraftStoreFactory returns the draft store for one visitor session.
type DraftStoreFactory func(sessionID string) DraftStore

// DraftResponse is the body of GET /api/drafts/{variant}.
type DraftResponse struct {
	Variant string `json:"variant"`
	Fields  Fields `json:"fields"`
}

// DraftHandler serves server-side draft storage for the wizards.
type DraftHandler struct {
	stores DraftStoreFactory
	logger *logging.Logger
}

func NewDraftHandler(stores DraftStoreFactory, logger *logging.Logger) *DraftHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DraftHandler{stores: stores, logger: logger}
}

// GetDraft handles GET /api/drafts/{variant}.
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	store, variant, ok := h.resolve(w, r)
	if !ok {
		return
	}

	fields, found, err := store.Load(r.Context(), variant.DraftKey)
	if err != nil {
		h.logger.Error("failed to load draft", "error", err, "variant", variant.Name)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	writeJSON(w, http.StatusOK, DraftResponse{Variant: variant.Name, Fields: fields})
}

// PutDraft handles PUT /api/drafts/{variant}. The body replaces the stored draft.
func (h *DraftHandler) PutDraft(w http.ResponseWriter, r *http.Request) {
	store, variant, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var fields Fields
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBytes)).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft body")
		return
	}
	if err := store.Save(r.Context(), variant.DraftKey, fields); err != nil {
		h.logger.Error("failed to save draft", "error", err, "variant", variant.Name)
		writeError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDraft handles DELETE /api/drafts/{variant}.
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	store, variant, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context(), variant.DraftKey); err != nil {
		h.logger.Error("failed to clear draft", "error", err, "variant", variant.Name)
		writeError(w, http.StatusInternalServerError, "failed to clear draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DraftHandler) resolve(w http.ResponseWriter, r *http.Request) (DraftStore, Variant, bool) {
	variant, err := VariantByName(chi.URLParam(r, "variant"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown form variant")
		return nil, Variant{}, false
	}
	sessionID := r.Header.Get(SessionHeader)
	if _, err := uuid.Parse(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+SessionHeader+" header")
		return nil, Variant{}, false
	}
	return h.stores(sessionID), variant, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
