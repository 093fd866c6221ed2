package submission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Submitter is the service behind the HTTP handler.
type Submitter interface {
	Submit(ctx context.Context, payload *leads.Payload) (*Result, error)
}

// SuccessResponse is returned when the lead landed in at least one store.
type SuccessResponse struct {
	Success      bool       `json:"success"`
	LeadID       string     `json:"leadId,omitempty"`
	GHLContactID string     `json:"ghlContactId,omitempty"`
	SyncStatus   SyncStatus `json:"syncStatus"`
}

// ErrorResponse is returned for validation and total capture failures.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Handler serves the lead submission endpoint.
type Handler struct {
	svc    Submitter
	logger *logging.Logger
}

func NewHandler(svc Submitter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Response is the status and body for one submission, shared by the HTTP
// handler and the Lambda entrypoint.
type Response struct {
	Status int
	Body   any
}

// Handle decodes the raw JSON body and runs the submission.
func (h *Handler) Handle(ctx context.Context, body []byte) Response {
	var payload leads.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("invalid submit-lead body", "error", err)
		return Response{
			Status: http.StatusBadRequest,
			Body:   ErrorResponse{Error: "Validation failed", Details: []string{"body: Invalid JSON payload"}},
		}
	}

	result, err := h.svc.Submit(ctx, &payload)
	if err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			return Response{
				Status: http.StatusBadRequest,
				Body:   ErrorResponse{Error: "Validation failed", Details: verr.Details()},
			}
		}
		h.logger.Error("submit-lead failed", "error", err)
		return Response{
			Status: http.StatusInternalServerError,
			Body:   ErrorResponse{Error: "Failed to save lead", Details: []string{err.Error()}},
		}
	}

	if !result.Success {
		return Response{
			Status: http.StatusInternalServerError,
			Body:   ErrorResponse{Error: "Failed to save lead", Details: result.Errors},
		}
	}
	return Response{
		Status: http.StatusOK,
		Body: SuccessResponse{
			Success:      true,
			LeadID:       result.LeadID,
			GHLContactID: result.GHLContactID,
			SyncStatus:   result.SyncStatus,
		},
	}
}

// SubmitLead handles POST /api/submit-lead.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: []string{"body: Request body too large or unreadable"}})
		return
	}

	resp := h.Handle(r.Context(), body)
	writeJSON(w, resp.Status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
