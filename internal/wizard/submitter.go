package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
)

// Submitter delivers a finished lead to the fan-out service.
type Submitter interface {
	Submit(ctx context.Context, p *leads.Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, p *leads.Payload) error

func (f SubmitterFunc) Submit(ctx context.Context, p *leads.Payload) error {
	return f(ctx, p)
}

// HTTPSubmitter posts the payload as JSON to the submit-lead endpoint.
type HTTPSubmitter struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPSubmitter creates a submitter for endpoint. A zero timeout uses 15s.
func NewHTTPSubmitter(endpoint string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSubmitter{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit treats any transport error or non-2xx status as a failure.
func (s *HTTPSubmitter) Submit(ctx context.Context, p *leads.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("wizard: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wizard: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wizard: submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("wizard: submit failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
