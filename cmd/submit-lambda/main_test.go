package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	httpmiddleware "github.com/wolfman30/renovation-leads/internal/http/middleware"
	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/internal/submission"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

const janeDoe = `{"name":"Jane Doe","email":"jane@example.com","phone":"404-555-0100","projectType":"kitchen","formSource":"residential"}`

func newTestHandler() (*httpmiddleware.OriginPolicy, *submission.Handler, *leads.InMemoryRepository) {
	repo := leads.NewInMemoryRepository()
	svc := submission.NewService(repo, nil, nil, logging.New("error"))
	policy := httpmiddleware.NewOriginPolicy(
		[]string{"https://renovationpros.com"},
		[]string{"https://*--renovationpros.netlify.app"},
		"",
	)
	return policy, submission.NewHandler(svc, logging.New("error")), repo
}

func request(method, path, body string, headers map[string]string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: headers,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method,
				Path:   path,
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	policy, h, _ := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodGet, "/health", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", resp.StatusCode, resp.Body)
	}
}

func TestHandlePreflight(t *testing.T) {
	policy, h, _ := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodOptions, "/api/submit-lead", "", map[string]string{
		"Origin": "https://deploy-preview-12--renovationpros.netlify.app",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}
	if got := resp.Headers["Access-Control-Allow-Origin"]; got != "https://deploy-preview-12--renovationpros.netlify.app" {
		t.Fatalf("expected preview origin to be reflected, got %q", got)
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	policy, h, _ := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodGet, "/api/submit-lead", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
	if resp.Headers["Allow"] == "" {
		t.Fatalf("expected Allow header")
	}
}

func TestHandleRejectsUnknownPath(t *testing.T) {
	policy, h, _ := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodPost, "/webhooks/unknown", janeDoe, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHandleSubmitsLead(t *testing.T) {
	policy, h, repo := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodPost, "/.netlify/functions/submit-lead", janeDoe, map[string]string{
		"origin": "https://evil.example",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if got := resp.Headers["Access-Control-Allow-Origin"]; got != "https://renovationpros.com" {
		t.Fatalf("expected default origin for unlisted caller, got %q", got)
	}

	var body submission.SuccessResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.LeadID == "" || !body.SyncStatus.Database {
		t.Fatalf("unexpected response: %+v", body)
	}
	lead, err := repo.GetByID(context.Background(), body.LeadID)
	if err != nil {
		t.Fatalf("lead not stored: %v", err)
	}
	if lead.Phone != "4045550100" {
		t.Fatalf("expected normalized phone, got %q", lead.Phone)
	}
}

func TestHandleBase64Body(t *testing.T) {
	policy, h, _ := newTestHandler()
	evt := request(http.MethodPost, "/api/submit-lead", base64.StdEncoding.EncodeToString([]byte(janeDoe)), nil)
	evt.IsBase64Encoded = true
	resp, err := handle(context.Background(), policy, h, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	evt.Body = "%%%not-base64"
	resp, _ = handle(context.Background(), policy, h, evt)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad base64, got %d", resp.StatusCode)
	}
}

func TestHandleValidationFailure(t *testing.T) {
	policy, h, _ := newTestHandler()
	resp, err := handle(context.Background(), policy, h, request(http.MethodPost, "/api/submit-lead", `{"name":"","email":"nope","phone":"12"}`, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	var body submission.ErrorResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Validation failed" || len(body.Details) == 0 {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestHandleOversizedBody(t *testing.T) {
	policy, h, _ := newTestHandler()
	big := `{"message":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	resp, _ := handle(context.Background(), policy, h, request(http.MethodPost, "/api/submit-lead", big, nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}
