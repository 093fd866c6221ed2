package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/renovation-leads/cmd/mainconfig"
	"github.com/wolfman30/renovation-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/renovation-leads/internal/config"
	httpmiddleware "github.com/wolfman30/renovation-leads/internal/http/middleware"
	"github.com/wolfman30/renovation-leads/internal/submission"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

const maxBodyBytes = 64 << 10

func main() {
	ctx := context.Background()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	pool, err := bootstrap.ConnectPostgres(ctx, cfg, logger)
	if err != nil {
		panic(err)
	}

	ses, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		panic(err)
	}

	svc, err := bootstrap.BuildSubmissionService(ctx, cfg, bootstrap.SubmissionDeps{
		Repo:  bootstrap.BuildLeadRepository(pool, logger),
		Email: bootstrap.BuildEmailSender(cfg, ses, logger),
	}, logger)
	if err != nil {
		panic(err)
	}

	policy := httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins, cfg.CORSPreviewPatterns, cfg.CORSDefaultOrigin)
	handler := submission.NewHandler(svc, logger)
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, policy, handler, evt)
	})
}

func handle(ctx context.Context, policy *httpmiddleware.OriginPolicy, h *submission.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	headers := policy.Headers(headerValue(evt.Headers, "origin"))

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Headers: headers, Body: "ok"}, nil
	}

	switch path {
	case "", "/", "/api/submit-lead", "/.netlify/functions/submit-lead":
	default:
		return jsonResponse(http.StatusNotFound, headers, submission.ErrorResponse{Error: "Not found"}), nil
	}

	if method == http.MethodOptions {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent, Headers: headers}, nil
	}
	if method != http.MethodPost {
		headers["Allow"] = "POST, OPTIONS"
		return jsonResponse(http.StatusMethodNotAllowed, headers, submission.ErrorResponse{Error: "Method not allowed"}), nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, headers, submission.ErrorResponse{
			Error:   "Validation failed",
			Details: []string{"body: Invalid JSON payload"},
		}), nil
	}
	if len(body) > maxBodyBytes {
		return jsonResponse(http.StatusBadRequest, headers, submission.ErrorResponse{
			Error:   "Validation failed",
			Details: []string{"body: Request body too large or unreadable"},
		}), nil
	}

	resp := h.Handle(ctx, body)
	return jsonResponse(resp.Status, headers, resp.Body), nil
}

func jsonResponse(status int, headers map[string]string, body any) events.APIGatewayV2HTTPResponse {
	out := events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: headers}
	data, err := json.Marshal(body)
	if err != nil {
		out.StatusCode = http.StatusInternalServerError
		out.Body = `{"error":"Failed to save lead"}`
	} else {
		out.Body = string(data)
	}
	out.Headers["Content-Type"] = "application/json"
	return out
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
