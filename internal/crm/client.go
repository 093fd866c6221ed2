package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
)

// ErrNotConfigured is returned when the API key or location id is missing.
var ErrNotConfigured = errors.New("gohighlevel: credentials not configured")

// Client creates contacts through the GoHighLevel REST API.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	version    string
	httpClient *http.Client
}

// Config holds configuration for the GoHighLevel client
type Config struct {
	BaseURL    string // e.g. "https://services.leadconnectorhq.com"
	APIKey     string // private integration token
	LocationID string // sub-account id
	Version    string // API version header
	Timeout    time.Duration
}

// New creates a GoHighLevel client. Missing credentials are not an error
// here; UpsertContact reports ErrNotConfigured so the failure is recorded per
// submission.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://services.leadconnectorhq.com"
	}
	version := cfg.Version
	if version == "" {
		version = "2021-07-28"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		locationID: cfg.LocationID,
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type contactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

// UpsertContact posts the lead as a contact and returns the CRM contact id.
// POST /contacts/
func (c *Client) UpsertContact(ctx context.Context, p *leads.Payload) (string, error) {
	if c.apiKey == "" || c.locationID == "" {
		return "", ErrNotConfigured
	}

	contact := BuildContact(p)
	contact.LocationID = c.locationID

	body, err := json.Marshal(contact)
	if err != nil {
		return "", fmt.Errorf("gohighlevel: failed to marshal contact: %w", err)
	}

	endpoint := c.baseURL + "/contacts/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gohighlevel: failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Version", c.version)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gohighlevel: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gohighlevel: API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("gohighlevel: failed to decode response: %w", err)
	}
	return created.Contact.ID, nil
}
