package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPolicy() *OriginPolicy {
	return NewOriginPolicy(
		[]string{"https://www.acmerenovations.com", "https://acmerenovations.com/", "http://localhost:8888"},
		[]string{"https://*--acmerenovations.netlify.app"},
		"https://www.acmerenovations.com",
	)
}

func TestOriginPolicy_Resolve(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://acmerenovations.com", "https://acmerenovations.com"},
		{"http://localhost:8888", "http://localhost:8888"},
		{"https://deploy-preview-42--acmerenovations.netlify.app", "https://deploy-preview-42--acmerenovations.netlify.app"},
		{"https://evil.example.com", "https://www.acmerenovations.com"},
		{"https://a.b--acmerenovations.netlify.app", "https://www.acmerenovations.com"},
		{"https://deploy-preview-42--acmerenovations.netlify.app.evil.com", "https://www.acmerenovations.com"},
		{"", "https://www.acmerenovations.com"},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Resolve(tt.origin))
		})
	}
}

func TestOriginPolicy_DefaultsToFirstListedOrigin(t *testing.T) {
	p := NewOriginPolicy([]string{"https://b.example.com", "https://a.example.com"}, nil, "")
	assert.Equal(t, "https://a.example.com", p.Resolve("https://other.example.com"))

	empty := NewOriginPolicy(nil, nil, "")
	_, ok := empty.Headers("https://x.example.com")["Access-Control-Allow-Origin"]
	assert.False(t, ok)
}

func TestCORS_ReflectsAllowedOrigin(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", nil)
	req.Header.Set("Origin", "https://deploy-preview-7--acmerenovations.netlify.app")
	rec := httptest.NewRecorder()
	CORS(testPolicy())(handler).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://deploy-preview-7--acmerenovations.netlify.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Session-Id")
}

func TestCORS_UnknownOriginGetsDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	CORS(testPolicy())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	assert.Equal(t, "https://www.acmerenovations.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/api/submit-lead", nil)
	req.Header.Set("Origin", "https://www.acmerenovations.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	CORS(testPolicy())(handler).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://www.acmerenovations.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
