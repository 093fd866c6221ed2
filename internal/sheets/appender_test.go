package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/renovation-leads/internal/leads"
	"golang.org/x/oauth2"
)

func testKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return key, string(pem.EncodeToMemory(block))
}

type fakeGoogle struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	appendCalls atomic.Int32
	lastRow     []interface{}
	lastQuery   string
	failAppend  bool
}

func newFakeGoogle(t *testing.T, pub *rsa.PublicKey) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			f.tokenCalls.Add(1)
			if !assert.NoError(t, r.ParseForm()) {
				return
			}
			assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))
			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(*jwt.Token) (any, error) {
				return pub, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "svc@project.iam.gserviceaccount.com", claims["iss"])
			assert.Equal(t, spreadsheetsScope, claims["scope"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"ya29.test","expires_in":3600,"token_type":"Bearer"}`))
		case strings.HasSuffix(r.URL.Path, ":append"):
			f.appendCalls.Add(1)
			assert.Equal(t, "Bearer ya29.test", r.Header.Get("Authorization"))
			assert.Contains(t, r.URL.Path, "/spreadsheets/sheet-1/values/")
			f.lastQuery = r.URL.RawQuery
			if f.failAppend {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
				return
			}
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) || !assert.Len(t, body.Values, 1) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.lastRow = body.Values[0]
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRows":1}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestAppender(t *testing.T, f *fakeGoogle, pemKey string) *Appender {
	t.Helper()
	return NewAppender(context.Background(), Config{
		ServiceAccount: ServiceAccount{
			Email:      "svc@project.iam.gserviceaccount.com",
			PrivateKey: strings.ReplaceAll(pemKey, "\n", `\n`),
			TokenURI:   f.server.URL + "/token",
		},
		SpreadsheetID: "sheet-1",
		Endpoint:      f.server.URL + "/",
	})
}

func TestAppendLead(t *testing.T) {
	key, pemKey := testKey(t)
	f := newFakeGoogle(t, &key.PublicKey)
	a := newTestAppender(t, f, pemKey)
	a.now = func() time.Time { return time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC) }

	p := &leads.Payload{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "4045550100",
		ProjectType: "kitchen",
		Message:     "Need a full kitchen remodel",
		FormSource:  leads.SourceResidential,
	}
	require.NoError(t, a.AppendLead(context.Background(), p))
	require.NoError(t, a.AppendLead(context.Background(), p))

	assert.Equal(t, int32(1), f.tokenCalls.Load(), "token should be cached")
	assert.Equal(t, int32(2), f.appendCalls.Load())
	assert.Contains(t, f.lastQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, f.lastRow, len(Header))
	assert.Equal(t, "2026-05-04T15:30:00Z", f.lastRow[0])
	assert.Equal(t, "Jane Doe", f.lastRow[1])
	assert.Equal(t, "kitchen", f.lastRow[4])
	assert.Equal(t, leads.SourceResidential, f.lastRow[12])
}

func TestAppendLeadAPIError(t *testing.T) {
	key, pemKey := testKey(t)
	f := newFakeGoogle(t, &key.PublicKey)
	f.failAppend = true
	a := newTestAppender(t, f, pemKey)

	err := a.AppendLead(context.Background(), &leads.Payload{Name: "x", Email: "x@y", FormSource: "contact"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets: append failed")
}

func TestAppendLeadNotConfigured(t *testing.T) {
	a := NewAppender(context.Background(), Config{SpreadsheetID: "sheet-1"})
	err := a.AppendLead(context.Background(), &leads.Payload{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestAppendLeadMalformedKey(t *testing.T) {
	a := NewAppender(context.Background(), Config{
		ServiceAccount: ServiceAccount{Email: "svc@example", PrivateKey: "not a key"},
		SpreadsheetID:  "sheet-1",
	})
	err := a.AppendLead(context.Background(), &leads.Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid private key")
}

func TestTokenExchangeFailure(t *testing.T) {
	_, pemKey := testKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	ts := newTokenSource(ServiceAccount{Email: "svc@example", TokenURI: server.URL}, []byte(pemKey), &http.Client{Timeout: time.Second})
	_, err := ts.Token()
	var rerr *oauth2.RetrieveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.Response.StatusCode)
	assert.Contains(t, string(rerr.Body), "invalid_grant")
}

func TestTokenConcurrentRefreshSharesExchange(t *testing.T) {
	_, pemKey := testKey(t)
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.shared","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	ts := newTokenSource(ServiceAccount{Email: "svc@example", TokenURI: server.URL}, []byte(pemKey), &http.Client{Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := ts.Token()
			if err == nil {
				tokens[i] = tok.AccessToken
			}
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "ya29.shared", tok)
	}
}

func TestBuildRowColumnOrder(t *testing.T) {
	p := &leads.Payload{
		Name: "n", Email: "e", Phone: "p", ProjectType: "pt", City: "c", Timeline: "t",
		Message: "m", EstimatedBudget: "b", CompanyName: "co", BusinessType: "bt",
		SquareFootage: "sf", FormSource: "fs",
	}
	row := BuildRow(p, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, []interface{}{
		"2026-01-02T03:04:05Z", "n", "e", "p", "pt", "c", "t", "m", "b", "co", "bt", "sf", "fs",
	}, row)
}

func TestParsePrivateKeyUnescapesNewlines(t *testing.T) {
	_, pemKey := testKey(t)
	escaped := `"` + strings.ReplaceAll(pemKey, "\n", `\n`) + `"`

	out, err := ParsePrivateKey(escaped)
	require.NoError(t, err)
	assert.Equal(t, pemKey, string(out))
}
