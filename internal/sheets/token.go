package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	oauthjwt "golang.org/x/oauth2/jwt"
)

const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// ServiceAccount identifies the Google service account used for the sheet.
type ServiceAccount struct {
	Email      string
	PrivateKey string // PEM; literal "\n" sequences are accepted
	TokenURI   string
}

// ParsePrivateKey checks the RSA key and returns it as PEM, unescaping "\n"
// sequences that environment variables commonly carry.
func ParsePrivateKey(raw string) ([]byte, error) {
	pemText := strings.ReplaceAll(strings.TrimSpace(raw), `\n`, "\n")
	pemText = strings.Trim(pemText, `"`)
	if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemText)); err != nil {
		return nil, fmt.Errorf("sheets: invalid private key: %w", err)
	}
	return []byte(pemText), nil
}

// newTokenSource exchanges signed service account assertions for bearer
// tokens over httpClient. Tokens are cached until they expire and concurrent
// callers share one refresh.
func newTokenSource(sa ServiceAccount, pemKey []byte, httpClient *http.Client) oauth2.TokenSource {
	conf := &oauthjwt.Config{
		Email:      sa.Email,
		PrivateKey: pemKey,
		Scopes:     []string{spreadsheetsScope},
		TokenURL:   sa.TokenURI,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return conf.TokenSource(ctx)
}
