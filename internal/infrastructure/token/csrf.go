package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"repair-desk/internal/domain"
)

// HMACCSRFGenerator derives CSRF tokens from session tokens using HMAC-SHA256.
// Implements domain.CSRFTokenGenerator.
type HMACCSRFGenerator struct {
	secret []byte
}

// NewHMACCSRFGenerator creates a new CSRF token generator.
func NewHMACCSRFGenerator(secret string) *HMACCSRFGenerator {
	return &HMACCSRFGenerator{secret: []byte(secret)}
}

// Generate creates a deterministic CSRF token for a session token.
func (g *HMACCSRFGenerator) Generate(sessionToken string) (string, error) {
	if len(g.secret) == 0 {
		return "", domain.ErrCSRFSecretMissing
	}
	return base64.URLEncoding.EncodeToString(g.sum(sessionToken)), nil
}

// Verify reports whether token was generated for sessionToken.
func (g *HMACCSRFGenerator) Verify(sessionToken, token string) bool {
	if len(g.secret) == 0 || sessionToken == "" || token == "" {
		return false
	}
	got, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(got, g.sum(sessionToken))
}

func (g *HMACCSRFGenerator) sum(sessionToken string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionToken))
	return mac.Sum(nil)
}
