package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// ValidateCodeChallenge recomputes the PKCE challenge from the presented
// verifier and compares it to the challenge bound to the authorization
// code. S256 is base64url(SHA-256(verifier)) with padding stripped; plain
// is byte-exact equality. Unknown methods never match.
func ValidateCodeChallenge(verifier, challenge, method string) bool {
	switch method {
	case models.CodeChallengePlain:
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(challenge)) == 1
	case models.CodeChallengeS256:
		digest := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(digest[:])
		return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
	default:
		return false
	}
}
