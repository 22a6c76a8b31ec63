package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/msanchezdev/taskhub-api/internal/config"
	"github.com/msanchezdev/taskhub-api/internal/crypto"
)

// SecretVerifier compares a presented client secret against its stored
// form. The active policy decides how the stored value is interpreted:
//
//	plain     - direct equality
//	hashed    - SHA-256 digest, base64url-encoded without padding
//	encrypted - stored value symmetrically decrypted under the server secret
//
// HashFunc/DecryptFunc override the built-in policies when set, so
// deployments can plug in their own scheme (e.g. bcrypt).
type SecretVerifier struct {
	Policy       string
	ServerSecret string

	HashFunc    func(secret string) (string, error)
	DecryptFunc func(stored string) (string, error)
}

// NewSecretVerifier builds a verifier for the configured storage policy.
func NewSecretVerifier(cfg *config.Config) *SecretVerifier {
	return &SecretVerifier{
		Policy:       cfg.ClientSecretPolicy,
		ServerSecret: cfg.ServerSecret,
	}
}

// HashSecret computes the hashed-policy encoding of a secret.
func HashSecret(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// Store converts a plaintext secret into its stored form under the active
// policy. The plaintext is returned to the client exactly once at
// registration; only the stored form survives.
func (v *SecretVerifier) Store(secret string) (string, error) {
	if v.HashFunc != nil {
		return v.HashFunc(secret)
	}

	switch v.Policy {
	case config.SecretPolicyHashed:
		return HashSecret(secret), nil
	case config.SecretPolicyEncrypted:
		return crypto.EncryptString(v.ServerSecret, secret)
	case config.SecretPolicyPlain, "":
		return secret, nil
	default:
		return "", fmt.Errorf("unknown client secret policy: %s", v.Policy)
	}
}

// Verify reports whether the provided secret matches the stored value.
// The provided value is always the wire-format plaintext; only the stored
// side is policy-dependent.
func (v *SecretVerifier) Verify(stored, provided string) (bool, error) {
	if v.DecryptFunc != nil {
		decrypted, err := v.DecryptFunc(stored)
		if err != nil {
			return false, nil
		}
		return constantTimeEqual(decrypted, provided), nil
	}

	if v.HashFunc != nil {
		hashed, err := v.HashFunc(provided)
		if err != nil {
			return false, err
		}
		return constantTimeEqual(hashed, stored), nil
	}

	switch v.Policy {
	case config.SecretPolicyHashed:
		return constantTimeEqual(HashSecret(provided), stored), nil
	case config.SecretPolicyEncrypted:
		decrypted, err := crypto.DecryptString(v.ServerSecret, stored)
		if err != nil {
			// Tampered or foreign ciphertext is a mismatch, not an
			// infrastructure failure.
			return false, nil
		}
		return constantTimeEqual(decrypted, provided), nil
	case config.SecretPolicyPlain, "":
		return constantTimeEqual(stored, provided), nil
	default:
		return false, fmt.Errorf("unknown client secret policy: %s", v.Policy)
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
