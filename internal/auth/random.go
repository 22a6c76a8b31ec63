package auth

import (
	"crypto/rand"
	"math/big"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomToken returns an opaque token of n alphanumeric characters drawn
// from crypto/rand. Used for authorization codes, opaque access/refresh
// tokens and jti values.
func randomToken(n int) string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process has no entropy source;
			// nothing sensible to return.
			panic(err)
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b)
}
