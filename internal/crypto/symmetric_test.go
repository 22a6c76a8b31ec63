package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := "test-server-secret-32-characters"

	encrypted, err := EncryptString(secret, "hello world")
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", encrypted)

	decrypted, err := DecryptString(secret, encrypted)
	require.NoError(t, err)
	assert.Equal(t, "hello world", decrypted)
}

func TestDecryptWithWrongSecret(t *testing.T) {
	encrypted, err := EncryptString("secret-one", "payload")
	require.NoError(t, err)

	_, err = DecryptString("secret-two", encrypted)
	assert.Error(t, err)
}

func TestDecryptMalformedInput(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "not base64", data: "%%%not-base64%%%"},
		{name: "too short", data: "YWJj"},
		{name: "empty", data: ""},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptString("secret", tt.data)
			assert.Error(t, err)
		})
	}
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	secret := "test-server-secret"

	first, err := EncryptString(secret, "same plaintext")
	require.NoError(t, err)
	second, err := EncryptString(secret, "same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
