package vault

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	encoded, err := GenerateKey()
	require.NoError(t, err)
	key, err := ParseKey(encoded)
	require.NoError(t, err)
	c, err := NewCipher(key)
	require.NoError(t, err)
	return c
}

func TestCipherRoundTrip(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple token", plaintext: "ghp_abc123"},
		{name: "empty string", plaintext: ""},
		{name: "unicode", plaintext: "пароль-秘密-🔑"},
		{name: "json payload", plaintext: `{"access_token":"ya29.x","scopes":["a","b"]}`},
		{name: "large value", plaintext: strings.Repeat("A", 1<<20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.EncryptString(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, sealed)

			opened, err := c.DecryptString(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestCipherNonceUniqueness(t *testing.T) {
	c := testCipher(t)

	first, err := c.EncryptString("same plaintext")
	require.NoError(t, err)
	second, err := c.EncryptString("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, sealed := range []string{first, second} {
		opened, err := c.DecryptString(sealed)
		require.NoError(t, err)
		assert.Equal(t, "same plaintext", opened)
	}
}

func TestCipherTamperDetection(t *testing.T) {
	c := testCipher(t)

	sealed, err := c.EncryptString("secret-value")
	require.NoError(t, err)
	blob, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mangle func([]byte)
	}{
		{name: "flipped ciphertext byte", mangle: func(b []byte) { b[len(b)-1] ^= 0x01 }},
		{name: "flipped nonce byte", mangle: func(b []byte) { b[5] ^= 0x80 }},
		{name: "unknown version byte", mangle: func(b []byte) { b[0] = 0x7f }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mangled := make([]byte, len(blob))
			copy(mangled, blob)
			tt.mangle(mangled)

			_, err := c.DecryptString(base64.StdEncoding.EncodeToString(mangled))
			assert.Error(t, err)
		})
	}
}

func TestCipherWrongKey(t *testing.T) {
	sealed, err := testCipher(t).EncryptString("secret-value")
	require.NoError(t, err)

	_, err = testCipher(t).DecryptString(sealed)
	assert.Error(t, err)
}

func TestCipherRejectsGarbage(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "not base64", encoded: "!!! not base64 !!!"},
		{name: "empty", encoded: ""},
		{name: "too short", encoded: base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.DecryptString(tt.encoded)
			assert.Error(t, err)
		})
	}
}

func TestGenerateKey(t *testing.T) {
	first, err := GenerateKey()
	require.NoError(t, err)
	second, err := GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, 44)

	key, err := ParseKey(first)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)
}

func TestParseKey(t *testing.T) {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = byte(i)
	}

	tests := []struct {
		name    string
		encoded string
		wantErr bool
	}{
		{name: "standard padded", encoded: base64.StdEncoding.EncodeToString(raw)},
		{name: "url safe padded", encoded: base64.URLEncoding.EncodeToString(raw)},
		{name: "standard unpadded", encoded: base64.RawStdEncoding.EncodeToString(raw)},
		{name: "url safe unpadded", encoded: base64.RawURLEncoding.EncodeToString(raw)},
		{name: "surrounding whitespace", encoded: "  " + base64.StdEncoding.EncodeToString(raw) + "\n"},
		{name: "empty", encoded: "", wantErr: true},
		{name: "not base64", encoded: "%%%%", wantErr: true},
		{name: "wrong length", encoded: base64.StdEncoding.EncodeToString(raw[:16]), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.encoded)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, raw, key)
		})
	}
}
