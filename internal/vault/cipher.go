package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

// KeySize is the size in bytes of the vault's symmetric encryption key.
const KeySize = chacha20poly1305.KeySize

// blobVersion is the version byte prepended to every encrypted blob. It is
// also fed to the AEAD as additional authenticated data, so tampering with
// it fails authentication instead of decoding garbage.
const blobVersion byte = 0x01

// blobOverhead is the fixed byte overhead per encrypted value:
// 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
const blobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// keyEncodings lists the base64 alphabets accepted for transported keys.
// Keys generated here use the standard padded alphabet; keys minted by
// other tooling are often URL-safe or unpadded.
var keyEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// GenerateKey returns a fresh random vault key, base64-encoded in the form
// ParseKey accepts. Intended for the keygen command and for tests.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// ParseKey decodes a base64-encoded vault key and checks its length.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}

	var key []byte
	var err error
	for _, enc := range keyEncodings {
		key, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// =============================================================================
// CIPHER
// =============================================================================

// Cipher performs the vault's field-level authenticated encryption. The
// encrypted form of a value is a base64 string wrapping
//
//	[version: 1 byte (0x01)] [nonce: 24 bytes (random)] [ciphertext+tag]
//
// sealed with XChaCha20-Poly1305 using the version byte as AAD. A Cipher
// holds no mutable state after construction and is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw key of exactly KeySize bytes. The
// key is consumed here once; the Cipher never exposes it again.
func NewCipher(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString seals one credential value. Every call draws a fresh random
// nonce, so encrypting the same plaintext twice yields different output.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generating random nonce: %w", err)
	}

	blob := make([]byte, 1+chacha20poly1305.NonceSizeX, blobOverhead+len(plaintext))
	blob[0] = blobVersion
	copy(blob[1:], nonce[:])
	blob = c.aead.Seal(blob, nonce[:], []byte(plaintext), []byte{blobVersion})

	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptString opens a value produced by EncryptString. Wrong key,
// tampered bytes, truncation, and mangled encoding all fail the same way;
// the error never reveals which.
func (c *Cipher) DecryptString(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding encrypted value: %w", err)
	}
	if len(blob) < blobOverhead {
		return "", fmt.Errorf("encrypted value is %d bytes, minimum is %d", len(blob), blobOverhead)
	}
	if blob[0] != blobVersion {
		return "", fmt.Errorf("encrypted value version %d is not supported (expected %d)", blob[0], blobVersion)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := blob[1+chacha20poly1305.NonceSizeX:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, []byte{blobVersion})
	if err != nil {
		return "", fmt.Errorf("authenticated decryption failed (wrong key or tampered data): %w", err)
	}
	return string(plaintext), nil
}
