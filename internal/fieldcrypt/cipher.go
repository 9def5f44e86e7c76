// Package fieldcrypt provides authenticated encryption for individual text
// columns. Ciphertexts are self-describing strings that can be stored in a
// TEXT column and carry their own nonce.
//
// Format:
//
//	sh1:<base64url(nonce || sealed)>
//
// The key is 32 random bytes encoded as URL-safe base64, the same shape as a
// Fernet key, so existing deployment secrets keep working.
package fieldcrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "sh1:"

var (
	// ErrMissingKey is returned when no key material was configured.
	ErrMissingKey = errors.New("encryption key is not configured")

	// ErrMalformedKey is returned when the key does not decode to 32 bytes.
	ErrMalformedKey = errors.New("encryption key must be 32 bytes of URL-safe base64")

	// ErrDecryptFailed covers every reason a stored value cannot be opened:
	// wrong key, truncated data, tampering or a value that was never encrypted.
	ErrDecryptFailed = errors.New("field decryption failed")
)

var decryptFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "shieldher_field_decrypt_failures_total",
	Help: "Number of stored field values that could not be decrypted.",
})

// Cipher encrypts and decrypts single field values. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// ParseKey decodes an encoded key. Both padded and unpadded URL-safe base64
// are accepted.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissingKey
	}

	key, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(encoded)
	}
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrMalformedKey
	}
	return key, nil
}

// New builds a Cipher from an encoded key.
//
// Returns:
//   - ErrMissingKey if encoded is empty
//   - ErrMalformedKey if it is not 32 bytes of URL-safe base64
//
// Example:
//
//	c, err := fieldcrypt.New(os.Getenv("ENCRYPTION_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(encoded string) (*Cipher, error) {
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// GenerateKey returns a fresh encoded key suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to read random key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random nonce.
// Encrypting the empty string yields the empty string.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. The empty string decrypts to
// itself. Any other failure returns ErrDecryptFailed and is counted in
// shieldher_field_decrypt_failures_total; the plaintext is never guessed.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	plaintext, err := c.open(ciphertext)
	if err != nil {
		decryptFailures.Inc()
		return "", err
	}
	return plaintext, nil
}

func (c *Cipher) open(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, prefix) {
		return "", fmt.Errorf("%w: missing version prefix", ErrDecryptFailed)
	}

	data, err := base64.RawURLEncoding.DecodeString(ciphertext[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryptFailed)
	}

	ns := c.aead.NonceSize()
	if len(data) < ns+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}

	plaintext, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptFailed)
	}
	return string(plaintext), nil
}

// IsCiphertext reports whether s has the shape of a value produced by Encrypt.
// It does not verify authenticity.
func IsCiphertext(s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s[len(prefix):])
	return err == nil
}
