package fieldcrypt_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCipher(t *testing.T) *fieldcrypt.Cipher {
	t.Helper()
	key, err := fieldcrypt.GenerateKey()
	require.NoError(t, err)
	c, err := fieldcrypt.New(key)
	require.NoError(t, err)
	return c
}

// TestCipher_RoundTrip verifies decrypt(encrypt(x)) == x for varied input.
func TestCipher_RoundTrip(t *testing.T) {
	c := newCipher(t)

	inputs := []string{
		"He follows me home from work",
		"ünïcödé and emoji 🚨",
		strings.Repeat("a", 5000),
	}

	for _, in := range inputs {
		ct, err := c.Encrypt(in)
		require.NoError(t, err)
		assert.True(t, fieldcrypt.IsCiphertext(ct))
		assert.NotContains(t, ct, in)

		pt, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, in, pt)
	}
}

// TestCipher_Empty verifies the empty string maps to itself both ways.
func TestCipher_Empty(t *testing.T) {
	c := newCipher(t)

	ct, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", ct)

	pt, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", pt)
}

// TestCipher_FreshNonce verifies two encryptions of the same text differ.
func TestCipher_FreshNonce(t *testing.T) {
	c := newCipher(t)

	a, err := c.Encrypt("same text")
	require.NoError(t, err)
	b, err := c.Encrypt("same text")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

// TestCipher_DecryptFailures verifies every failure mode is ErrDecryptFailed.
//
// Test Cases:
//   - Plaintext stored without encryption
//   - Wrong key
//   - Tampered ciphertext
//   - Truncated ciphertext
//   - Invalid base64 after the prefix
func TestCipher_DecryptFailures(t *testing.T) {
	c := newCipher(t)
	other := newCipher(t)

	ct, err := c.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ct, "sh1:"))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := "sh1:" + base64.RawURLEncoding.EncodeToString(raw)

	tests := []struct {
		name   string
		cipher *fieldcrypt.Cipher
		input  string
	}{
		{"plaintext", c, "not encrypted at all"},
		{"wrong key", other, ct},
		{"tampered", c, tampered},
		{"truncated", c, "sh1:AAAA"},
		{"bad encoding", c, "sh1:***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := tt.cipher.Decrypt(tt.input)
			assert.ErrorIs(t, err, fieldcrypt.ErrDecryptFailed)
			assert.Empty(t, pt)
		})
	}
}

// TestNew_KeyValidation verifies missing and malformed keys are rejected.
func TestNew_KeyValidation(t *testing.T) {
	_, err := fieldcrypt.New("")
	assert.ErrorIs(t, err, fieldcrypt.ErrMissingKey)

	_, err = fieldcrypt.New("   ")
	assert.ErrorIs(t, err, fieldcrypt.ErrMissingKey)

	_, err = fieldcrypt.New("not-a-key")
	assert.ErrorIs(t, err, fieldcrypt.ErrMalformedKey)

	short := base64.URLEncoding.EncodeToString(make([]byte, 16))
	_, err = fieldcrypt.New(short)
	assert.ErrorIs(t, err, fieldcrypt.ErrMalformedKey)

	unpadded := base64.RawURLEncoding.EncodeToString(make([]byte, 32))
	_, err = fieldcrypt.New(unpadded)
	assert.NoError(t, err)
}

// TestIsCiphertext verifies shape detection.
func TestIsCiphertext(t *testing.T) {
	assert.False(t, fieldcrypt.IsCiphertext(""))
	assert.False(t, fieldcrypt.IsCiphertext("plain description"))
	assert.False(t, fieldcrypt.IsCiphertext("sh1:***"))
	assert.True(t, fieldcrypt.IsCiphertext("sh1:AAAA"))
}
