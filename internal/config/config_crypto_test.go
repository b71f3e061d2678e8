package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivel/calendar-service/internal/config"
)

const testKey = "01234567890123456789012345678901"

func TestNewCipher(t *testing.T) {
	t.Run("ShortKey", func(t *testing.T) {
		_, err := config.NewCipher("short-key")
		assert.Error(t, err)
	})

	t.Run("ValidKey", func(t *testing.T) {
		c, err := config.NewCipher(testKey)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	c, err := config.NewCipher(testKey)
	require.NoError(t, err)

	t.Run("SimpleText", func(t *testing.T) {
		plaintext := "ya29.a0AfH6SMB-access-token"

		ciphertext, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := c.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)

		ciphertext2, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, ciphertext, ciphertext2, "nonce must differ between encryptions")
	})

	t.Run("EmptyText", func(t *testing.T) {
		ciphertext, err := c.Encrypt("")
		require.NoError(t, err)

		decrypted, err := c.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("WrongKey", func(t *testing.T) {
		ciphertext, err := c.Encrypt("secret")
		require.NoError(t, err)

		other, err := config.NewCipher("abcdefghijabcdefghijabcdefghij12")
		require.NoError(t, err)

		_, err = other.Decrypt(ciphertext)
		assert.Error(t, err)
	})

	t.Run("TooShort", func(t *testing.T) {
		_, err := c.Decrypt("AAAA")
		assert.ErrorIs(t, err, config.ErrCiphertextTooShort)
	})

	t.Run("NotBase64", func(t *testing.T) {
		_, err := c.Decrypt("%%%not-base64%%%")
		assert.Error(t, err)
	})
}
