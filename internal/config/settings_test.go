package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivel/calendar-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost dbname=calendar")
	t.Setenv("CRYPTO_KEY", testKey)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("PORT", "")
	t.Setenv("PROVIDER_MAX_ATTEMPTS", "")
}

// unset removes name for the duration of the test so an env file can set it.
func unset(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func TestLoad(t *testing.T) {
	t.Run("EnvFileFillsGaps", func(t *testing.T) {
		setRequired(t)
		unset(t, "CALENDAR_PAGE_SIZE")

		file := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(file, []byte("CALENDAR_PAGE_SIZE=100\nJWT_SECRET=file-secret\n"), 0o600))

		s, err := config.Load(file)
		require.NoError(t, err)
		assert.Equal(t, int64(100), s.CalendarPageSize)
		assert.Equal(t, "env-secret", s.JWTSecret)
		assert.Equal(t, "8000", s.Port)
		assert.Equal(t, 4, s.ProviderMaxAttempts)
	})

	t.Run("MissingRequired", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GOOGLE_CLIENT_ID", "")
		t.Setenv("JWT_SECRET", " ")

		_, err := config.Load()
		require.ErrorIs(t, err, config.ErrMissingSetting)
		assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("ShortCryptoKey", func(t *testing.T) {
		setRequired(t)
		t.Setenv("CRYPTO_KEY", "too-short")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CRYPTO_KEY")
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PROVIDER_MAX_ATTEMPTS", "zero")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROVIDER_MAX_ATTEMPTS")
	})

	t.Run("MissingEnvFile", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
		require.Error(t, err)
	})
}
