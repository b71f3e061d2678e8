package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrMissingSetting = errors.New("missing required setting")

type Settings struct {
	Port               string
	DatabaseDSN        string
	CryptoKey          string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendSuccessURL string
	CorsAllowedOrigin  string
	LogLevel           string
	LogFormat          string

	ProviderMaxAttempts       int
	CalendarRequestsPerSecond float64
	CalendarBurst             int
	CalendarPageSize          int64
}

// LoadEnv loads envFiles into the process environment, or ./.env when none
// are given. Variables already set in the environment take precedence.
func LoadEnv(envFiles ...string) error {
	var files []string
	for _, f := range envFiles {
		if f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		_ = godotenv.Load()
		return nil
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and validates settings from the environment after LoadEnv.
func Load(envFiles ...string) (*Settings, error) {
	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}

	s := &Settings{
		Port:               getEnv("PORT", "8000"),
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		CryptoKey:          os.Getenv("CRYPTO_KEY"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8000/auth/callback"),
		FrontendSuccessURL: getEnv("FRONTEND_SUCCESS_URL", "http://localhost:3000"),
		CorsAllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if s.ProviderMaxAttempts, err = getInt("PROVIDER_MAX_ATTEMPTS", 4); err != nil {
		return nil, err
	}
	if s.CalendarBurst, err = getInt("CALENDAR_BURST", 10); err != nil {
		return nil, err
	}
	pageSize, err := getInt("CALENDAR_PAGE_SIZE", 250)
	if err != nil {
		return nil, err
	}
	s.CalendarPageSize = int64(pageSize)
	if s.CalendarRequestsPerSecond, err = getFloat("CALENDAR_REQUESTS_PER_SECOND", 5); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_DSN", s.DatabaseDSN},
		{"CRYPTO_KEY", s.CryptoKey},
		{"JWT_SECRET", s.JWTSecret},
		{"GOOGLE_CLIENT_ID", s.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", s.GoogleClientSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	if len(s.CryptoKey) != 32 {
		return fmt.Errorf("CRYPTO_KEY must be 32 bytes, got %d", len(s.CryptoKey))
	}
	return nil
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func getInt(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}

func getFloat(name string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, v)
	}
	return f, nil
}
