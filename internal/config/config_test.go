package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edhire/dashgate-go/internal/request"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DASHGATE_API_BASE_URL", "http://localhost:8000/api/v1/")
	t.Setenv("DASHGATE_AUDIENCE", "recruiter")
	t.Setenv("DASHGATE_TIMEOUT", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.BaseURL)
	assert.Equal(t, AudienceRecruiter, cfg.Audience)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, ".dashgate_session.json", cfg.SessionFile)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DASHGATE_API_BASE_URL", "https://api.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, AudienceEducator, cfg.Audience)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"base_url: http://localhost:8000/api/v1//\naudience: educator\ntimeout: 5s\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, request.ErrInvalidBaseURL)
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	t.Setenv("DASHGATE_API_BASE_URL", "localhost:8000")

	_, err := Load("")
	assert.ErrorIs(t, err, request.ErrInvalidBaseURL)
}

func TestLoad_UnknownAudience(t *testing.T) {
	t.Setenv("DASHGATE_API_BASE_URL", "https://api.example.com")
	t.Setenv("DASHGATE_AUDIENCE", "admin")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown audience")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
