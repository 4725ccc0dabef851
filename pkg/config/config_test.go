package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 2, cfg.Engine.ParseMaxRetries)
	assert.Equal(t, 50.0, cfg.Engine.ConfidenceFloor)
	assert.Equal(t, "*/10 * * * *", cfg.Inbox.SweepCron)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 90*time.Second, cfg.Gemini.AttemptTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("ENGINE_WORKERS", "8")
	t.Setenv("GEMINI_ATTEMPT_TIMEOUT", "2m")
	t.Setenv("HOLDER_CARD_LAST4S", "4321, 9876,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Gemini.AttemptTimeout)
	assert.Equal(t, []string{"4321", "9876"}, cfg.Holder.CardLast4s)
}

func TestLoadRequiresGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
