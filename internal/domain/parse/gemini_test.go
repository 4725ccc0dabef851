package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiCompleterUsesExplicitKey(t *testing.T) {
	// No ambient credentials: the configured key must be enough on its own.
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GOOGLE_GENAI_USE_VERTEXAI", "")

	completer, err := NewGeminiCompleter(context.Background(), "config-key", "gemini-2.0-flash", 0)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", completer.model)
	assert.NotNil(t, completer.client)
	// Zero requestsPerMinute falls back to the default quota.
	assert.InDelta(t, 15.0/60, float64(completer.limiter.Limit()), 0.001)
}
