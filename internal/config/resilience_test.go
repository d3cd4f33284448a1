package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryConfig_Policy(t *testing.T) {
	p := RetryConfig{MaxAttempts: 2, InitialBackoffMs: 250, MaxBackoffMs: 4000, Multiplier: 1.5}.Policy("firecrawl", "agent_status")
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 4*time.Second, p.MaxBackoff)
	assert.InDelta(t, 1.5, p.Multiplier, 0)
	require.NotNil(t, p.OnRetry)
	assert.NotPanics(t, func() { p.OnRetry(1, errors.New("boom")) })

	zero := RetryConfig{}.Policy("exa", "search")
	assert.Zero(t, zero.MaxAttempts)
	assert.Zero(t, zero.InitialBackoff)
}

func TestCircuitConfig_Breakers(t *testing.T) {
	assert.Nil(t, CircuitConfig{FailureThreshold: 3}.Breakers())

	sb := CircuitConfig{Enabled: true, FailureThreshold: 1, ResetTimeoutSecs: 60}.Breakers()
	require.NotNil(t, sb)
	cb := sb.Get("jina")
	cb.Record(errors.New("boom"))
	assert.Error(t, cb.Allow(), "one failure trips a threshold of 1")

	assert.NotNil(t, CircuitConfig{Enabled: true}.Breakers())
}
