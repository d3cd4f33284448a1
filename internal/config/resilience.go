package config

import (
	"time"

	"github.com/sells-group/scout/internal/resilience"
)

// Policy returns the retry policy for one provider operation. Zero fields
// fall back to resilience defaults when the policy runs.
func (r RetryConfig) Policy(service, operation string) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: time.Duration(r.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(r.MaxBackoffMs) * time.Millisecond,
		Multiplier:     r.Multiplier,
		JitterFraction: r.JitterFraction,
		OnRetry:        resilience.RetryLogger(service, operation),
	}
}

// Breakers returns per-provider circuit breakers, or nil when disabled.
func (c CircuitConfig) Breakers() *resilience.ServiceBreakers {
	if !c.Enabled {
		return nil
	}
	cfg := resilience.DefaultCircuitBreakerConfig()
	if c.FailureThreshold > 0 {
		cfg.FailureThreshold = c.FailureThreshold
	}
	if c.ResetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(c.ResetTimeoutSecs) * time.Second
	}
	return resilience.NewServiceBreakers(cfg)
}
