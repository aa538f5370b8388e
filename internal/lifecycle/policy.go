package lifecycle

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrPolicyNotFound is returned alongside the default policy when no policy
// file exists at the given path.
var ErrPolicyNotFound = errors.New("escalation policy file not found")

// EscalationPolicy tunes how the timeout sweep handles urgent reviews that
// keep failing to find a reassignment target. The retry cadence itself is the
// sweep schedule; this policy controls when the operator gets paged.
type EscalationPolicy struct {
	// AlertAfterRequeues is how many times an urgent review may revert to
	// PENDING before each further requeue raises a capacity-exhaustion
	// alert. Zero alerts on every requeue.
	AlertAfterRequeues int `yaml:"alert_after_requeues"`
}

// DefaultEscalationPolicy alerts on every requeue pass.
func DefaultEscalationPolicy() *EscalationPolicy {
	return &EscalationPolicy{AlertAfterRequeues: 0}
}

// LoadEscalationPolicy reads the policy file at path. A missing file yields
// the default policy together with ErrPolicyNotFound so callers can log the
// fallback and continue.
func LoadEscalationPolicy(path string) (*EscalationPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultEscalationPolicy(), ErrPolicyNotFound
		}
		return nil, fmt.Errorf("failed to read escalation policy: %w", err)
	}

	policy := DefaultEscalationPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse escalation policy: %w", err)
	}
	if policy.AlertAfterRequeues < 0 {
		return nil, fmt.Errorf("alert_after_requeues must not be negative: %d", policy.AlertAfterRequeues)
	}
	return policy, nil
}
