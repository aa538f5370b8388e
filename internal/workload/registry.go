// Package workload tracks moderator capacity. Load is always derived from
// live review counts; there is no stored counter to drift out of sync under
// concurrent assignment attempts.
package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/storage"
)

// Registry answers capacity and availability questions about moderators.
type Registry struct {
	moderators storage.ModeratorStore
	reviews    storage.ReviewStore
	logger     *slog.Logger
}

// NewRegistry creates a Registry backed by the given stores.
func NewRegistry(moderators storage.ModeratorStore, reviews storage.ReviewStore, logger *slog.Logger) *Registry {
	return &Registry{moderators: moderators, reviews: reviews, logger: logger}
}

// Capacity returns the concurrent-review limit for a role.
func (r *Registry) Capacity(role core.ModeratorRole) int {
	return role.Capacity()
}

// CurrentLoad counts the reviews the moderator currently holds in ASSIGNED or
// IN_PROGRESS state.
func (r *Registry) CurrentLoad(ctx context.Context, moderatorID string) (int, error) {
	return r.reviews.CountActive(ctx, moderatorID)
}

// IsAvailable reports whether the moderator can take on another review. The
// priority is accepted for future prioritized-preemption policies; it does
// not currently relax the capacity check.
func (r *Registry) IsAvailable(ctx context.Context, moderatorID string, _ core.Priority) (bool, error) {
	profile, err := r.moderators.Get(ctx, moderatorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load moderator profile: %w", err)
	}
	if profile.Status != core.ModeratorActive {
		return false, nil
	}

	load, err := r.CurrentLoad(ctx, moderatorID)
	if err != nil {
		return false, err
	}
	return load < profile.Role.Capacity(), nil
}

// Candidate pairs a moderator with their live load for selection.
type Candidate struct {
	Profile core.ModeratorProfile
	Load    int
}

// AvailableCandidates returns the active moderators with spare capacity for a
// review of the given priority, excluding the named moderator (empty string
// excludes nobody). Callers pick the least-loaded candidate.
func (r *Registry) AvailableCandidates(ctx context.Context, _ core.Priority, exclude string) ([]Candidate, error) {
	profiles, err := r.moderators.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active moderators: %w", err)
	}

	candidates := make([]Candidate, 0, len(profiles))
	for _, profile := range profiles {
		if profile.ID == exclude {
			continue
		}
		load, err := r.CurrentLoad(ctx, profile.ID)
		if err != nil {
			r.logger.Warn("skipping moderator, load query failed",
				"moderator_id", profile.ID, "error", err)
			continue
		}
		if load < profile.Role.Capacity() {
			candidates = append(candidates, Candidate{Profile: profile, Load: load})
		}
	}
	return candidates, nil
}
