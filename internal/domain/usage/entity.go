// internal/domain/usage/entity.go
package usage

import (
	"fmt"
	"math"
	"time"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"
)

// Stats holds monotonic per-user counters.
type Stats struct {
	UserID        string           `json:"user_id"`
	TeamsCreated  int64            `json:"teams_created"`
	PlayersAdded  int64            `json:"players_added"`
	MatchesPlayed int64            `json:"matches_played"`
	FeatureUsage  map[string]int64 `json:"feature_usage"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewStats returns zeroed counters for userID.
func NewStats(userID string) Stats {
	return Stats{UserID: userID, FeatureUsage: map[string]int64{}}
}

// Count returns the counter that backs resource r.
func (s Stats) Count(r entitlement.Resource) (int64, error) {
	switch r {
	case entitlement.ResourceTeams:
		return s.TeamsCreated, nil
	case entitlement.ResourcePlayers:
		return s.PlayersAdded, nil
	case entitlement.ResourceMatches:
		return s.MatchesPlayed, nil
	}
	return 0, fmt.Errorf("unknown resource %q", r)
}

// CanApply reports with ErrInvalidDelta whether adding d would push any
// counter past math.MaxInt64. d must already be validated.
func (s Stats) CanApply(d Delta) error {
	if overflows(s.TeamsCreated, d.TeamsCreated) {
		return fmt.Errorf("%w: teams_created would overflow", xerrors.ErrInvalidDelta)
	}
	if overflows(s.PlayersAdded, d.PlayersAdded) {
		return fmt.Errorf("%w: players_added would overflow", xerrors.ErrInvalidDelta)
	}
	if overflows(s.MatchesPlayed, d.MatchesPlayed) {
		return fmt.Errorf("%w: matches_played would overflow", xerrors.ErrInvalidDelta)
	}
	for name, n := range d.FeatureUsage {
		if overflows(s.FeatureUsage[name], n) {
			return fmt.Errorf("%w: feature_usage[%s] would overflow", xerrors.ErrInvalidDelta, name)
		}
	}
	return nil
}

func overflows(current, delta int64) bool {
	return delta > 0 && current > math.MaxInt64-delta
}

// Apply adds d to the counters. Callers check d with Validate and CanApply
// first.
func (s *Stats) Apply(d Delta) {
	s.TeamsCreated += d.TeamsCreated
	s.PlayersAdded += d.PlayersAdded
	s.MatchesPlayed += d.MatchesPlayed
	if s.FeatureUsage == nil {
		s.FeatureUsage = map[string]int64{}
	}
	for name, n := range d.FeatureUsage {
		if n == 0 {
			continue
		}
		s.FeatureUsage[name] += n
	}
}

// Delta is an additive change to Stats.
type Delta struct {
	TeamsCreated  int64            `json:"teams_created"`
	PlayersAdded  int64            `json:"players_added"`
	MatchesPlayed int64            `json:"matches_played"`
	FeatureUsage  map[string]int64 `json:"feature_usage"`
}

// Validate rejects negative components with ErrInvalidDelta.
func (d Delta) Validate() error {
	if d.TeamsCreated < 0 {
		return fmt.Errorf("%w: teams_created=%d", xerrors.ErrInvalidDelta, d.TeamsCreated)
	}
	if d.PlayersAdded < 0 {
		return fmt.Errorf("%w: players_added=%d", xerrors.ErrInvalidDelta, d.PlayersAdded)
	}
	if d.MatchesPlayed < 0 {
		return fmt.Errorf("%w: matches_played=%d", xerrors.ErrInvalidDelta, d.MatchesPlayed)
	}
	for name, n := range d.FeatureUsage {
		if name == "" {
			return fmt.Errorf("%w: empty feature name", xerrors.ErrInvalidDelta)
		}
		if n < 0 {
			return fmt.Errorf("%w: feature_usage[%s]=%d", xerrors.ErrInvalidDelta, name, n)
		}
	}
	return nil
}

// IsZero reports whether applying d would change nothing.
func (d Delta) IsZero() bool {
	if d.TeamsCreated != 0 || d.PlayersAdded != 0 || d.MatchesPlayed != 0 {
		return false
	}
	for _, n := range d.FeatureUsage {
		if n != 0 {
			return false
		}
	}
	return true
}

// ResourceDelta is a single-resource increment.
func ResourceDelta(r entitlement.Resource, n int64) (Delta, error) {
	switch r {
	case entitlement.ResourceTeams:
		return Delta{TeamsCreated: n}, nil
	case entitlement.ResourcePlayers:
		return Delta{PlayersAdded: n}, nil
	case entitlement.ResourceMatches:
		return Delta{MatchesPlayed: n}, nil
	}
	return Delta{}, fmt.Errorf("unknown resource %q", r)
}
