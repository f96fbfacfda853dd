// internal/service/usage/meter.go
package usage

import (
	"context"
	"errors"
	"fmt"

	"squadhub-service/internal/domain/entitlement"
	"squadhub-service/internal/domain/usage"
	xerrors "squadhub-service/internal/pkg/errors"
	"squadhub-service/internal/pkg/keylock"
	"squadhub-service/internal/pkg/kv"
	"squadhub-service/internal/pkg/metrics"
	entsvc "squadhub-service/internal/service/entitlement"

	"go.uber.org/zap"
)

// Notifier is told about every committed usage change.
type Notifier interface {
	UsageChanged(userID string, stats usage.Stats)
}

// Meter tracks per-user consumption and gates it against plan limits.
type Meter struct {
	kv           kv.Store
	entitlements *entsvc.Store
	locks        *keylock.Locker
	metrics      *metrics.BillingMetrics
	notifier     Notifier
	logger       *zap.Logger
}

func NewMeter(store kv.Store, entitlements *entsvc.Store, locks *keylock.Locker, logger *zap.Logger) *Meter {
	return &Meter{
		kv:           store,
		entitlements: entitlements,
		locks:        locks,
		metrics:      metrics.GetBillingMetrics(),
		logger:       logger,
	}
}

// SetNotifier registers n for usage change events.
func (m *Meter) SetNotifier(n Notifier) {
	m.notifier = n
}

// Initialize persists zeroed stats for userID unless some already exist.
func (m *Meter) Initialize(ctx context.Context, userID string) (usage.Stats, error) {
	unlock := m.locks.Lock(kv.UsageKey(userID))
	defer unlock()

	stats, found, err := m.load(ctx, userID)
	if err != nil || found {
		return stats, err
	}
	return m.save(ctx, stats)
}

// GetStats returns the user's counters, zeroed if nothing was recorded yet.
func (m *Meter) GetStats(ctx context.Context, userID string) (usage.Stats, error) {
	stats, _, err := m.load(ctx, userID)
	return stats, err
}

func (m *Meter) load(ctx context.Context, userID string) (usage.Stats, bool, error) {
	stats := usage.NewStats(userID)
	found, err := kv.GetJSON(ctx, m.kv, kv.UsageKey(userID), &stats)
	if err != nil {
		return usage.Stats{}, false, fmt.Errorf("failed to load usage: %w", err)
	}
	if stats.FeatureUsage == nil {
		stats.FeatureUsage = map[string]int64{}
	}
	return stats, found, nil
}

func (m *Meter) save(ctx context.Context, stats usage.Stats) (usage.Stats, error) {
	stats.UpdatedAt = m.entitlements.Now()
	if err := kv.SetJSON(ctx, m.kv, kv.UsageKey(stats.UserID), stats); err != nil {
		return usage.Stats{}, fmt.Errorf("failed to save usage: %w", err)
	}
	return stats, nil
}

// RecordUsage adds delta to the user's counters. Negative components fail with
// ErrInvalidDelta before anything is read or written, and so does a delta that
// would overflow a stored counter.
func (m *Meter) RecordUsage(ctx context.Context, userID string, delta usage.Delta) (usage.Stats, error) {
	if err := delta.Validate(); err != nil {
		return usage.Stats{}, err
	}

	unlock := m.locks.Lock(kv.UsageKey(userID))
	defer unlock()

	stats, _, err := m.load(ctx, userID)
	if err != nil {
		return usage.Stats{}, err
	}
	if delta.IsZero() {
		return stats, nil
	}
	if err := stats.CanApply(delta); err != nil {
		return usage.Stats{}, err
	}

	stats.Apply(delta)
	if stats, err = m.save(ctx, stats); err != nil {
		return usage.Stats{}, err
	}

	m.metrics.RecordUsage("teams", delta.TeamsCreated)
	m.metrics.RecordUsage("players", delta.PlayersAdded)
	m.metrics.RecordUsage("matches", delta.MatchesPlayed)
	for _, n := range delta.FeatureUsage {
		m.metrics.RecordUsage("features", n)
	}

	m.logger.Debug("usage recorded",
		zap.String("user_id", userID),
		zap.Int64("teams_created", stats.TeamsCreated),
		zap.Int64("players_added", stats.PlayersAdded),
		zap.Int64("matches_played", stats.MatchesPlayed),
	)
	if m.notifier != nil {
		m.notifier.UsageChanged(userID, stats)
	}
	return stats, nil
}

// RecordFeatureUse counts one invocation of feature.
func (m *Meter) RecordFeatureUse(ctx context.Context, userID string, feature entitlement.Feature) (usage.Stats, error) {
	if _, err := entitlement.ParseFeature(string(feature)); err != nil {
		return usage.Stats{}, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	return m.RecordUsage(ctx, userID, usage.Delta{FeatureUsage: map[string]int64{string(feature): 1}})
}

// Access reconciles trial expiry for userID and returns the effective plan.
func (m *Meter) Access(ctx context.Context, userID string) (entitlement.Record, entsvc.Access, error) {
	rec, err := m.entitlements.Reconcile(ctx, userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return entitlement.Record{}, entsvc.Access{}, fmt.Errorf("%w: user %q", xerrors.ErrNoSubscription, userID)
		}
		return entitlement.Record{}, entsvc.Access{}, err
	}
	access, err := m.entitlements.Catalog().Resolve(rec, m.entitlements.Now())
	if err != nil {
		return entitlement.Record{}, entsvc.Access{}, err
	}
	return rec, access, nil
}

// CanAccessFeature reports whether the user's effective plan includes feature.
// An active trial grants every feature.
func (m *Meter) CanAccessFeature(ctx context.Context, userID string, feature entitlement.Feature) (bool, error) {
	_, access, err := m.Access(ctx, userID)
	if err != nil {
		return false, err
	}
	return access.HasFeature(feature)
}

// CanCreateResource reports whether one more resource of kind fits the limit.
// It does not count anything.
func (m *Meter) CanCreateResource(ctx context.Context, userID string, kind entitlement.Resource) (bool, error) {
	_, access, err := m.Access(ctx, userID)
	if err != nil {
		return false, err
	}
	stats, err := m.GetStats(ctx, userID)
	if err != nil {
		return false, err
	}
	count, err := stats.Count(kind)
	if err != nil {
		return false, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	return access.CanCreate(kind, count)
}
