// internal/service/entitlement/store.go
package entitlement

import (
	"context"
	"fmt"
	"time"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"
	"squadhub-service/internal/pkg/keylock"
	"squadhub-service/internal/pkg/kv"
	"squadhub-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier is told about every committed record change.
type Notifier interface {
	EntitlementChanged(userID string, rec entitlement.Record)
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// Store owns the per-user EntitlementRecord and the plan catalog.
type Store struct {
	kv       kv.Store
	catalog  *Catalog
	locks    *keylock.Locker
	metrics  *metrics.BillingMetrics
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewStore(store kv.Store, catalog *Catalog, locks *keylock.Locker, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		catalog: catalog,
		locks:   locks,
		metrics: metrics.GetBillingMetrics(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Catalog exposes the plan catalog.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Lock serializes read-modify-write of userID's record. Callers holding the
// lock must use Get and Save, never Update or Reconcile.
func (s *Store) Lock(userID string) func() {
	return s.locks.Lock(kv.EntitlementKey(userID))
}

// Initialize creates a seven day trial on the free plan if userID has no record.
// An existing record is returned unchanged.
func (s *Store) Initialize(ctx context.Context, userID string) (entitlement.Record, error) {
	if userID == "" {
		return entitlement.Record{}, fmt.Errorf("%w: user id is required", xerrors.ErrInvalidInput)
	}

	unlock := s.Lock(userID)
	defer unlock()

	existing, found, err := s.load(ctx, userID)
	if err != nil {
		return entitlement.Record{}, err
	}
	if found {
		return existing, nil
	}

	now := s.now()
	rec := entitlement.Record{
		UserID:    userID,
		PlanID:    entitlement.PlanFree,
		State:     entitlement.NewTrial(now),
		CreatedAt: now,
	}
	if rec, err = s.Save(ctx, rec); err != nil {
		return entitlement.Record{}, err
	}

	s.logger.Info("trial started",
		zap.String("user_id", userID),
		zap.Time("trial_end", rec.State.(entitlement.Trial).End),
	)
	return rec, nil
}

// Get returns the stored record or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (entitlement.Record, error) {
	rec, found, err := s.load(ctx, userID)
	if err != nil {
		return entitlement.Record{}, err
	}
	if !found {
		return entitlement.Record{}, fmt.Errorf("entitlement for %q: %w", userID, xerrors.ErrNotFound)
	}
	return rec, nil
}

func (s *Store) load(ctx context.Context, userID string) (entitlement.Record, bool, error) {
	var rec entitlement.Record
	found, err := kv.GetJSON(ctx, s.kv, kv.EntitlementKey(userID), &rec)
	if err != nil {
		return entitlement.Record{}, false, fmt.Errorf("failed to load entitlement: %w", err)
	}
	return rec, found, nil
}

// Save replaces the stored record in full and returns what was written.
func (s *Store) Save(ctx context.Context, rec entitlement.Record) (entitlement.Record, error) {
	if _, err := s.catalog.Get(rec.PlanID); err != nil {
		return entitlement.Record{}, err
	}
	rec.UpdatedAt = s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	if err := rec.Validate(); err != nil {
		return entitlement.Record{}, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	if err := kv.SetJSON(ctx, s.kv, kv.EntitlementKey(rec.UserID), rec); err != nil {
		return entitlement.Record{}, fmt.Errorf("failed to save entitlement: %w", err)
	}

	if s.notifier != nil {
		s.notifier.EntitlementChanged(rec.UserID, rec)
	}
	return rec, nil
}

// Update applies fn to the current record under the user's lock and saves the
// result. Nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, userID string, fn func(entitlement.Record) (entitlement.Record, error)) (entitlement.Record, error) {
	unlock := s.Lock(userID)
	defer unlock()

	rec, err := s.Get(ctx, userID)
	if err != nil {
		return entitlement.Record{}, err
	}
	next, err := fn(rec)
	if err != nil {
		return entitlement.Record{}, err
	}
	next.UserID = userID
	return s.Save(ctx, next)
}

// Reconcile rewrites an expired trial to the free plan. It is idempotent and
// returns the current record.
func (s *Store) Reconcile(ctx context.Context, userID string) (entitlement.Record, error) {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return entitlement.Record{}, err
	}
	if !rec.TrialExpired(s.now()) {
		return rec, nil
	}

	unlock := s.Lock(userID)
	defer unlock()

	// Another caller may have expired or upgraded the record meanwhile.
	rec, err = s.Get(ctx, userID)
	if err != nil {
		return entitlement.Record{}, err
	}
	return s.expireLocked(ctx, rec)
}

// ExpireIfDue is Reconcile for callers that already hold the user's lock.
func (s *Store) ExpireIfDue(ctx context.Context, rec entitlement.Record) (entitlement.Record, error) {
	return s.expireLocked(ctx, rec)
}

func (s *Store) expireLocked(ctx context.Context, rec entitlement.Record) (entitlement.Record, error) {
	if !rec.TrialExpired(s.now()) {
		return rec, nil
	}
	trialEnd := rec.State.(entitlement.Trial).End

	rec.PlanID = entitlement.PlanFree
	rec.State = entitlement.Free{}
	saved, err := s.Save(ctx, rec)
	if err != nil {
		return entitlement.Record{}, fmt.Errorf("failed to expire trial: %w", err)
	}

	s.metrics.RecordTrialExpiration()
	s.logger.Info("trial expired",
		zap.String("user_id", rec.UserID),
		zap.Time("trial_end", trialEnd),
	)
	return saved, nil
}

// GetPlan looks up a plan in the catalog.
func (s *Store) GetPlan(planID string) (entitlement.Plan, error) {
	return s.catalog.Get(planID)
}

// Plans lists the catalog.
func (s *Store) Plans() []entitlement.Plan {
	return s.catalog.All()
}
