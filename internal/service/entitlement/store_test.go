package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"
	"squadhub-service/internal/pkg/keylock"
	"squadhub-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []entitlement.Record
}

func (n *recordingNotifier) EntitlementChanged(_ string, rec entitlement.Record) {
	n.mu.Lock()
	n.changes = append(n.changes, rec)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

func newTestStore(t *testing.T) (*Store, *memory.FaultyStore, *fakeClock, *recordingNotifier) {
	t.Helper()
	kvs := memory.NewFaultyStore()
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	s := NewStore(kvs, DefaultCatalog(), keylock.New(), zap.NewNop(),
		WithClock(clock.Now),
		WithNotifier(notifier),
	)
	return s, kvs, clock, notifier
}

func TestInitializeStartsSevenDayTrial(t *testing.T) {
	s, _, clock, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	assert.Equal(t, entitlement.StatusTrial, rec.Status())
	assert.Equal(t, entitlement.PlanFree, rec.PlanID)
	trial := rec.State.(entitlement.Trial)
	assert.Equal(t, clock.Now(), trial.Start)
	assert.Equal(t, 7*24*time.Hour, trial.End.Sub(trial.Start))

	stored, err := s.Get(ctx, "coach-1")
	require.NoError(t, err)
	assert.True(t, stored.State.(entitlement.Trial).End.Equal(trial.End))
}

func TestInitializeIsIdempotent(t *testing.T) {
	s, _, clock, notifier := newTestStore(t)
	ctx := context.Background()

	first, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	second, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	assert.True(t, first.State.(entitlement.Trial).Start.Equal(second.State.(entitlement.Trial).Start))
	assert.Equal(t, 1, notifier.count())
}

func TestInitializeDoesNotDowngradePaidRecord(t *testing.T) {
	s, _, clock, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, entitlement.Record{
		UserID: "coach-1",
		PlanID: entitlement.PlanPro,
		State:  entitlement.Active{PeriodStart: clock.Now(), PeriodEnd: clock.Now().Add(30 * 24 * time.Hour)},
	})
	require.NoError(t, err)

	rec, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusActive, rec.Status())
	assert.Equal(t, entitlement.PlanPro, rec.PlanID)
}

func TestInitializeConcurrentCallersShareOneTrial(t *testing.T) {
	s, _, _, notifier := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]entitlement.Record, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := s.Initialize(ctx, "coach-1")
			assert.NoError(t, err)
			results[i] = rec
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.count())
	for _, rec := range results {
		assert.Equal(t, entitlement.StatusTrial, rec.Status())
	}
}

func TestInitializeRequiresUserID(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	_, err := s.Initialize(context.Background(), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestGetMissingRecord(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSaveRejectsUnknownPlan(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	_, err := s.Save(context.Background(), entitlement.Record{UserID: "u", PlanID: "platinum", State: entitlement.Free{}})
	assert.ErrorIs(t, err, xerrors.ErrUnknownPlan)
}

func TestStorageFailuresPropagate(t *testing.T) {
	s, kvs, _, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	kvs.FailGets("entitlement:")
	_, err = s.Get(ctx, "coach-1")
	assert.ErrorIs(t, err, xerrors.ErrStorage)
	_, err = s.Initialize(ctx, "coach-2")
	assert.ErrorIs(t, err, xerrors.ErrStorage)

	kvs.Heal()
	kvs.FailSets("entitlement:")
	_, err = s.Update(ctx, "coach-1", func(r entitlement.Record) (entitlement.Record, error) {
		r.State = entitlement.Free{}
		return r, nil
	})
	assert.ErrorIs(t, err, xerrors.ErrStorage)

	kvs.Heal()
	current, err := s.Get(ctx, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Status(), current.Status())
}

func TestUpdateFailureWritesNothing(t *testing.T) {
	s, _, _, notifier := newTestStore(t)
	ctx := context.Background()

	_, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "coach-1", func(entitlement.Record) (entitlement.Record, error) {
		return entitlement.Record{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, notifier.count())

	_, err = s.Update(ctx, "nobody", func(r entitlement.Record) (entitlement.Record, error) { return r, nil })
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestReconcileExpiresTrialOnce(t *testing.T) {
	s, _, clock, notifier := newTestStore(t)
	ctx := context.Background()

	_, err := s.Initialize(ctx, "coach-1")
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	rec, err := s.Reconcile(ctx, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusTrial, rec.Status())

	clock.Advance(24 * time.Hour)
	rec, err = s.Reconcile(ctx, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusFree, rec.Status())
	assert.Equal(t, entitlement.PlanFree, rec.PlanID)
	assert.Equal(t, 2, notifier.count())

	clock.Advance(time.Hour)
	again, err := s.Reconcile(ctx, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusFree, again.Status())
	assert.True(t, rec.UpdatedAt.Equal(again.UpdatedAt))
	assert.Equal(t, 2, notifier.count())
}

func TestReconcileMissingRecord(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	_, err := s.Reconcile(context.Background(), "nobody")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
