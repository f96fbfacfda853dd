package entitlement

import (
	"testing"
	"time"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	c := DefaultCatalog()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name      string
		rec       entitlement.Record
		wantPlan  string
		wantTrial bool
	}{
		{"active trial", entitlement.Record{PlanID: "free", State: entitlement.NewTrial(now.Add(-day))}, "free", true},
		{"expired trial", entitlement.Record{PlanID: "free", State: entitlement.NewTrial(now.Add(-8 * day))}, "free", false},
		{"free", entitlement.Record{PlanID: "free", State: entitlement.Free{}}, "free", false},
		{"active pro", entitlement.Record{PlanID: "pro", State: entitlement.Active{PeriodStart: now.Add(-day), PeriodEnd: now.Add(29 * day)}}, "pro", false},
		{"active past period", entitlement.Record{PlanID: "pro", State: entitlement.Active{PeriodStart: now.Add(-40 * day), PeriodEnd: now.Add(-10 * day)}}, "pro", false},
		{"cancelled within period", entitlement.Record{PlanID: "pro", State: entitlement.Cancelled{PeriodStart: now.Add(-day), PeriodEnd: now.Add(day), CancelAtPeriodEnd: true}}, "pro", false},
		{"cancelled after period", entitlement.Record{PlanID: "pro", State: entitlement.Cancelled{PeriodStart: now.Add(-31 * day), PeriodEnd: now.Add(-day), CancelAtPeriodEnd: true}}, "free", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := c.Resolve(tt.rec, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlan, a.Plan.ID)
			assert.Equal(t, tt.wantTrial, a.Trial)
		})
	}
}

func TestCanCreateAgainstLimits(t *testing.T) {
	c := DefaultCatalog()
	pro, err := c.Get("pro")
	require.NoError(t, err)
	a := Access{Plan: pro}

	for count := int64(0); count <= 12; count++ {
		ok, err := a.CanCreate(entitlement.ResourceTeams, count)
		require.NoError(t, err)
		assert.Equal(t, count < 10, ok, "count=%d", count)
	}

	ok, err := a.CanCreate(entitlement.ResourceMatches, 1_000_000)
	require.NoError(t, err)
	assert.True(t, ok)

	trial := Access{Plan: c.Free(), Trial: true}
	ok, err = trial.CanCreate(entitlement.ResourceTeams, 50)
	require.NoError(t, err)
	assert.True(t, ok)

	limit, err := trial.Limit(entitlement.ResourceTeams)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Unlimited, limit)

	_, err = a.CanCreate("stadiums", 0)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestHasFeature(t *testing.T) {
	c := DefaultCatalog()

	free := Access{Plan: c.Free()}
	ok, err := free.HasFeature(entitlement.FeatureAdvancedAnalytics)
	require.NoError(t, err)
	assert.False(t, ok)

	trial := Access{Plan: c.Free(), Trial: true}
	ok, err = trial.HasFeature(entitlement.FeaturePrioritySupport)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = trial.HasFeature("teleport")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
