package billing

import (
	"context"
	"math"
	"time"

	"squadhub-service/internal/domain/entitlement"
)

// Summary aggregates plan, trial state and every gating decision for userID.
// Apart from trial reconciliation it only reads.
func (c *Controller) Summary(ctx context.Context, userID string) (*entitlement.Summary, error) {
	rec, access, err := c.meter.Access(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := c.meter.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := c.entitlements.Now()

	out := &entitlement.Summary{
		UserID:   userID,
		Plan:     access.Plan,
		Status:   rec.Status(),
		InTrial:  access.Trial,
		Features: make(map[entitlement.Feature]bool, len(entitlement.AllFeatures)),
	}

	if trial, ok := rec.State.(entitlement.Trial); ok {
		end := trial.End
		out.TrialEnd = &end
		out.TrialDaysRemaining = daysRemaining(now, trial.End)
	}
	if _, end, ok := rec.Period(); ok {
		out.CurrentPeriodEnd = &end
	}
	if cancelled, ok := rec.State.(entitlement.Cancelled); ok {
		out.CancelAtPeriodEnd = cancelled.CancelAtPeriodEnd
	}

	for _, f := range entitlement.AllFeatures {
		has, err := access.HasFeature(f)
		if err != nil {
			return nil, err
		}
		out.Features[f] = has
	}

	for _, r := range entitlement.AllResources {
		used, err := stats.Count(r)
		if err != nil {
			return nil, err
		}
		limit, err := access.Limit(r)
		if err != nil {
			return nil, err
		}
		canCreate, err := access.CanCreate(r, used)
		if err != nil {
			return nil, err
		}
		out.Resources = append(out.Resources, entitlement.ResourceUsage{
			Resource:  r,
			Used:      used,
			Limit:     limit,
			Unlimited: limit == entitlement.Unlimited,
			CanCreate: canCreate,
		})
	}

	return out, nil
}

// daysRemaining rounds the time left up to whole days.
func daysRemaining(now, end time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
