package entitlement

import (
	"fmt"
	"time"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"
)

// Access is the effective entitlement of a record at a point in time.
type Access struct {
	Plan entitlement.Plan
	// Trial is set during an unexpired trial, which unlocks every feature and limit.
	Trial bool
}

// Resolve computes the effective plan of rec at now. It never writes.
func (c *Catalog) Resolve(rec entitlement.Record, now time.Time) (Access, error) {
	switch st := rec.State.(type) {
	case entitlement.Trial:
		if st.ExpiredAt(now) {
			return Access{Plan: c.Free()}, nil
		}
		p, err := c.Get(rec.PlanID)
		if err != nil {
			return Access{}, err
		}
		return Access{Plan: p, Trial: true}, nil
	case entitlement.Free:
		return Access{Plan: c.Free()}, nil
	case entitlement.Active:
		p, err := c.Get(rec.PlanID)
		if err != nil {
			return Access{}, err
		}
		return Access{Plan: p}, nil
	case entitlement.Cancelled:
		if !now.Before(st.PeriodEnd) {
			return Access{Plan: c.Free()}, nil
		}
		p, err := c.Get(rec.PlanID)
		if err != nil {
			return Access{}, err
		}
		return Access{Plan: p}, nil
	}
	return Access{}, fmt.Errorf("unsupported entitlement state %T", rec.State)
}

func (a Access) HasFeature(f entitlement.Feature) (bool, error) {
	has, err := a.Plan.HasFeature(f)
	if err != nil {
		return false, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	return a.Trial || has, nil
}

// CanCreate reports whether one more r fits next to count existing ones.
func (a Access) CanCreate(r entitlement.Resource, count int64) (bool, error) {
	limit, err := a.Plan.Limit(r)
	if err != nil {
		return false, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	if a.Trial || limit == entitlement.Unlimited {
		return true, nil
	}
	return count < limit, nil
}

// Limit returns the effective limit for r, Unlimited during a trial.
func (a Access) Limit(r entitlement.Resource) (int64, error) {
	limit, err := a.Plan.Limit(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}
	if a.Trial {
		return entitlement.Unlimited, nil
	}
	return limit, nil
}
