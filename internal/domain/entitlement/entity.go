// internal/domain/entitlement/entity.go
package entitlement

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusTrial     Status = "trial"
	StatusFree      Status = "free"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	// StatusExpired is never stored. It describes a trial whose window has passed
	// but has not been reconciled yet.
	StatusExpired Status = "expired"
)

const TrialDuration = 7 * 24 * time.Hour

// State is the lifecycle state of a record. Exactly one of Trial, Free, Active
// or Cancelled.
type State interface {
	Status() Status
	isState()
}

type Trial struct {
	Start time.Time
	End   time.Time
}

type Free struct{}

type Active struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type Cancelled struct {
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
}

func (Trial) Status() Status     { return StatusTrial }
func (Free) Status() Status      { return StatusFree }
func (Active) Status() Status    { return StatusActive }
func (Cancelled) Status() Status { return StatusCancelled }

func (Trial) isState()     {}
func (Free) isState()      {}
func (Active) isState()    {}
func (Cancelled) isState() {}

// NewTrial starts a trial window at start.
func NewTrial(start time.Time) Trial {
	return Trial{Start: start, End: start.Add(TrialDuration)}
}

// ExpiredAt reports whether the trial window has closed at now.
func (t Trial) ExpiredAt(now time.Time) bool {
	return !now.Before(t.End)
}

// Record is the per-user entitlement.
type Record struct {
	UserID    string
	PlanID    string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) Status() Status {
	if r.State == nil {
		return ""
	}
	return r.State.Status()
}

// TrialExpired reports whether the record is a trial that should already be free.
func (r Record) TrialExpired(now time.Time) bool {
	t, ok := r.State.(Trial)
	return ok && t.ExpiredAt(now)
}

// Period returns the paid period of active and cancelled records.
func (r Record) Period() (start, end time.Time, ok bool) {
	switch s := r.State.(type) {
	case Active:
		return s.PeriodStart, s.PeriodEnd, true
	case Cancelled:
		return s.PeriodStart, s.PeriodEnd, true
	}
	return time.Time{}, time.Time{}, false
}

// Validate rejects records whose plan or state fields are inconsistent.
func (r Record) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("entitlement record: user id is required")
	}
	if r.PlanID == "" {
		return fmt.Errorf("entitlement record: plan id is required")
	}
	switch s := r.State.(type) {
	case Trial:
		if !s.End.Equal(s.Start.Add(TrialDuration)) {
			return fmt.Errorf("entitlement record: trial must last %s", TrialDuration)
		}
	case Active:
		if !s.PeriodEnd.After(s.PeriodStart) {
			return fmt.Errorf("entitlement record: period end must follow period start")
		}
	case Cancelled:
		if !s.PeriodEnd.After(s.PeriodStart) {
			return fmt.Errorf("entitlement record: period end must follow period start")
		}
	case Free:
	case nil:
		return fmt.Errorf("entitlement record: state is required")
	default:
		return fmt.Errorf("entitlement record: unsupported state %T", s)
	}
	return nil
}

type recordJSON struct {
	UserID             string     `json:"user_id"`
	PlanID             string     `json:"plan_id"`
	Status             Status     `json:"status"`
	TrialStart         *time.Time `json:"trial_start,omitempty"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := recordJSON{
		UserID:    r.UserID,
		PlanID:    r.PlanID,
		Status:    r.Status(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	switch s := r.State.(type) {
	case Trial:
		out.TrialStart, out.TrialEnd = &s.Start, &s.End
	case Active:
		out.CurrentPeriodStart, out.CurrentPeriodEnd = &s.PeriodStart, &s.PeriodEnd
	case Cancelled:
		out.CurrentPeriodStart, out.CurrentPeriodEnd = &s.PeriodStart, &s.PeriodEnd
		out.CancelAtPeriodEnd = s.CancelAtPeriodEnd
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	hasTrial := in.TrialStart != nil || in.TrialEnd != nil
	hasPeriod := in.CurrentPeriodStart != nil || in.CurrentPeriodEnd != nil

	var state State
	switch in.Status {
	case StatusTrial:
		if in.TrialStart == nil || in.TrialEnd == nil || hasPeriod || in.CancelAtPeriodEnd {
			return fmt.Errorf("entitlement record: trial status needs only trial dates")
		}
		state = Trial{Start: *in.TrialStart, End: *in.TrialEnd}
	case StatusFree:
		if hasTrial || hasPeriod || in.CancelAtPeriodEnd {
			return fmt.Errorf("entitlement record: free status carries no dates")
		}
		state = Free{}
	case StatusActive:
		if in.CurrentPeriodStart == nil || in.CurrentPeriodEnd == nil || hasTrial || in.CancelAtPeriodEnd {
			return fmt.Errorf("entitlement record: active status needs only period dates")
		}
		state = Active{PeriodStart: *in.CurrentPeriodStart, PeriodEnd: *in.CurrentPeriodEnd}
	case StatusCancelled:
		if in.CurrentPeriodStart == nil || in.CurrentPeriodEnd == nil || hasTrial {
			return fmt.Errorf("entitlement record: cancelled status needs only period dates")
		}
		state = Cancelled{
			PeriodStart:       *in.CurrentPeriodStart,
			PeriodEnd:         *in.CurrentPeriodEnd,
			CancelAtPeriodEnd: in.CancelAtPeriodEnd,
		}
	default:
		return fmt.Errorf("entitlement record: unknown status %q", in.Status)
	}

	rec := Record{
		UserID:    in.UserID,
		PlanID:    in.PlanID,
		State:     state,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	*r = rec
	return nil
}
