package entitlement

import "time"

type ResourceUsage struct {
	Resource  Resource `json:"resource"`
	Used      int64    `json:"used"`
	Limit     int64    `json:"limit"`
	Unlimited bool     `json:"unlimited"`
	CanCreate bool     `json:"can_create"`
}

// Summary is the read model the UI uses to render gating decisions.
type Summary struct {
	UserID             string           `json:"user_id"`
	Plan               Plan             `json:"plan"`
	Status             Status           `json:"status"`
	InTrial            bool             `json:"in_trial"`
	TrialEnd           *time.Time       `json:"trial_end,omitempty"`
	TrialDaysRemaining int              `json:"trial_days_remaining"`
	CurrentPeriodEnd   *time.Time       `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool             `json:"cancel_at_period_end"`
	Features           map[Feature]bool `json:"features"`
	Resources          []ResourceUsage  `json:"resources"`
}

type ChangePlanRequest struct {
	PlanID string `json:"plan_id" binding:"required,max=50"`
}

type AccessResponse struct {
	Name    string `json:"name"`
	Allowed bool   `json:"allowed"`
}
