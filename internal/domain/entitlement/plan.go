package entitlement

import (
	"fmt"
	"time"
)

// Unlimited marks a resource limit with no ceiling.
const Unlimited int64 = -1

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

// Duration is the length of one paid period.
func (b BillingInterval) Duration() time.Duration {
	switch b {
	case IntervalYearly:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

type Feature string

const (
	FeatureAdvancedAnalytics Feature = "advancedAnalytics"
	FeatureTacticalChat      Feature = "tacticalChat"
	FeatureExportFeatures    Feature = "exportFeatures"
	FeaturePrioritySupport   Feature = "prioritySupport"
)

// AllFeatures lists features in display order.
var AllFeatures = []Feature{
	FeatureAdvancedAnalytics,
	FeatureTacticalChat,
	FeatureExportFeatures,
	FeaturePrioritySupport,
}

func ParseFeature(s string) (Feature, error) {
	for _, f := range AllFeatures {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

type Resource string

const (
	ResourceTeams   Resource = "teams"
	ResourcePlayers Resource = "players"
	ResourceMatches Resource = "matches"
)

var AllResources = []Resource{ResourceTeams, ResourcePlayers, ResourceMatches}

func ParseResource(s string) (Resource, error) {
	for _, r := range AllResources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

type Limits struct {
	MaxTeams   int64 `json:"max_teams" validate:"gte=-1"`
	MaxPlayers int64 `json:"max_players" validate:"gte=-1"`
	MaxMatches int64 `json:"max_matches" validate:"gte=-1"`
}

type Features struct {
	AdvancedAnalytics bool `json:"advanced_analytics"`
	TacticalChat      bool `json:"tactical_chat"`
	ExportFeatures    bool `json:"export_features"`
	PrioritySupport   bool `json:"priority_support"`
}

type Plan struct {
	ID              string          `json:"id" validate:"required,max=50"`
	Name            string          `json:"name" validate:"required,max=255"`
	Price           float64         `json:"price" validate:"gte=0"`
	Currency        string          `json:"currency" validate:"required,len=3,uppercase"`
	BillingInterval BillingInterval `json:"billing_interval" validate:"required,oneof=monthly yearly"`
	Limits          Limits          `json:"limits"`
	Features        Features        `json:"features"`
}

// IsFree reports whether the plan can be held without payment.
func (p Plan) IsFree() bool {
	return p.Price == 0
}

func (p Plan) Limit(r Resource) (int64, error) {
	switch r {
	case ResourceTeams:
		return p.Limits.MaxTeams, nil
	case ResourcePlayers:
		return p.Limits.MaxPlayers, nil
	case ResourceMatches:
		return p.Limits.MaxMatches, nil
	}
	return 0, fmt.Errorf("unknown resource %q", r)
}

func (p Plan) HasFeature(f Feature) (bool, error) {
	switch f {
	case FeatureAdvancedAnalytics:
		return p.Features.AdvancedAnalytics, nil
	case FeatureTacticalChat:
		return p.Features.TacticalChat, nil
	case FeatureExportFeatures:
		return p.Features.ExportFeatures, nil
	case FeaturePrioritySupport:
		return p.Features.PrioritySupport, nil
	}
	return false, fmt.Errorf("unknown feature %q", f)
}

// DefaultPlans is the built-in catalog.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:              PlanFree,
			Name:            "Free",
			Price:           0,
			Currency:        "USD",
			BillingInterval: IntervalMonthly,
			Limits:          Limits{MaxTeams: 1, MaxPlayers: 20, MaxMatches: 10},
		},
		{
			ID:              PlanPro,
			Name:            "Pro",
			Price:           9.99,
			Currency:        "USD",
			BillingInterval: IntervalMonthly,
			Limits:          Limits{MaxTeams: 10, MaxPlayers: 200, MaxMatches: Unlimited},
			Features: Features{
				AdvancedAnalytics: true,
				TacticalChat:      true,
				ExportFeatures:    true,
			},
		},
		{
			ID:              PlanEnterprise,
			Name:            "Enterprise",
			Price:           29.99,
			Currency:        "USD",
			BillingInterval: IntervalMonthly,
			Limits:          Limits{MaxTeams: Unlimited, MaxPlayers: Unlimited, MaxMatches: Unlimited},
			Features: Features{
				AdvancedAnalytics: true,
				TacticalChat:      true,
				ExportFeatures:    true,
				PrioritySupport:   true,
			},
		},
	}
}
