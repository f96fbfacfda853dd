// internal/websocket/events.go
package websocket

import (
	"time"

	"squadhub-service/internal/domain/entitlement"
	wstypes "squadhub-service/internal/domain/websocket"
	"squadhub-service/internal/domain/usage"
)

// EntitlementChanged pushes the committed record to the user's connections.
func (h *Hub) EntitlementChanged(userID string, rec entitlement.Record) {
	h.publish(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelEntitlements,
		Message: wstypes.NewMessage(wstypes.EventTypeEntitlementUpdated, EntitlementPayload(rec)),
	})
}

// UsageChanged pushes the committed counters to the user's connections.
func (h *Hub) UsageChanged(userID string, stats usage.Stats) {
	h.publish(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelUsage,
		Message: wstypes.NewMessage(wstypes.EventTypeUsageUpdated, UsagePayload(stats)),
	})
}

func EntitlementPayload(rec entitlement.Record) wstypes.EntitlementData {
	data := wstypes.EntitlementData{
		UserID: rec.UserID,
		PlanID: rec.PlanID,
		Status: string(rec.Status()),
	}
	switch s := rec.State.(type) {
	case entitlement.Trial:
		data.TrialEnd = timePtr(s.End)
	case entitlement.Active:
		data.CurrentPeriodEnd = timePtr(s.PeriodEnd)
	case entitlement.Cancelled:
		data.CurrentPeriodEnd = timePtr(s.PeriodEnd)
		data.CancelAtPeriodEnd = s.CancelAtPeriodEnd
	}
	return data
}

func UsagePayload(stats usage.Stats) wstypes.UsageData {
	features := make(map[string]int64, len(stats.FeatureUsage))
	for k, v := range stats.FeatureUsage {
		features[k] = v
	}
	return wstypes.UsageData{
		UserID:        stats.UserID,
		TeamsCreated:  stats.TeamsCreated,
		PlayersAdded:  stats.PlayersAdded,
		MatchesPlayed: stats.MatchesPlayed,
		FeatureUsage:  features,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
