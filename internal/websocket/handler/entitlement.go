// internal/websocket/handler/entitlement.go
package handler

import (
	"context"
	"fmt"

	"squadhub-service/internal/domain/entitlement"
	"squadhub-service/internal/domain/usage"
	wstypes "squadhub-service/internal/domain/websocket"
	ws "squadhub-service/internal/websocket"
)

// SummaryReader builds the entitlement summary for a user.
type SummaryReader interface {
	Summary(ctx context.Context, userID string) (*entitlement.Summary, error)
}

// StatsReader reads a user's usage counters.
type StatsReader interface {
	GetStats(ctx context.Context, userID string) (usage.Stats, error)
}

// EntitlementHandler lets a connected client pull its current state instead
// of waiting for the next change event.
type EntitlementHandler struct {
	summaries SummaryReader
	stats     StatsReader
}

func NewEntitlementHandler(summaries SummaryReader, stats StatsReader) *EntitlementHandler {
	return &EntitlementHandler{
		summaries: summaries,
		stats:     stats,
	}
}

func (h *EntitlementHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeEntitlementGet,
		wstypes.EventTypeUsageGet,
	}
}

func (h *EntitlementHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeEntitlementGet:
		summary, err := h.summaries.Summary(ctx, client.UserID())
		if err != nil {
			return fmt.Errorf("failed to load entitlement: %w", err)
		}
		client.SendMessage(wstypes.NewMessage(wstypes.EventTypeEntitlementGet, summary))
		return nil

	case wstypes.EventTypeUsageGet:
		stats, err := h.stats.GetStats(ctx, client.UserID())
		if err != nil {
			return fmt.Errorf("failed to load usage: %w", err)
		}
		client.SendMessage(wstypes.NewMessage(wstypes.EventTypeUsageGet, ws.UsagePayload(stats)))
		return nil

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}
