// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Entitlement events (server -> client)
	EventTypeEntitlementUpdated EventType = "entitlement:updated"
	EventTypeUsageUpdated       EventType = "usage:updated"

	// Entitlement requests (client -> server)
	EventTypeEntitlementGet EventType = "entitlement:get"
	EventTypeUsageGet       EventType = "usage:get"

	// System events
	EventTypeSystemAlert EventType = "system:alert"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// ChannelType names a stream clients can subscribe to.
type ChannelType string

const (
	ChannelEntitlements ChannelType = "entitlements"
	ChannelUsage        ChannelType = "usage"
	ChannelSystem       ChannelType = "system"
)

// DefaultChannels are subscribed for every new connection.
var DefaultChannels = []ChannelType{ChannelEntitlements, ChannelUsage, ChannelSystem}

// SubscribeRequest sent by client to subscribe to specific channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// UnsubscribeRequest sent by client to unsubscribe from channels
type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EntitlementData is pushed after a committed record change.
type EntitlementData struct {
	UserID            string     `json:"user_id"`
	PlanID            string     `json:"plan_id"`
	Status            string     `json:"status"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// UsageData is pushed after committed usage changes.
type UsageData struct {
	UserID        string           `json:"user_id"`
	TeamsCreated  int64            `json:"teams_created"`
	PlayersAdded  int64            `json:"players_added"`
	MatchesPlayed int64            `json:"matches_played"`
	FeatureUsage  map[string]int64 `json:"feature_usage,omitempty"`
}

// SystemAlertData for system-wide alerts
type SystemAlertData struct {
	Severity  string `json:"severity"` // info, warning, critical
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"action_url,omitempty"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
