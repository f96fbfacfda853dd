package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"squadhub-service/internal/domain/entitlement"
	wstypes "squadhub-service/internal/domain/websocket"
	"squadhub-service/internal/domain/usage"
	"squadhub-service/internal/pkg/jwt"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(token string) (*jwt.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad signature")
	}
	return &jwt.Claims{
		Roles:            []string{"coach"},
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u1", ID: "jti-1"},
	}, nil
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(stubVerifier{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func nextMessage(t *testing.T, c *Client) wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg wstypes.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
	return wstypes.WSMessage{}
}

func TestAuthenticateClient(t *testing.T) {
	hub := NewHub(stubVerifier{}, zap.NewNop())

	auth, err := hub.AuthenticateClient(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", auth.UserID)
	assert.Equal(t, "jti-1", auth.TokenID)
	assert.Equal(t, []string{"coach"}, auth.Roles)

	_, err = hub.AuthenticateClient(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = hub.AuthenticateClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEntitlementChangedReachesOnlyThatUser(t *testing.T) {
	hub := startHub(t)

	mine := NewClient(hub, nil, &ClientAuth{UserID: "u1"})
	other := NewClient(hub, nil, &ClientAuth{UserID: "u2"})
	hub.Register <- mine
	hub.Register <- other

	assert.Equal(t, wstypes.EventTypeConnected, nextMessage(t, mine).Type)
	assert.Equal(t, wstypes.EventTypeConnected, nextMessage(t, other).Type)

	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	hub.EntitlementChanged("u1", entitlement.Record{
		UserID: "u1",
		PlanID: entitlement.PlanPro,
		State:  entitlement.Cancelled{PeriodStart: end.AddDate(0, 0, -30), PeriodEnd: end, CancelAtPeriodEnd: true},
	})

	msg := nextMessage(t, mine)
	assert.Equal(t, wstypes.EventTypeEntitlementUpdated, msg.Type)

	var data wstypes.EntitlementData
	require.NoError(t, DecodeData(msg.Data, &data))
	assert.Equal(t, "cancelled", data.Status)
	assert.True(t, data.CancelAtPeriodEnd)
	require.NotNil(t, data.CurrentPeriodEnd)
	assert.True(t, end.Equal(*data.CurrentPeriodEnd))

	assert.Empty(t, other.send)
	assert.Equal(t, 2, hub.TotalClients())
}

func TestUsageChangedRespectsSubscriptions(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil, &ClientAuth{UserID: "u1"})
	client.Unsubscribe(wstypes.ChannelUsage)
	hub.Register <- client
	nextMessage(t, client)

	stats := usage.NewStats("u1")
	stats.TeamsCreated = 1
	hub.UsageChanged("u1", stats)
	hub.EntitlementChanged("u1", entitlement.Record{UserID: "u1", PlanID: entitlement.PlanFree, State: entitlement.Free{}})

	// Only the entitlement event is delivered.
	assert.Equal(t, wstypes.EventTypeEntitlementUpdated, nextMessage(t, client).Type)
	assert.Empty(t, client.send)
}

func TestDisconnectUser(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil, &ClientAuth{UserID: "u1"})
	hub.Register <- client
	nextMessage(t, client)
	require.True(t, hub.IsUserConnected("u1"))

	hub.DisconnectUser("u1", "plan revoked")
	assert.False(t, hub.IsUserConnected("u1"))
	assert.Error(t, client.ctx.Err())

	// Closing twice is harmless.
	client.Close()
}

func TestClientSubscribeRefusesUnknownChannel(t *testing.T) {
	client := NewClient(NewHub(stubVerifier{}, zap.NewNop()), nil, &ClientAuth{UserID: "u1"})

	assert.False(t, client.Subscribe("audit"))
	assert.True(t, client.Subscribe(wstypes.ChannelSystem))
	assert.Equal(t, []wstypes.ChannelType{wstypes.ChannelEntitlements, wstypes.ChannelSystem, wstypes.ChannelUsage}, client.Channels())
}

type noopHandler struct{ events []wstypes.EventType }

func (h noopHandler) HandleMessage(context.Context, *Client, *wstypes.WSMessage) error { return nil }
func (h noopHandler) SupportedEvents() []wstypes.EventType                            { return h.events }

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	r.Register(noopHandler{events: []wstypes.EventType{wstypes.EventTypeUsageGet, wstypes.EventTypeEntitlementGet}})

	_, ok := r.GetHandler(wstypes.EventTypeUsageGet)
	assert.True(t, ok)
	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeEntitlementGet, wstypes.EventTypeUsageGet}, r.Events())

	assert.Panics(t, func() {
		r.Register(noopHandler{events: []wstypes.EventType{wstypes.EventTypeUsageGet}})
	})
	assert.Panics(t, func() {
		r.Register(noopHandler{events: []wstypes.EventType{wstypes.EventTypePing}})
	})
}
