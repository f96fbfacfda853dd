// internal/app/services.go
package app

import (
	"squadhub-service/internal/pkg/keylock"
	"squadhub-service/internal/pkg/kv"
	"squadhub-service/internal/pkg/paygate"
	"squadhub-service/internal/service/billing"
	entsvc "squadhub-service/internal/service/entitlement"
	usagesvc "squadhub-service/internal/service/usage"
	"squadhub-service/internal/websocket"
	wsHandlers "squadhub-service/internal/websocket/handler"

	"go.uber.org/zap"
)

// Services is the core wired over one KV store. All three services share a
// single key locker so their per-user critical sections compose.
type Services struct {
	Catalog      *entsvc.Catalog
	Entitlements *entsvc.Store
	Meter        *usagesvc.Meter
	Billing      *billing.Controller
	Hub          *websocket.Hub
}

func NewServices(
	store kv.Store,
	catalog *entsvc.Catalog,
	gateway paygate.Gateway,
	confirmer paygate.Confirmer,
	hub *websocket.Hub,
	logger *zap.Logger,
	opts ...entsvc.Option,
) *Services {
	locks := keylock.New()

	opts = append([]entsvc.Option{entsvc.WithNotifier(hub)}, opts...)
	entitlements := entsvc.NewStore(store, catalog, locks, logger, opts...)

	meter := usagesvc.NewMeter(store, entitlements, locks, logger)
	meter.SetNotifier(hub)

	controller := billing.NewController(store, entitlements, meter, locks, gateway, confirmer, logger)

	hub.RegisterHandler(wsHandlers.NewEntitlementHandler(controller, meter))

	return &Services{
		Catalog:      catalog,
		Entitlements: entitlements,
		Meter:        meter,
		Billing:      controller,
		Hub:          hub,
	}
}
