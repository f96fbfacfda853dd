// internal/app/router.go
package app

import (
	"net/http"

	adminHandler "squadhub-service/internal/handlers/admin"
	billingHandler "squadhub-service/internal/handlers/billing"
	entitlementHandler "squadhub-service/internal/handlers/entitlement"
	opsHandler "squadhub-service/internal/handlers/ops"
	planHandler "squadhub-service/internal/handlers/plans"
	usageHandler "squadhub-service/internal/handlers/usage"
	wsHandler "squadhub-service/internal/handlers/websocket"
	"squadhub-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	EntitlementHandler *entitlementHandler.EntitlementHandler
	UsageHandler       *usageHandler.UsageHandler
	BillingHandler     *billingHandler.BillingHandler
	PlanHandler        *planHandler.PlanHandler
	AdminHandler       *adminHandler.AdminHandler
	ReconcileHandler   *opsHandler.ReconcileHandler
	WSHandler          *wsHandler.WebSocketHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ServiceKey         gin.HandlerFunc
}

// NewHandlers builds every HTTP handler over svc.
func NewHandlers(svc *Services, verifier middleware.TokenVerifier, serviceKeyHash string, corsOrigins []string, logger *zap.Logger) *Handlers {
	return &Handlers{
		EntitlementHandler: entitlementHandler.NewEntitlementHandler(svc.Entitlements, svc.Meter, svc.Billing, logger),
		UsageHandler:       usageHandler.NewUsageHandler(svc.Meter),
		BillingHandler:     billingHandler.NewBillingHandler(svc.Billing),
		PlanHandler:        planHandler.NewPlanHandler(svc.Catalog),
		AdminHandler:       adminHandler.NewAdminHandler(svc.Billing, logger),
		ReconcileHandler:   opsHandler.NewReconcileHandler(svc.Entitlements),
		WSHandler:          wsHandler.NewWebSocketHandler(svc.Hub, corsOrigins, logger),
		AuthMiddleware:     middleware.NewAuthMiddleware(verifier),
		ServiceKey:         middleware.ServiceKey(serviceKeyHash),
	}
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Metrics ====================
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Plans (Public) ====================
	plans := api.Group("/plans")
	{
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:id", h.PlanHandler.GetPlan)
	}

	// ==================== Entitlements ====================
	entitlements := api.Group("/entitlements")
	entitlements.Use(h.AuthMiddleware.Auth())
	{
		entitlements.POST("/initialize", h.EntitlementHandler.Initialize)
		entitlements.GET("/me", h.EntitlementHandler.GetMine)
		entitlements.GET("/summary", h.EntitlementHandler.GetSummary)
	}

	// ==================== Usage ====================
	usage := api.Group("/usage")
	usage.Use(h.AuthMiddleware.Auth())
	{
		usage.GET("", h.UsageHandler.GetStats)
		usage.POST("/record", h.UsageHandler.RecordUsage)
		usage.POST("/features/:feature", h.UsageHandler.RecordFeatureUse)
		usage.GET("/features/:feature/access", h.UsageHandler.CanAccessFeature)
		usage.GET("/resources/:kind/access", h.UsageHandler.CanCreateResource)
	}

	// ==================== Billing (Provider Return) ====================
	// The payment provider redirects the browser here without a bearer token.
	api.GET("/billing/return", h.BillingHandler.Return)

	// ==================== Billing ====================
	billing := api.Group("/billing")
	billing.Use(h.AuthMiddleware.Auth())
	{
		billing.POST("/checkout", h.BillingHandler.Checkout)
		billing.GET("/checkout/attempts", h.BillingHandler.GetCheckoutAttempts)
		billing.POST("/verify", h.BillingHandler.Verify)
		billing.POST("/cancel", h.BillingHandler.Cancel)
		billing.GET("/payments", h.BillingHandler.ListPayments)
	}

	// ==================== ADMIN ROUTES ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.PUT("/users/:user_id/plan", h.AdminHandler.ChangePlan)
		admin.GET("/users/:user_id/summary", h.AdminHandler.GetUserSummary)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	// ==================== Internal (Service Key) ====================
	internal := api.Group("/internal")
	internal.Use(h.ServiceKey)
	{
		internal.POST("/users/:user_id/reconcile", h.ReconcileHandler.Reconcile)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
