// internal/handlers/entitlement/entitlement_handler.go
package entitlement

import (
	"net/http"

	"squadhub-service/internal/middleware"
	"squadhub-service/internal/pkg/response"
	"squadhub-service/internal/service/billing"
	entsvc "squadhub-service/internal/service/entitlement"
	usagesvc "squadhub-service/internal/service/usage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EntitlementHandler struct {
	store   *entsvc.Store
	meter   *usagesvc.Meter
	billing *billing.Controller
	logger  *zap.Logger
}

func NewEntitlementHandler(store *entsvc.Store, meter *usagesvc.Meter, billing *billing.Controller, logger *zap.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		store:   store,
		meter:   meter,
		billing: billing,
		logger:  logger,
	}
}

// Initialize starts the caller's trial and usage counters. Calling it again
// returns the existing record.
func (h *EntitlementHandler) Initialize(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	ctx := c.Request.Context()

	rec, err := h.store.Initialize(ctx, userID)
	if err != nil {
		response.FromError(c, "failed to initialize entitlement", err)
		return
	}
	if _, err := h.meter.Initialize(ctx, userID); err != nil {
		response.FromError(c, "failed to initialize usage", err)
		return
	}

	response.Success(c, http.StatusCreated, "entitlement initialized", rec)
}

// GetMine returns the caller's record after applying any due trial expiry.
func (h *EntitlementHandler) GetMine(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	rec, err := h.store.Reconcile(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "entitlement not found", err)
		return
	}

	response.Success(c, http.StatusOK, "entitlement retrieved", rec)
}

// GetSummary returns plan, trial and gating state for the caller.
func (h *EntitlementHandler) GetSummary(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	summary, err := h.billing.Summary(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to build entitlement summary", err)
		return
	}

	response.Success(c, http.StatusOK, "entitlement summary retrieved", summary)
}
