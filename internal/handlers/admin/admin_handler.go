// internal/handlers/admin/admin_handler.go
package admin

import (
	"net/http"

	"squadhub-service/internal/domain/entitlement"
	"squadhub-service/internal/middleware"
	"squadhub-service/internal/pkg/response"
	"squadhub-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	billing *billing.Controller
	logger  *zap.Logger
}

func NewAdminHandler(billing *billing.Controller, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		billing: billing,
		logger:  logger,
	}
}

// ChangePlan moves a user onto a plan without payment.
func (h *AdminHandler) ChangePlan(c *gin.Context) {
	adminID := middleware.MustGetUserID(c)
	userID := c.Param("user_id")

	var req entitlement.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if _, err := h.billing.Upgrade(c.Request.Context(), userID, req.PlanID); err != nil {
		response.FromError(c, "failed to change plan", err)
		return
	}

	h.logger.Info("plan changed by admin",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.String("plan_id", req.PlanID),
	)

	summary, err := h.billing.Summary(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "plan changed but summary unavailable", err)
		return
	}

	response.Success(c, http.StatusOK, "plan changed", summary)
}

// GetUserSummary returns any user's entitlement summary.
func (h *AdminHandler) GetUserSummary(c *gin.Context) {
	summary, err := h.billing.Summary(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.FromError(c, "failed to build entitlement summary", err)
		return
	}

	response.Success(c, http.StatusOK, "entitlement summary retrieved", summary)
}
