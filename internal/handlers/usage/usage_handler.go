// internal/handlers/usage/usage_handler.go
package usage

import (
	"net/http"

	"squadhub-service/internal/domain/entitlement"
	"squadhub-service/internal/domain/usage"
	"squadhub-service/internal/middleware"
	"squadhub-service/internal/pkg/response"
	usagesvc "squadhub-service/internal/service/usage"

	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	meter *usagesvc.Meter
}

func NewUsageHandler(meter *usagesvc.Meter) *UsageHandler {
	return &UsageHandler{meter: meter}
}

// GetStats returns the caller's counters.
func (h *UsageHandler) GetStats(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	stats, err := h.meter.GetStats(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to load usage", err)
		return
	}

	response.Success(c, http.StatusOK, "usage retrieved", stats)
}

// RecordUsage adds a non-negative delta to the caller's counters.
func (h *UsageHandler) RecordUsage(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req usage.Delta
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	stats, err := h.meter.RecordUsage(c.Request.Context(), userID, req)
	if err != nil {
		response.FromError(c, "failed to record usage", err)
		return
	}

	response.Success(c, http.StatusOK, "usage recorded", stats)
}

// RecordFeatureUse counts one use of the feature in the path.
func (h *UsageHandler) RecordFeatureUse(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	feature, err := entitlement.ParseFeature(c.Param("feature"))
	if err != nil {
		response.ValidationError(c, "invalid feature", err)
		return
	}

	stats, err := h.meter.RecordFeatureUse(c.Request.Context(), userID, feature)
	if err != nil {
		response.FromError(c, "failed to record feature use", err)
		return
	}

	response.Success(c, http.StatusOK, "feature use recorded", stats)
}

// CanAccessFeature reports whether the caller's plan includes the feature.
func (h *UsageHandler) CanAccessFeature(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	feature, err := entitlement.ParseFeature(c.Param("feature"))
	if err != nil {
		response.ValidationError(c, "invalid feature", err)
		return
	}

	allowed, err := h.meter.CanAccessFeature(c.Request.Context(), userID, feature)
	if err != nil {
		response.FromError(c, "failed to check feature access", err)
		return
	}

	response.Success(c, http.StatusOK, "feature access checked", entitlement.AccessResponse{
		Name:    string(feature),
		Allowed: allowed,
	})
}

// CanCreateResource reports whether one more resource fits the caller's plan.
func (h *UsageHandler) CanCreateResource(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	kind, err := entitlement.ParseResource(c.Param("kind"))
	if err != nil {
		response.ValidationError(c, "invalid resource", err)
		return
	}

	allowed, err := h.meter.CanCreateResource(c.Request.Context(), userID, kind)
	if err != nil {
		response.FromError(c, "failed to check resource limit", err)
		return
	}

	response.Success(c, http.StatusOK, "resource limit checked", entitlement.AccessResponse{
		Name:    string(kind),
		Allowed: allowed,
	})
}
