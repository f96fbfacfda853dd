// internal/handlers/plans/plan_handler.go
package plans

import (
	"net/http"

	"squadhub-service/internal/pkg/response"
	entsvc "squadhub-service/internal/service/entitlement"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	catalog *entsvc.Catalog
}

func NewPlanHandler(catalog *entsvc.Catalog) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

// ListPlans returns the catalog in display order.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	response.Success(c, http.StatusOK, "plans retrieved", h.catalog.All())
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		response.FromError(c, "plan not found", err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", plan)
}
