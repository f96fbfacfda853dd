// internal/handlers/ops/reconcile_handler.go
package ops

import (
	"net/http"

	"squadhub-service/internal/pkg/response"
	entsvc "squadhub-service/internal/service/entitlement"

	"github.com/gin-gonic/gin"
)

// ReconcileHandler serves internal callers (schedulers, support tooling)
// authenticated by service key.
type ReconcileHandler struct {
	store *entsvc.Store
}

func NewReconcileHandler(store *entsvc.Store) *ReconcileHandler {
	return &ReconcileHandler{store: store}
}

// Reconcile applies a due trial expiry for the user in the path.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	rec, err := h.store.Reconcile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.FromError(c, "failed to reconcile entitlement", err)
		return
	}

	response.Success(c, http.StatusOK, "entitlement reconciled", rec)
}
