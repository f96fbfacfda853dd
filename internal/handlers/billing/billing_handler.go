// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"

	"squadhub-service/internal/domain/payment"
	"squadhub-service/internal/middleware"
	"squadhub-service/internal/pkg/response"
	service "squadhub-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	controller *service.Controller
}

func NewBillingHandler(controller *service.Controller) *BillingHandler {
	return &BillingHandler{controller: controller}
}

// Checkout creates a pending payment and returns the provider redirect.
func (h *BillingHandler) Checkout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req payment.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.controller.BeginCheckout(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		response.FromError(c, "failed to start checkout", err)
		return
	}

	response.Success(c, http.StatusCreated, "checkout started", result)
}

// Verify confirms a payment from a JSON body.
func (h *BillingHandler) Verify(c *gin.Context) {
	var req payment.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	h.verify(c, req)
}

// Return handles the provider's redirect back, which carries paymentId in
// the query string.
func (h *BillingHandler) Return(c *gin.Context) {
	var req payment.VerifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, "invalid return parameters", err)
		return
	}
	h.verify(c, req)
}

func (h *BillingHandler) verify(c *gin.Context, req payment.VerifyRequest) {
	verified, err := h.controller.VerifyPayment(c.Request.Context(), req.PaymentID, req.PayerID)
	if err != nil {
		response.FromError(c, "failed to verify payment", err)
		return
	}

	message := "payment verified"
	if !verified {
		message = "payment not verified"
	}
	response.Success(c, http.StatusOK, message, payment.VerifyResponse{
		PaymentID: req.PaymentID,
		Verified:  verified,
	})
}

// Cancel stops renewal of the caller's paid plan.
func (h *BillingHandler) Cancel(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	cancelled, err := h.controller.Cancel(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to cancel subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription cancelled", payment.CancelResponse{Cancelled: cancelled})
}

// ListPayments returns the caller's completed payments.
func (h *BillingHandler) ListPayments(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	payments, err := h.controller.Payments(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to list payments", err)
		return
	}

	response.Success(c, http.StatusOK, "payments retrieved", payments)
}

// GetCheckoutAttempts returns how many checkouts the caller has started.
func (h *BillingHandler) GetCheckoutAttempts(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	attempts, err := h.controller.CheckoutAttempts(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to load checkout attempts", err)
		return
	}

	response.Success(c, http.StatusOK, "checkout attempts retrieved", gin.H{
		"attempts": attempts,
	})
}
