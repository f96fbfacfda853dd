package payment

type CheckoutRequest struct {
	PlanID string `json:"plan_id" binding:"required,max=50"`
}

type CheckoutResponse struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

type VerifyRequest struct {
	PaymentID string `json:"payment_id" form:"paymentId" binding:"required"`
	PayerID   string `json:"payer_id" form:"PayerID"`
}

type VerifyResponse struct {
	PaymentID string `json:"payment_id"`
	Verified  bool   `json:"verified"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}
