// internal/service/billing/controller.go
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"squadhub-service/internal/domain/entitlement"
	"squadhub-service/internal/domain/payment"
	xerrors "squadhub-service/internal/pkg/errors"
	"squadhub-service/internal/pkg/keylock"
	"squadhub-service/internal/pkg/kv"
	"squadhub-service/internal/pkg/metrics"
	"squadhub-service/internal/pkg/paygate"
	entsvc "squadhub-service/internal/service/entitlement"
	usagesvc "squadhub-service/internal/service/usage"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// paidMarker records that a user paid for a plan. Its presence blocks a second
// checkout for the same pair.
type paidMarker struct {
	PaymentID string    `json:"payment_id"`
	PaidAt    time.Time `json:"paid_at"`
}

// Controller drives checkout, verification, cancellation and plan changes.
type Controller struct {
	kv           kv.Store
	entitlements *entsvc.Store
	meter        *usagesvc.Meter
	locks        *keylock.Locker
	gateway      paygate.Gateway
	confirmer    paygate.Confirmer
	metrics      *metrics.BillingMetrics
	logger       *zap.Logger
	newID        func() string
}

func NewController(
	store kv.Store,
	entitlements *entsvc.Store,
	meter *usagesvc.Meter,
	locks *keylock.Locker,
	gateway paygate.Gateway,
	confirmer paygate.Confirmer,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		kv:           store,
		entitlements: entitlements,
		meter:        meter,
		locks:        locks,
		gateway:      gateway,
		confirmer:    confirmer,
		metrics:      metrics.GetBillingMetrics(),
		logger:       logger,
		newID:        func() string { return ulid.Make().String() },
	}
}

// BeginCheckout creates a pending payment for planID and returns where to send
// the payer.
func (c *Controller) BeginCheckout(ctx context.Context, userID, planID string) (*payment.CheckoutResponse, error) {
	plan, err := c.entitlements.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.IsFree() {
		return nil, fmt.Errorf("%w: plan %q does not require payment", xerrors.ErrInvalidInput, planID)
	}

	paid, err := kv.Exists(ctx, c.kv, kv.PaidKey(userID, planID))
	if err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}
	if paid {
		return nil, fmt.Errorf("%w: %q", xerrors.ErrAlreadyEntitled, planID)
	}

	pending := payment.Pending{
		PaymentID:       c.newID(),
		UserID:          userID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Amount:          plan.Price,
		Currency:        plan.Currency,
		BillingInterval: plan.BillingInterval,
		CreatedAt:       c.entitlements.Now(),
	}

	redirect, err := c.gateway.RedirectURL(pending)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment redirect: %w", err)
	}
	if err := kv.SetJSON(ctx, c.kv, kv.PendingKey(pending.PaymentID), pending); err != nil {
		return nil, fmt.Errorf("failed to store pending payment: %w", err)
	}

	attempts, err := c.countAttempt(ctx, userID)
	if err != nil {
		c.logger.Warn("failed to count checkout attempt", zap.String("user_id", userID), zap.Error(err))
	}
	c.metrics.RecordCheckoutAttempt(plan.ID)

	c.logger.Info("checkout started",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.String("payment_id", pending.PaymentID),
		zap.Int64("attempts", attempts),
	)

	return &payment.CheckoutResponse{PaymentID: pending.PaymentID, RedirectURL: redirect}, nil
}

func (c *Controller) countAttempt(ctx context.Context, userID string) (int64, error) {
	key := kv.CheckoutAttemptsKey(userID)
	unlock := c.locks.Lock(key)
	defer unlock()

	var n int64
	if _, err := kv.GetJSON(ctx, c.kv, key, &n); err != nil {
		return 0, err
	}
	n++
	if err := kv.SetJSON(ctx, c.kv, key, n); err != nil {
		return 0, err
	}
	return n, nil
}

// CheckoutAttempts returns how many checkouts userID has started.
func (c *Controller) CheckoutAttempts(ctx context.Context, userID string) (int64, error) {
	var n int64
	if _, err := kv.GetJSON(ctx, c.kv, kv.CheckoutAttemptsKey(userID), &n); err != nil {
		return 0, fmt.Errorf("failed to load checkout attempts: %w", err)
	}
	return n, nil
}

// VerifyPayment confirms paymentID with the provider and activates the plan.
// It returns false without error when there is nothing to verify or the
// provider has not confirmed the payment, so callers can retry. Storage
// failures are returned and leave the pending payment in place.
func (c *Controller) VerifyPayment(ctx context.Context, paymentID, payerID string) (bool, error) {
	pending, found, err := c.loadPending(ctx, paymentID)
	if err != nil {
		c.metrics.RecordVerification("error")
		return false, err
	}
	if !found {
		c.metrics.RecordVerification("not_pending")
		return false, nil
	}

	confirmed, err := c.confirmer.Confirm(ctx, pending, payerID)
	if err != nil {
		c.metrics.RecordVerification("provider_error")
		c.logger.Warn("payment provider confirmation failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return false, nil
	}
	if !confirmed {
		c.metrics.RecordVerification("declined")
		return false, nil
	}

	unlock := c.entitlements.Lock(pending.UserID)
	defer unlock()

	// A concurrent verification of the same payment may have committed first.
	pending, found, err = c.loadPending(ctx, paymentID)
	if err != nil {
		c.metrics.RecordVerification("error")
		return false, err
	}
	if !found {
		c.metrics.RecordVerification("not_pending")
		return false, nil
	}

	plan, err := c.entitlements.GetPlan(pending.PlanID)
	if err != nil {
		return false, err
	}
	now := c.entitlements.Now()

	if err := c.appendPayment(ctx, pending.Complete(payerID, now)); err != nil {
		c.metrics.RecordVerification("error")
		return false, err
	}
	if _, err := c.commitPlan(ctx, pending.UserID, plan, now); err != nil {
		c.metrics.RecordVerification("error")
		return false, err
	}
	// Only a committed plan gets a paid marker.
	marker := paidMarker{PaymentID: pending.PaymentID, PaidAt: now}
	if err := kv.SetJSON(ctx, c.kv, kv.PaidKey(pending.UserID, pending.PlanID), marker); err != nil {
		c.metrics.RecordVerification("error")
		return false, fmt.Errorf("failed to mark plan as paid: %w", err)
	}

	if err := kv.Delete(ctx, c.kv, kv.PendingKey(paymentID)); err != nil {
		// The plan is active; a repeated verification only re-commits it.
		c.logger.Error("failed to clear pending payment",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}

	c.metrics.RecordVerification("verified")
	c.logger.Info("payment verified",
		zap.String("user_id", pending.UserID),
		zap.String("plan_id", pending.PlanID),
		zap.String("payment_id", paymentID),
		zap.Float64("amount", pending.Amount),
		zap.String("currency", pending.Currency),
	)
	return true, nil
}

func (c *Controller) loadPending(ctx context.Context, paymentID string) (payment.Pending, bool, error) {
	var p payment.Pending
	if paymentID == "" {
		return p, false, nil
	}
	found, err := kv.GetJSON(ctx, c.kv, kv.PendingKey(paymentID), &p)
	if err != nil {
		return payment.Pending{}, false, fmt.Errorf("failed to load pending payment: %w", err)
	}
	return p, found, nil
}

// appendPayment adds rec to the user's payment log unless it is already there.
func (c *Controller) appendPayment(ctx context.Context, rec payment.Record) error {
	key := kv.PaymentsKey(rec.UserID)

	var log []payment.Record
	if _, err := kv.GetJSON(ctx, c.kv, key, &log); err != nil {
		return fmt.Errorf("failed to load payment history: %w", err)
	}
	for _, existing := range log {
		if existing.PaymentID == rec.PaymentID {
			return nil
		}
	}
	log = append(log, rec)
	if err := kv.SetJSON(ctx, c.kv, key, log); err != nil {
		return fmt.Errorf("failed to append payment record: %w", err)
	}
	return nil
}

// commitPlan moves userID onto plan. Paid plans start a fresh period and free
// plans become Free. The caller must hold the user's lock.
func (c *Controller) commitPlan(ctx context.Context, userID string, plan entitlement.Plan, now time.Time) (entitlement.Record, error) {
	rec, err := c.entitlements.Get(ctx, userID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return entitlement.Record{}, err
	}

	from := rec.Status()
	rec.UserID = userID
	rec.PlanID = plan.ID
	if plan.IsFree() {
		rec.State = entitlement.Free{}
	} else {
		rec.State = entitlement.Active{
			PeriodStart: now,
			PeriodEnd:   now.Add(plan.BillingInterval.Duration()),
		}
	}

	saved, err := c.entitlements.Save(ctx, rec)
	if err != nil {
		return entitlement.Record{}, err
	}

	c.metrics.RecordTransition(string(saved.Status()))
	c.logger.Info("plan changed",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.String("from", string(from)),
		zap.String("to", string(saved.Status())),
	)
	return saved, nil
}

// Cancel stops renewal of the user's paid plan. Access continues until the
// current period ends.
func (c *Controller) Cancel(ctx context.Context, userID string) (bool, error) {
	unlock := c.entitlements.Lock(userID)
	defer unlock()

	rec, err := c.entitlements.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return false, fmt.Errorf("%w: user %q", xerrors.ErrNoSubscription, userID)
		}
		return false, err
	}

	switch st := rec.State.(type) {
	case entitlement.Active:
		rec.State = entitlement.Cancelled{
			PeriodStart:       st.PeriodStart,
			PeriodEnd:         st.PeriodEnd,
			CancelAtPeriodEnd: true,
		}
		if _, err := c.entitlements.Save(ctx, rec); err != nil {
			return false, err
		}
		c.metrics.RecordTransition(string(entitlement.StatusCancelled))
		c.logger.Info("subscription cancelled",
			zap.String("user_id", userID),
			zap.String("plan_id", rec.PlanID),
			zap.Time("access_until", st.PeriodEnd),
		)
	case entitlement.Cancelled:
	default:
		return false, fmt.Errorf("%w: no paid plan to cancel", xerrors.ErrNoSubscription)
	}

	if err := kv.Delete(ctx, c.kv, kv.PaidKey(userID, rec.PlanID)); err != nil {
		// The cancellation is stored; only a new checkout of this plan stays blocked.
		c.logger.Error("failed to release paid plan",
			zap.String("user_id", userID),
			zap.String("plan_id", rec.PlanID),
			zap.Error(err),
		)
	}
	return true, nil
}

// Upgrade moves userID onto planID without a payment. It is the admin path and
// writes no payment record.
func (c *Controller) Upgrade(ctx context.Context, userID, planID string) (bool, error) {
	plan, err := c.entitlements.GetPlan(planID)
	if err != nil {
		return false, err
	}

	unlock := c.entitlements.Lock(userID)
	defer unlock()

	if _, err := c.entitlements.Get(ctx, userID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return false, fmt.Errorf("%w: user %q", xerrors.ErrNoSubscription, userID)
		}
		return false, err
	}
	if _, err := c.commitPlan(ctx, userID, plan, c.entitlements.Now()); err != nil {
		return false, err
	}
	return true, nil
}

// Payments returns the user's payment history, oldest first.
func (c *Controller) Payments(ctx context.Context, userID string) ([]payment.Record, error) {
	var log []payment.Record
	if _, err := kv.GetJSON(ctx, c.kv, kv.PaymentsKey(userID), &log); err != nil {
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}
	if log == nil {
		log = []payment.Record{}
	}
	return log, nil
}
