// Package kv defines the key-value persistence port used by the entitlement core.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	xerrors "squadhub-service/internal/pkg/errors"
)

// Store is a durable byte store. Implementations must make Set an atomic
// replace of the whole value.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Key builders

func EntitlementKey(userID string) string {
	return "entitlement:" + userID
}

func UsageKey(userID string) string {
	return "usage:" + userID
}

func PendingKey(paymentID string) string {
	return "pending:" + paymentID
}

func PaymentsKey(userID string) string {
	return "payments:" + userID
}

func CheckoutAttemptsKey(userID string) string {
	return "checkout_attempts:" + userID
}

func PaidKey(userID, planID string) string {
	return fmt.Sprintf("paid:%s:%s", userID, planID)
}

// GetJSON loads key into v. Store failures come back as *xerrors.StorageError.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, xerrors.NewStorageError("get", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, xerrors.NewStorageError("decode", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return xerrors.NewStorageError("set", key, s.Set(ctx, key, raw))
}

// Exists reports whether key holds a value.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, xerrors.NewStorageError("get", key, err)
	}
	return ok, nil
}

// Delete removes key. Deleting a missing key is not an error.
func Delete(ctx context.Context, s Store, key string) error {
	return xerrors.NewStorageError("delete", key, s.Delete(ctx, key))
}
