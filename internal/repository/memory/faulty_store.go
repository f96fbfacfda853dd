package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInjected is returned by FaultyStore for keys it has been told to fail.
var ErrInjected = errors.New("injected storage failure")

// FaultyStore wraps a KVStore and fails writes or reads for chosen key
// prefixes. It lets callers exercise storage outages deterministically.
type FaultyStore struct {
	*KVStore

	mu       sync.Mutex
	failGets []string
	failSets []string
	failDels []string
}

func NewFaultyStore() *FaultyStore {
	return &FaultyStore{KVStore: NewKVStore()}
}

func (s *FaultyStore) FailGets(prefixes ...string) {
	s.mu.Lock()
	s.failGets = prefixes
	s.mu.Unlock()
}

func (s *FaultyStore) FailSets(prefixes ...string) {
	s.mu.Lock()
	s.failSets = prefixes
	s.mu.Unlock()
}

func (s *FaultyStore) FailDeletes(prefixes ...string) {
	s.mu.Lock()
	s.failDels = prefixes
	s.mu.Unlock()
}

// Heal clears every injected failure.
func (s *FaultyStore) Heal() {
	s.mu.Lock()
	s.failGets, s.failSets, s.failDels = nil, nil, nil
	s.mu.Unlock()
}

func (s *FaultyStore) matches(prefixes []string, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func (s *FaultyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.matches(s.failGets, key) {
		return nil, false, ErrInjected
	}
	return s.KVStore.Get(ctx, key)
}

func (s *FaultyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.matches(s.failSets, key) {
		return ErrInjected
	}
	return s.KVStore.Set(ctx, key, value)
}

func (s *FaultyStore) Delete(ctx context.Context, key string) error {
	if s.matches(s.failDels, key) {
		return ErrInjected
	}
	return s.KVStore.Delete(ctx, key)
}
