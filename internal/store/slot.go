package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/avoskov/retail_pos/internal/events"
)

// ExternalTopic names the bus topic announcing out-of-band writes to a slot,
// e.g. a backup restore replacing the persisted value behind a live slot. A
// nil payload means the key was cleared.
func ExternalTopic(key string) string {
	return "store.external." + key
}

// Slot is a typed view over one persisted key. Reads are served from memory;
// every Set writes through to the backend before the in-memory value is
// replaced. Hydration and external-change reconciliation fall back to the
// caller-supplied default on a missing key or an unparsable value, so a broken
// or absent backend degrades instead of failing.
type Slot[T any] struct {
	kv  KV
	key string
	def func() T

	mu      sync.RWMutex
	current T
}

func NewSlot[T any](ctx context.Context, kv KV, bus *events.Bus, key string, def func() T) *Slot[T] {
	s := &Slot[T]{kv: kv, key: key, def: def}
	s.current = s.hydrate(ctx)
	if bus != nil {
		_ = bus.Subscribe(ExternalTopic(key), s.reconcile)
	}
	return s
}

func (s *Slot[T]) hydrate(ctx context.Context) T {
	if s.kv == nil {
		return s.def()
	}
	raw, ok, err := s.kv.Load(ctx, s.key)
	if err != nil || !ok {
		return s.def()
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return s.def()
	}
	return v
}

func (s *Slot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Slot[T]) Set(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", ErrStorage, s.key, err)
	}
	if s.kv != nil {
		if err := s.kv.Save(ctx, s.key, raw); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
	return nil
}

func (s *Slot[T]) Update(ctx context.Context, fn func(T) T) error {
	return s.Set(ctx, fn(s.Get()))
}

// reconcile adopts an externally written value. External change wins; parse
// failure or a cleared key reverts to the default.
func (s *Slot[T]) reconcile(raw []byte) {
	var v T
	if raw == nil {
		v = s.def()
	} else if err := json.Unmarshal(raw, &v); err != nil {
		v = s.def()
	}
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
}
