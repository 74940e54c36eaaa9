// internal/app/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/foliokit/contactd/internal/domain/models"
)

// MemoryHolder keeps one visitor's form state in process memory.
type MemoryHolder struct {
	mu       sync.Mutex
	form     models.FormRecord
	inFlight bool
	touched  time.Time
}

// NewMemoryHolder returns an empty holder.
func NewMemoryHolder() *MemoryHolder {
	return &MemoryHolder{touched: time.Now()}
}

func (h *MemoryHolder) Form(context.Context) (models.FormRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.form, nil
}

func (h *MemoryHolder) SetField(_ context.Context, f models.Field, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.form = h.form.With(f, value)
	h.touched = time.Now()
	return nil
}

func (h *MemoryHolder) Reset(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.form = models.FormRecord{}
	h.touched = time.Now()
	return nil
}

func (h *MemoryHolder) InFlight(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inFlight, nil
}

func (h *MemoryHolder) Acquire(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inFlight {
		return false, nil
	}
	h.inFlight = true
	h.touched = time.Now()
	return true, nil
}

func (h *MemoryHolder) Release(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inFlight = false
	return nil
}

func (h *MemoryHolder) touch(now time.Time) {
	h.mu.Lock()
	h.touched = now
	h.mu.Unlock()
}

func (h *MemoryHolder) idleSince(now time.Time) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return now.Sub(h.touched), h.inFlight
}

// MemoryRegistry hands out one MemoryHolder per visitor id and forgets
// holders idle longer than ttl.
type MemoryRegistry struct {
	mu      sync.Mutex
	holders map[string]*MemoryHolder
	ttl     time.Duration
}

// NewMemoryRegistry returns a registry; ttl <= 0 keeps holders forever.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{holders: map[string]*MemoryHolder{}, ttl: ttl}
}

// Holder returns the visitor's holder, creating it on first use. Handing
// out a holder counts as a touch, so Sweep cannot drop it from under the
// request that just received it.
func (r *MemoryRegistry) Holder(visitorID string) *MemoryHolder {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holders[visitorID]
	if !ok {
		h = NewMemoryHolder()
		r.holders[visitorID] = h
		return h
	}
	h.touch(time.Now())
	return h
}

// Len is the number of live holders.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holders)
}

// Sweep drops holders idle for longer than ttl. Holders with a cycle in
// flight are kept. It returns how many were dropped.
func (r *MemoryRegistry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, h := range r.holders {
		idle, busy := h.idleSince(now)
		if !busy && idle > r.ttl {
			delete(r.holders, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *MemoryRegistry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r.Sweep(now)
		}
	}
}
