package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"storefront/internal/payments"
)

// Memory keeps everything in process. It is the default when no DB_ADDR is
// configured and what the tests run against.
type Memory struct {
	mu         sync.RWMutex
	intents    map[string]*payments.Intent
	created    map[string]time.Time
	sessions   map[string]string
	deliveries map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		intents:    make(map[string]*payments.Intent),
		created:    make(map[string]time.Time),
		sessions:   make(map[string]string),
		deliveries: make(map[string]string),
	}
}

func (m *Memory) Intent(ctx context.Context, id string) (*payments.Intent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	in, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return in.Clone(), nil
}

func (m *Memory) SaveIntent(ctx context.Context, in *payments.Intent) (*payments.Intent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, found := m.intents[in.ID]
	if found && prev.Status.Final() && prev.Status != in.Status {
		return prev.Clone(), false, nil
	}

	stored := in.Public()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	if found {
		// updated_at doubles as the row version and must move forward
		if !stored.UpdatedAt.After(prev.UpdatedAt) {
			stored.UpdatedAt = prev.UpdatedAt.Add(time.Microsecond)
		}
		stored.Metadata = mergeMetadata(prev.Metadata, stored.Metadata)
		if stored.ReceiptEmail == "" {
			stored.ReceiptEmail = prev.ReceiptEmail
		}
	}
	if _, ok := m.created[in.ID]; !ok {
		m.created[in.ID] = stored.UpdatedAt
	}
	m.intents[in.ID] = stored

	changed := !found || prev.Status != stored.Status || prev.LastError != stored.LastError
	return stored.Clone(), changed, nil
}

// mergeMetadata overlays next on prev; keys only prev has are kept.
func mergeMetadata(prev, next map[string]string) map[string]string {
	if len(prev) == 0 {
		return next
	}
	out := maps.Clone(prev)
	maps.Copy(out, next)
	return out
}

func (m *Memory) ActiveIntent(ctx context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return id, nil
}

func (m *Memory) BindSession(ctx context.Context, sessionID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.intents[intentID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, intentID)
	}
	m.sessions[sessionID] = intentID
	return nil
}

func (m *Memory) ListIntents(ctx context.Context, filter ListFilter) ([]*payments.Intent, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*payments.Intent
	for _, in := range m.intents {
		if filter.Status != "" && in.Status != filter.Status {
			continue
		}
		all = append(all, in)
	}
	slices.SortFunc(all, func(a, b *payments.Intent) int {
		if c := m.created[b.ID].Compare(m.created[a.ID]); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := len(all)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	out := make([]*payments.Intent, 0, end-start)
	for _, in := range all[start:end] {
		out = append(out, in.Clone())
	}
	return out, total, nil
}

func (m *Memory) PendingIntents(ctx context.Context, updatedBefore time.Time, limit int) ([]*payments.Intent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*payments.Intent
	for _, in := range m.intents {
		if !slices.Contains(unresolved, in.Status) || !in.UpdatedAt.Before(updatedBefore) {
			continue
		}
		out = append(out, in.Clone())
	}
	slices.SortFunc(out, func(a, b *payments.Intent) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SeenDelivery(ctx context.Context, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.deliveries[eventID]
	return ok, nil
}

func (m *Memory) RecordDelivery(ctx context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[eventID] = eventType
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() {}
