// Package moderation keeps the ordered human-review queue for verification
// submissions. It is independent of the ledger's own custody state.
package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agritruth/trace/internal/domain"
)

// Status of a queue item. Items start pending; a decision may be re-issued,
// overwriting the previous one. That looseness is deliberate and preserved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a wire status string; empty means "no filter".
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Item is one pending-review record.
type Item struct {
	ID            string     `json:"id"`
	BatchID       string     `json:"batchId,omitempty"`
	FarmerAadhaar string     `json:"farmerAadhaar,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
}

// Store is the queue's backing collection. List preserves insertion order;
// Decide is an atomic read-modify-write.
type Store interface {
	Add(ctx context.Context, item Item) error
	List(ctx context.Context, status Status) ([]Item, error)
	Decide(ctx context.Context, id string, status Status, notes string, at time.Time) (Item, error)
}

// Queue is the moderation service over a Store.
type Queue struct {
	store Store
}

func NewQueue(store Store) *Queue {
	return &Queue{store: store}
}

// Enqueue appends a new pending item. No dedup: repeated submissions for
// the same batch each get their own entry.
func (q *Queue) Enqueue(ctx context.Context, batchID, farmerAadhaar, summary string) (Item, error) {
	item := Item{
		ID:            "VERI-" + uuid.NewString(),
		BatchID:       batchID,
		FarmerAadhaar: farmerAadhaar,
		Summary:       summary,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := q.store.Add(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns items in insertion order, optionally filtered by status.
func (q *Queue) List(ctx context.Context, status Status) ([]Item, error) {
	return q.store.List(ctx, status)
}

// Decide sets the item's status and decision timestamp. Pending is a legal
// decision target (it reopens the item).
func (q *Queue) Decide(ctx context.Context, id string, status Status, notes string) (Item, error) {
	if status != StatusPending && status != StatusApproved && status != StatusRejected {
		return Item{}, fmt.Errorf("invalid decision %q", status)
	}
	return q.store.Decide(ctx, id, status, notes, time.Now().UTC())
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(_ context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

func (m *MemoryStore) List(_ context.Context, status Status) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MemoryStore) Decide(_ context.Context, id string, status Status, notes string, at time.Time) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		m.items[i].Status = status
		if notes != "" {
			m.items[i].Notes = notes
		}
		decidedAt := at
		m.items[i].DecidedAt = &decidedAt
		return m.items[i], nil
	}
	return Item{}, domain.ErrNotFound
}
