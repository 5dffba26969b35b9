package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agritruth/trace/internal/domain"
)

// normalize lowercases an address for use as a map key, since the chain
// reports mixed-case checksummed addresses.
func normalize(a domain.Address) domain.Address {
	return domain.Address(strings.ToLower(string(a)))
}

// memoryState is the shared contract storage behind every Memory handle.
type memoryState struct {
	mu        sync.RWMutex
	owner     domain.Address
	verifiers map[domain.Address]bool
	batches   map[uint64]*domain.Batch
	order     []uint64
	events    []RegistrationEvent
	nextID    uint64
	now       func() int64
	noIndex   bool
}

// Memory is an in-process ledger with the same rules the deployed contract
// enforces: write-once registration, owner-gated self transfer, a verifier
// set for privileged transfer, and first-write-wins purchase timestamps.
// Handles created by As share storage, so tests and the memory deployment
// can act as different accounts against one ledger.
type Memory struct {
	state  *memoryState
	signer domain.Address
}

// MemoryOption configures a new in-process ledger.
type MemoryOption func(*memoryState)

// WithClock overrides the timestamp source.
func WithClock(now func() int64) MemoryOption {
	return func(s *memoryState) { s.now = now }
}

// WithoutIndex makes AllBatchIDs return ErrUnsupported, mimicking older
// deployments that predate the bulk id getter.
func WithoutIndex() MemoryOption {
	return func(s *memoryState) { s.noIndex = true }
}

// NewMemory creates an in-process ledger owned and signed by owner.
func NewMemory(owner domain.Address, opts ...MemoryOption) *Memory {
	s := &memoryState{
		owner:     owner,
		verifiers: map[domain.Address]bool{},
		batches:   map[uint64]*domain.Batch{},
		now:       func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return &Memory{state: s, signer: owner}
}

// As returns a handle over the same ledger signing as account.
func (m *Memory) As(account domain.Address) *Memory {
	return &Memory{state: m.state, signer: account}
}

func (m *Memory) Signer() domain.Address { return m.signer }

func (m *Memory) Batch(_ context.Context, id uint64) (domain.Batch, error) {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	b, ok := m.state.batches[id]
	if !ok || !b.Exists {
		return domain.Batch{}, domain.ErrNotFound
	}
	return *b, nil
}

func (m *Memory) AllBatchIDs(_ context.Context) ([]uint64, error) {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	if m.state.noIndex {
		return nil, ErrUnsupported
	}
	ids := make([]uint64, len(m.state.order))
	copy(ids, m.state.order)
	return ids, nil
}

func (m *Memory) RegistrationEvents(_ context.Context, batchID uint64) ([]RegistrationEvent, error) {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	var out []RegistrationEvent
	for _, ev := range m.state.events {
		if batchID == 0 || ev.BatchID == batchID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) RegisterBatch(_ context.Context, reg domain.Registration) (uint64, error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	farmer := reg.Farmer
	if farmer.IsZero() {
		farmer = m.signer
	}
	m.state.nextID++
	id := m.state.nextID
	now := m.state.now()
	b := &domain.Batch{
		ID:           id,
		CurrentOwner: farmer,
		Farmer:       farmer,
		Distributor:  domain.DefaultDistributor,
		Retailer:     domain.DefaultRetailer,
		Consumer:     domain.DefaultConsumer,
		CropType:     reg.CropType,
		QuantityKg:   reg.QuantityKg,
		BasePriceINR: reg.BasePriceINR,
		HarvestDate:  reg.HarvestDate,
		MetadataCID:  reg.MetadataCID,
		CreatedAt:    now,
		Exists:       true,
	}
	m.state.batches[id] = b
	m.state.order = append(m.state.order, id)
	m.state.events = append(m.state.events, RegistrationEvent{
		BatchID:      id,
		Farmer:       farmer,
		CropType:     reg.CropType,
		QuantityKg:   reg.QuantityKg,
		BasePriceINR: reg.BasePriceINR,
		HarvestDate:  reg.HarvestDate,
		MetadataCID:  reg.MetadataCID,
		At:           now,
	})
	return id, nil
}

func (m *Memory) TransferOwnership(_ context.Context, id uint64, to domain.Address) error {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	b, ok := m.state.batches[id]
	if !ok || !b.Exists {
		return domain.ErrNotFound
	}
	if !m.signer.Equal(b.CurrentOwner) {
		return fmt.Errorf("%w: signer %s is not current owner", domain.ErrWriteRejected, m.signer)
	}
	m.applyTransfer(b, to)
	return nil
}

func (m *Memory) TransferOwnershipByVerifier(_ context.Context, id uint64, to domain.Address) error {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	b, ok := m.state.batches[id]
	if !ok || !b.Exists {
		return domain.ErrNotFound
	}
	if !m.state.verifiers[normalize(m.signer)] {
		return fmt.Errorf("%w: signer %s is not a verifier", domain.ErrWriteRejected, m.signer)
	}
	m.applyTransfer(b, to)
	return nil
}

// applyTransfer moves custody and stamps the matching purchase timestamp,
// first write only. Caller holds the write lock.
func (m *Memory) applyTransfer(b *domain.Batch, to domain.Address) {
	b.CurrentOwner = to
	now := m.state.now()
	switch {
	case to.Equal(b.Distributor):
		if b.BoughtByDistributorAt == 0 {
			b.BoughtByDistributorAt = now
		}
	case to.Equal(b.Retailer):
		if b.BoughtByRetailerAt == 0 {
			b.BoughtByRetailerAt = now
		}
	case to.Equal(b.Consumer):
		if b.BoughtByConsumerAt == 0 {
			b.BoughtByConsumerAt = now
		}
	}
}

func (m *Memory) SetPrice(_ context.Context, id uint64, tier PriceTier, amountINR uint64) error {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	b, ok := m.state.batches[id]
	if !ok || !b.Exists {
		return domain.ErrNotFound
	}
	verifier := m.state.verifiers[normalize(m.signer)]
	switch tier {
	case TierMin:
		if !verifier && !m.signer.Equal(b.Farmer) && !m.signer.Equal(m.state.owner) {
			return fmt.Errorf("%w: signer %s may not set the floor price", domain.ErrWriteRejected, m.signer)
		}
		b.MinPriceINR = amountINR
	case TierDistributor:
		if !verifier && !m.signer.Equal(b.Distributor) {
			return fmt.Errorf("%w: signer %s may not set the distributor price", domain.ErrWriteRejected, m.signer)
		}
		b.PriceByDistributorINR = amountINR
	case TierRetailer:
		if !verifier && !m.signer.Equal(b.Retailer) {
			return fmt.Errorf("%w: signer %s may not set the retailer price", domain.ErrWriteRejected, m.signer)
		}
		b.PriceByRetailerINR = amountINR
	default:
		return fmt.Errorf("%w: unknown price tier %d", domain.ErrWriteRejected, tier)
	}
	return nil
}

func (m *Memory) SetVerifier(_ context.Context, account domain.Address, allowed bool) error {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if !m.signer.Equal(m.state.owner) {
		return fmt.Errorf("%w: only the contract owner may set verifiers", domain.ErrWriteRejected)
	}
	if allowed {
		m.state.verifiers[normalize(account)] = true
	} else {
		delete(m.state.verifiers, normalize(account))
	}
	return nil
}

func (m *Memory) HasCode(context.Context) (bool, error) { return true, nil }

// IsVerifier reports whether account currently holds the verifier capability.
func (m *Memory) IsVerifier(_ context.Context, account domain.Address) (bool, error) {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	return m.state.verifiers[normalize(account)], nil
}
