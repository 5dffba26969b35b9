// Package registry derives read-optimized batch views from the ledger,
// tolerating deployments that expose only the registration event log.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
)

// probeTTL bounds how often the contract-code probe hits the ledger.
const probeTTL = 30 * time.Second

// Projection answers "what is batch X's state" queries. It never writes.
type Projection struct {
	ledger ledger.Client
	log    *slog.Logger

	probeMu  sync.Mutex
	probeVal bool
	probeAt  time.Time
}

func New(l ledger.Client, log *slog.Logger) *Projection {
	return &Projection{ledger: l, log: log}
}

// ensureTarget fails fast with InvalidLedgerTarget when the configured
// address has no deployed code. The probe result is cached briefly so every
// request does not pay an extra round trip.
func (p *Projection) ensureTarget(ctx context.Context) error {
	p.probeMu.Lock()
	defer p.probeMu.Unlock()
	if time.Since(p.probeAt) < probeTTL {
		if !p.probeVal {
			return domain.ErrInvalidLedgerTarget
		}
		return nil
	}
	ok, err := p.ledger.HasCode(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidLedgerTarget, err)
	}
	p.probeVal = ok
	p.probeAt = time.Now()
	if !ok {
		return domain.ErrInvalidLedgerTarget
	}
	return nil
}

// GetBatch reads one batch. Single reads fast-fail on a missing struct
// rather than scanning the event log; only the list path reconstructs.
func (p *Projection) GetBatch(ctx context.Context, id uint64) (domain.BatchView, error) {
	if err := p.ensureTarget(ctx); err != nil {
		return domain.BatchView{}, err
	}
	b, err := p.ledger.Batch(ctx, id)
	if err != nil {
		return domain.BatchView{}, err
	}
	b.PatchFromInlineMetadata()
	normalizeRoleAddresses(&b)
	return b.View(), nil
}

// ListBatches lists every known batch. The id set comes from the bulk getter
// when available, otherwise from the registration log; each entry comes from
// the full-struct read when possible, otherwise it is reconstructed from the
// last registration event. A single bad id never fails the whole listing.
func (p *Projection) ListBatches(ctx context.Context) ([]domain.BatchView, error) {
	if err := p.ensureTarget(ctx); err != nil {
		return nil, err
	}
	ids, err := p.ledger.AllBatchIDs(ctx)
	if err != nil {
		p.log.Debug("bulk id read unavailable, deriving ids from registration log", "err", err)
		ids, err = p.idsFromEvents(ctx)
		if err != nil {
			return nil, err
		}
	}
	views := make([]domain.BatchView, 0, len(ids))
	for _, id := range ids {
		b, err := p.ledger.Batch(ctx, id)
		if err != nil {
			rb, ok := p.reconstruct(ctx, id)
			if !ok {
				p.log.Warn("batch unreadable and not reconstructable, skipping", "batch", id, "err", err)
				continue
			}
			b = rb
		} else if sparse(b) {
			p.overlayFromEvents(ctx, &b)
		}
		b.PatchFromInlineMetadata()
		normalizeRoleAddresses(&b)
		views = append(views, b.View())
	}
	return views, nil
}

func (p *Projection) idsFromEvents(ctx context.Context) ([]uint64, error) {
	events, err := p.ledger.RegistrationEvents(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("registration log scan: %w", err)
	}
	seen := map[uint64]bool{}
	var ids []uint64
	for _, ev := range events {
		if !seen[ev.BatchID] {
			seen[ev.BatchID] = true
			ids = append(ids, ev.BatchID)
		}
	}
	return ids, nil
}

// reconstruct builds a minimal batch from the last registration event for an
// id whose full-struct read failed.
func (p *Projection) reconstruct(ctx context.Context, id uint64) (domain.Batch, bool) {
	events, err := p.ledger.RegistrationEvents(ctx, id)
	if err != nil || len(events) == 0 {
		return domain.Batch{}, false
	}
	ev := events[len(events)-1]
	farmer := ev.Farmer
	if farmer.IsZero() {
		farmer = domain.DefaultFarmer
	}
	return domain.Batch{
		ID:           id,
		CurrentOwner: farmer,
		Farmer:       farmer,
		CropType:     ev.CropType,
		QuantityKg:   ev.QuantityKg,
		BasePriceINR: ev.BasePriceINR,
		HarvestDate:  ev.HarvestDate,
		MetadataCID:  ev.MetadataCID,
		CreatedAt:    ev.At,
		Exists:       true,
	}, true
}

// sparse reports whether a tuple read came back with registration fields
// missing, which happens across ABI drift on older deployments.
func sparse(b domain.Batch) bool {
	return b.CropType == "" || b.QuantityKg == 0 || b.BasePriceINR == 0 || b.HarvestDate == 0
}

// overlayFromEvents fills sparse registration fields from the last
// registration event, keeping whatever the tuple already had.
func (p *Projection) overlayFromEvents(ctx context.Context, b *domain.Batch) {
	events, err := p.ledger.RegistrationEvents(ctx, b.ID)
	if err != nil || len(events) == 0 {
		return
	}
	ev := events[len(events)-1]
	if b.CropType == "" {
		b.CropType = ev.CropType
	}
	if b.QuantityKg == 0 {
		b.QuantityKg = ev.QuantityKg
	}
	if b.BasePriceINR == 0 {
		b.BasePriceINR = ev.BasePriceINR
	}
	if b.HarvestDate == 0 {
		b.HarvestDate = ev.HarvestDate
	}
	if b.MetadataCID == "" {
		b.MetadataCID = ev.MetadataCID
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = ev.At
	}
}

// normalizeRoleAddresses swaps unset role slots for the well-known default
// accounts so holder-role derivation never equates two distinct roles
// through a shared zero value.
func normalizeRoleAddresses(b *domain.Batch) {
	if b.Distributor.IsZero() {
		b.Distributor = domain.DefaultDistributor
	}
	if b.Retailer.IsZero() {
		b.Retailer = domain.DefaultRetailer
	}
	if b.Consumer.IsZero() {
		b.Consumer = domain.DefaultConsumer
	}
}
