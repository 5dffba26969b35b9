// Package custody holds the authoritative rules for which ownership
// transitions and price writes are legal for a batch.
package custody

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
)

// Capability identifies the authority a transfer or price write is made
// under. The privileged capability is an explicit grant, never inferred from
// address comparison against a well-known account.
type Capability int

const (
	// CapabilitySelf acts as the signing account itself: transfers require
	// current ownership and must progress custody forward.
	CapabilitySelf Capability = iota
	// CapabilityVerifier is the privileged relayer capability used to
	// execute payment-triggered transfers; no ordering guard applies.
	CapabilityVerifier
)

// Engine validates transitions against current batch state before appending
// them to the ledger.
type Engine struct {
	ledger ledger.Client
	log    *slog.Logger
}

func New(l ledger.Client, log *slog.Logger) *Engine {
	return &Engine{ledger: l, log: log}
}

// Transfer moves custody of a batch. Transferring to the address that
// already holds custody is a success no-op (changed=false); the settlement
// reconciler depends on that to stay idempotent across delivery paths.
func (e *Engine) Transfer(ctx context.Context, id uint64, to domain.Address, capability Capability) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: destination address %q is malformed", domain.ErrTransitionDenied, to)
	}
	b, err := e.ledger.Batch(ctx, id)
	if err != nil {
		return false, err
	}
	if b.CurrentOwner.Equal(to) {
		return false, nil
	}
	switch capability {
	case CapabilityVerifier:
		if err := e.ledger.TransferOwnershipByVerifier(ctx, id, to); err != nil {
			return false, err
		}
	case CapabilitySelf:
		signer := e.ledger.Signer()
		if !signer.Equal(b.CurrentOwner) {
			return false, fmt.Errorf("%w: %s does not hold batch %d", domain.ErrTransitionDenied, signer, id)
		}
		next := b.HolderRole().Next()
		if next == domain.RoleUnknown || !to.Equal(b.RoleAddress(next)) {
			return false, fmt.Errorf("%w: self transfer must move batch %d forward to its %s", domain.ErrTransitionDenied, id, next)
		}
		if err := e.ledger.TransferOwnership(ctx, id, to); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: unknown capability %d", domain.ErrTransitionDenied, capability)
	}
	e.log.Info("custody transferred", "batch", id, "to", to, "capability", capability)
	return true, nil
}

// SetPrice writes one rung of the pricing ladder. Writing the amount already
// stored is a success no-op (changed=false).
func (e *Engine) SetPrice(ctx context.Context, id uint64, tier ledger.PriceTier, amountINR uint64, capability Capability) (changed bool, err error) {
	if amountINR == 0 {
		return false, fmt.Errorf("%w: price must be positive", domain.ErrTransitionDenied)
	}
	b, err := e.ledger.Batch(ctx, id)
	if err != nil {
		return false, err
	}
	var current uint64
	var holder domain.Address
	switch tier {
	case ledger.TierMin:
		current, holder = b.MinPriceINR, b.Farmer
	case ledger.TierDistributor:
		current, holder = b.PriceByDistributorINR, b.Distributor
	case ledger.TierRetailer:
		current, holder = b.PriceByRetailerINR, b.Retailer
	default:
		return false, fmt.Errorf("%w: unknown price tier %d", domain.ErrTransitionDenied, tier)
	}
	if current == amountINR {
		return false, nil
	}
	if capability != CapabilityVerifier && !e.ledger.Signer().Equal(holder) {
		return false, fmt.Errorf("%w: %s may not set the %s price of batch %d", domain.ErrTransitionDenied, e.ledger.Signer(), tier, id)
	}
	if err := e.ledger.SetPrice(ctx, id, tier, amountINR); err != nil {
		return false, err
	}
	e.log.Info("price updated", "batch", id, "tier", tier.String(), "amountINR", amountINR)
	return true, nil
}
