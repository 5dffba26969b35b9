// Package ledger defines the narrow contract the rest of the service holds
// against the external append-only ledger, plus the two implementations:
// an on-chain adapter and an in-process ledger with the same semantics.
package ledger

import (
	"context"
	"errors"

	"github.com/agritruth/trace/internal/domain"
)

// ErrUnsupported is returned by optional read capabilities (bulk id listing)
// that a given deployment does not expose. Callers must have a fallback.
var ErrUnsupported = errors.New("operation unsupported by ledger")

// PriceTier selects which rung of the pricing ladder a SetPrice call writes.
type PriceTier int

const (
	TierMin PriceTier = iota
	TierDistributor
	TierRetailer
)

func (t PriceTier) String() string {
	switch t {
	case TierMin:
		return "min"
	case TierDistributor:
		return "distributor"
	case TierRetailer:
		return "retailer"
	}
	return "unknown"
}

// RegistrationEvent is the append-log record emitted when a batch is
// registered. It carries enough to reconstruct a minimal batch view when the
// full-struct read is unavailable.
type RegistrationEvent struct {
	BatchID      uint64         `json:"batchId"`
	Farmer       domain.Address `json:"farmer"`
	CropType     string         `json:"cropType"`
	QuantityKg   uint64         `json:"quantityKg"`
	BasePriceINR uint64         `json:"basePriceINR"`
	HarvestDate  int64          `json:"harvestDate"`
	MetadataCID  string         `json:"metadataCID"`
	At           int64          `json:"at"`
}

// Client is the capability surface the core requires from the ledger. All
// writes are fire-and-confirm: implementations return only once the append is
// durable, and wrap refusals in domain.ErrWriteRejected.
type Client interface {
	// Batch reads the full record for id; domain.ErrNotFound when absent.
	Batch(ctx context.Context, id uint64) (domain.Batch, error)
	// AllBatchIDs lists every registered id, or ErrUnsupported.
	AllBatchIDs(ctx context.Context) ([]uint64, error)
	// RegistrationEvents returns registration records, oldest first.
	// batchID zero means all batches.
	RegistrationEvents(ctx context.Context, batchID uint64) ([]RegistrationEvent, error)
	// RegisterBatch appends a new batch and returns its assigned id.
	RegisterBatch(ctx context.Context, reg domain.Registration) (uint64, error)
	// TransferOwnership moves custody as the signing account itself; the
	// ledger rejects it unless the signer currently owns the batch.
	TransferOwnership(ctx context.Context, id uint64, to domain.Address) error
	// TransferOwnershipByVerifier moves custody under the privileged
	// verifier capability, bypassing the ownership check.
	TransferOwnershipByVerifier(ctx context.Context, id uint64, to domain.Address) error
	// SetPrice writes one rung of the pricing ladder.
	SetPrice(ctx context.Context, id uint64, tier PriceTier, amountINR uint64) error
	// SetVerifier grants or revokes the verifier capability (owner only).
	SetVerifier(ctx context.Context, account domain.Address, allowed bool) error
	// HasCode probes whether the configured target is a deployed contract.
	HasCode(ctx context.Context) (bool, error)
	// Signer is the account this client signs writes with; zero when the
	// relayer is not configured.
	Signer() domain.Address
}
