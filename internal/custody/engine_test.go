package custody

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBatch(t *testing.T, m *ledger.Memory) uint64 {
	t.Helper()
	id, err := m.RegisterBatch(context.Background(), domain.Registration{
		CropType: "Rice", QuantityKg: 100, BasePriceINR: 2000, HarvestDate: 1700000000,
	})
	require.NoError(t, err)
	return id
}

func TestTransferToCurrentOwnerIsNoOp(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)
	engine := New(m, discard())

	changed, err := engine.Transfer(ctx, id, domain.DefaultFarmer, CapabilityVerifier)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSelfTransferForwardOnly(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)
	engine := New(m, discard())

	// Farmer to distributor is the legal next hop.
	changed, err := engine.Transfer(ctx, id, domain.DefaultDistributor, CapabilitySelf)
	require.NoError(t, err)
	assert.True(t, changed)

	// Farmer no longer holds the batch; a second self transfer is denied and
	// leaves state untouched.
	_, err = engine.Transfer(ctx, id, domain.DefaultRetailer, CapabilitySelf)
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)

	b, err := m.Batch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDistributor, b.CurrentOwner)
}

func TestSelfTransferCannotSkipAhead(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)
	engine := New(m, discard())

	// Farmer trying to jump straight to the retailer is denied.
	_, err := engine.Transfer(ctx, id, domain.DefaultRetailer, CapabilitySelf)
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)

	b, err := m.Batch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFarmer, b.CurrentOwner)
}

func TestVerifierTransferSkipsOrderingGuard(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	require.NoError(t, m.SetVerifier(ctx, domain.DefaultFarmer, true))
	id := newBatch(t, m)
	engine := New(m, discard())

	changed, err := engine.Transfer(ctx, id, domain.DefaultRetailer, CapabilityVerifier)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestTransferMalformedDestination(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)
	engine := New(m, discard())

	_, err := engine.Transfer(ctx, id, "not-an-address", CapabilityVerifier)
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)
}

func TestTransferMissingBatch(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	engine := New(m, discard())

	_, err := engine.Transfer(ctx, 7, domain.DefaultDistributor, CapabilityVerifier)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPriceIdempotentNoOp(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	require.NoError(t, m.SetVerifier(ctx, domain.DefaultFarmer, true))
	id := newBatch(t, m)
	engine := New(m, discard())

	changed, err := engine.SetPrice(ctx, id, ledger.TierDistributor, 3000, CapabilityVerifier)
	require.NoError(t, err)
	assert.True(t, changed)

	// Writing the stored amount again is a success no-op.
	changed, err = engine.SetPrice(ctx, id, ledger.TierDistributor, 3000, CapabilityVerifier)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSetPriceSelfRequiresTierHolder(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)

	// The farmer handle may set the floor but not the distributor rung.
	engine := New(m, discard())
	changed, err := engine.SetPrice(ctx, id, ledger.TierMin, 1800, CapabilitySelf)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = engine.SetPrice(ctx, id, ledger.TierDistributor, 2500, CapabilitySelf)
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)
}

func TestSetPriceRejectsZero(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := newBatch(t, m)
	engine := New(m, discard())

	_, err := engine.SetPrice(ctx, id, ledger.TierMin, 0, CapabilityVerifier)
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)
}
