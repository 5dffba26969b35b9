package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agritruth/trace/internal/domain"
)

var other = domain.Address("0x9999999999999999999999999999999999999999")

func TestRegisterAndReadBatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)

	id, err := m.RegisterBatch(ctx, domain.Registration{
		CropType:     "Rice",
		QuantityKg:   100,
		BasePriceINR: 2000,
		HarvestDate:  1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	b, err := m.Batch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFarmer, b.Farmer)
	assert.Equal(t, domain.DefaultFarmer, b.CurrentOwner)
	assert.Equal(t, domain.DefaultDistributor, b.Distributor)
	assert.True(t, b.Exists)

	_, err = m.Batch(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterBatchExplicitFarmer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)

	id, err := m.RegisterBatch(ctx, domain.Registration{Farmer: other, CropType: "Wheat", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
	require.NoError(t, err)

	b, err := m.Batch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, other, b.Farmer)
	assert.Equal(t, other, b.CurrentOwner)
}

func TestTransferOwnershipGuard(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)
	id, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
	require.NoError(t, err)

	// A non-owner handle cannot move the batch.
	err = m.As(other).TransferOwnership(ctx, id, domain.DefaultDistributor)
	assert.ErrorIs(t, err, domain.ErrWriteRejected)

	require.NoError(t, m.TransferOwnership(ctx, id, domain.DefaultDistributor))
	b, err := m.Batch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDistributor, b.CurrentOwner)
}

func TestTransferByVerifierGuard(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)
	id, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
	require.NoError(t, err)

	relayer := m.As(other)
	err = relayer.TransferOwnershipByVerifier(ctx, id, domain.DefaultDistributor)
	assert.ErrorIs(t, err, domain.ErrWriteRejected)

	require.NoError(t, m.SetVerifier(ctx, other, true))
	require.NoError(t, relayer.TransferOwnershipByVerifier(ctx, id, domain.DefaultDistributor))

	ok, err := m.IsVerifier(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetVerifierOwnerOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)
	err := m.As(other).SetVerifier(ctx, other, true)
	assert.ErrorIs(t, err, domain.ErrWriteRejected)
}

func TestPurchaseTimestampsFirstWriteOnly(t *testing.T) {
	ctx := context.Background()
	clock := int64(100)
	m := NewMemory(domain.DefaultFarmer, WithClock(func() int64 { return clock }))
	require.NoError(t, m.SetVerifier(ctx, domain.DefaultFarmer, true))

	id, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
	require.NoError(t, err)

	clock = 200
	require.NoError(t, m.TransferOwnershipByVerifier(ctx, id, domain.DefaultDistributor))
	b, _ := m.Batch(ctx, id)
	assert.Equal(t, int64(200), b.BoughtByDistributorAt)

	// Moving away and back does not restamp.
	clock = 300
	require.NoError(t, m.TransferOwnershipByVerifier(ctx, id, domain.DefaultRetailer))
	clock = 400
	require.NoError(t, m.TransferOwnershipByVerifier(ctx, id, domain.DefaultDistributor))
	b, _ = m.Batch(ctx, id)
	assert.Equal(t, int64(200), b.BoughtByDistributorAt)
	assert.Equal(t, int64(300), b.BoughtByRetailerAt)
}

func TestSetPriceGuards(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)
	id, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1000, HarvestDate: 1})
	require.NoError(t, err)

	// Farmer sets the floor.
	require.NoError(t, m.SetPrice(ctx, id, TierMin, 900))

	// A stranger sets nothing.
	err = m.As(other).SetPrice(ctx, id, TierDistributor, 1500)
	assert.ErrorIs(t, err, domain.ErrWriteRejected)

	// The distributor account sets its own rung.
	require.NoError(t, m.As(domain.DefaultDistributor).SetPrice(ctx, id, TierDistributor, 1500))

	b, _ := m.Batch(ctx, id)
	assert.Equal(t, uint64(900), b.MinPriceINR)
	assert.Equal(t, uint64(1500), b.PriceByDistributorINR)
}

func TestAllBatchIDsAndEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer)
	for i := 0; i < 3; i++ {
		_, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
		require.NoError(t, err)
	}

	ids, err := m.AllBatchIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	events, err := m.RegistrationEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = m.RegistrationEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(2), events[0].BatchID)
}

func TestWithoutIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(domain.DefaultFarmer, WithoutIndex())
	_, err := m.RegisterBatch(ctx, domain.Registration{CropType: "Rice", QuantityKg: 1, BasePriceINR: 1, HarvestDate: 1})
	require.NoError(t, err)

	_, err = m.AllBatchIDs(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
}
