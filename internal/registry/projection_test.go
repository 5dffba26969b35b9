package registry

import (
	"context"
	"errors"
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

func register(t *testing.T, m *ledger.Memory, crop string) uint64 {
	t.Helper()
	id, err := m.RegisterBatch(context.Background(), domain.Registration{
		CropType: crop, QuantityKg: 100, BasePriceINR: 2000, HarvestDate: 1700000000,
	})
	require.NoError(t, err)
	return id
}

func TestGetBatchView(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := register(t, m, "Rice")

	p := New(m, discard())
	view, err := p.GetBatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFarmer, view.CurrentHolder)
	assert.Equal(t, domain.RoleFarmer, view.CurrentHolderRole)
	// Floor resolves through the base price when never set.
	assert.Equal(t, uint64(2000), view.Prices.MinINR)

	_, err = p.GetBatch(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBatches(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	register(t, m, "Rice")
	register(t, m, "Wheat")

	p := New(m, discard())
	views, err := p.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Rice", views[0].CropType)
	assert.Equal(t, "Wheat", views[1].CropType)
}

func TestListBatchesFallsBackToEventLog(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer, ledger.WithoutIndex())
	register(t, m, "Rice")
	register(t, m, "Mango")

	p := New(m, discard())
	views, err := p.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Mango", views[1].CropType)
}

// brokenReads wraps a ledger so full-struct reads fail, forcing the listing
// to reconstruct entries from registration events.
type brokenReads struct {
	ledger.Client
}

func (b brokenReads) Batch(context.Context, uint64) (domain.Batch, error) {
	return domain.Batch{}, errors.New("tuple decode failed")
}

func TestListBatchesReconstructsFromEvents(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	id := register(t, m, "Turmeric")

	p := New(brokenReads{m}, discard())
	views, err := p.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, id, views[0].ID)
	assert.Equal(t, "Turmeric", views[0].CropType)
	assert.Equal(t, domain.DefaultFarmer, views[0].CurrentHolder)
	assert.True(t, views[0].Exists)
}

// noCode reports the configured target as undeployed.
type noCode struct {
	ledger.Client
}

func (noCode) HasCode(context.Context) (bool, error) { return false, nil }

func TestInvalidLedgerTargetFailsFast(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	register(t, m, "Rice")

	p := New(noCode{m}, discard())
	_, err := p.ListBatches(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidLedgerTarget)

	_, err = p.GetBatch(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidLedgerTarget)
}

func TestProbeResultIsCached(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(domain.DefaultFarmer)
	register(t, m, "Rice")

	counter := &probeCounter{Client: m}
	p := New(counter, discard())
	_, err := p.GetBatch(ctx, 1)
	require.NoError(t, err)
	_, err = p.GetBatch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)
}

type probeCounter struct {
	ledger.Client
	calls int
}

func (p *probeCounter) HasCode(ctx context.Context) (bool, error) {
	p.calls++
	return p.Client.HasCode(ctx)
}
