package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agritruth/trace/internal/domain"
)

func TestEnqueueAndList(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemoryStore())

	first, err := q.Enqueue(ctx, "OD2025-0001", "XXXX-XXXX-1234", "Grade A, Qty 100")
	require.NoError(t, err)
	assert.Contains(t, first.ID, "VERI-")
	assert.Equal(t, StatusPending, first.Status)

	second, err := q.Enqueue(ctx, "OD2025-0002", "", "Grade B, Qty 50")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	items, err := q.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Insertion order is preserved.
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestDecideLifecycle(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemoryStore())

	item, err := q.Enqueue(ctx, "OD2025-0001", "", "Grade A")
	require.NoError(t, err)

	decided, err := q.Decide(ctx, item.ID, StatusApproved, "looks good")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	assert.Equal(t, "looks good", decided.Notes)
	require.NotNil(t, decided.DecidedAt)

	pending, err := q.List(ctx, StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := q.List(ctx, StatusApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestDecideCanBeReissued(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemoryStore())

	item, err := q.Enqueue(ctx, "OD2025-0001", "", "Grade A")
	require.NoError(t, err)

	_, err = q.Decide(ctx, item.ID, StatusApproved, "first pass")
	require.NoError(t, err)

	// A later decision overwrites the earlier one; empty notes keep the old.
	decided, err := q.Decide(ctx, item.ID, StatusRejected, "")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, decided.Status)
	assert.Equal(t, "first pass", decided.Notes)

	// Pending reopens the item.
	decided, err = q.Decide(ctx, item.ID, StatusPending, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, decided.Status)
}

func TestDecideValidation(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemoryStore())

	_, err := q.Decide(ctx, "VERI-missing", StatusApproved, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	item, err := q.Enqueue(ctx, "OD2025-0001", "", "")
	require.NoError(t, err)
	_, err = q.Decide(ctx, item.ID, Status("escalated"), "")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"", "pending", "approved", "rejected"} {
		got, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), got)
	}
	_, err := ParseStatus("bogus")
	assert.Error(t, err)
}
