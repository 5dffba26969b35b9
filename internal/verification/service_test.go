package verification

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agritruth/trace/internal/moderation"
)

func TestMaskAadhaar(t *testing.T) {
	assert.Equal(t, "XXXXXXXX9012", MaskAadhaar("123456789012"))
	assert.Equal(t, "XXXX-XXXX-9012", MaskAadhaar("1234-5678-9012"))
	assert.Equal(t, "XXXX XXXX 9012", MaskAadhaar("1234 5678 9012"))
	// Four or fewer digits are kept as-is.
	assert.Equal(t, "9012", MaskAadhaar("9012"))
	assert.Equal(t, "12", MaskAadhaar("12"))
	assert.Equal(t, "", MaskAadhaar(""))
}

func TestSubmitMasksAndQueues(t *testing.T) {
	ctx := context.Background()
	queue := moderation.NewQueue(moderation.NewMemoryStore())
	svc := NewService(queue)

	batchRef, record, item, err := svc.Submit(ctx, Submission{
		FarmerAadhaar:     "1234-5678-9012",
		EstimatedQuantity: 500,
		SampleWeight:      2.5,
		QualityGrade:      "A+",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(batchRef, "OD2025-9012-"), "batch ref %q", batchRef)
	assert.Equal(t, "XXXX-XXXX-9012", record.FarmerAadhaar)
	assert.Equal(t, "verified", record.Status)
	assert.NotContains(t, record.FarmerAadhaar, "1234")

	assert.Equal(t, batchRef, item.BatchID)
	assert.Equal(t, "XXXX-XXXX-9012", item.FarmerAadhaar)
	assert.Equal(t, "Grade A+, Qty 500", item.Summary)
	assert.Equal(t, moderation.StatusPending, item.Status)

	items, err := queue.List(ctx, moderation.StatusPending)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(moderation.NewQueue(moderation.NewMemoryStore()))

	cases := []Submission{
		{EstimatedQuantity: 1, SampleWeight: 1, QualityGrade: "A"},
		{FarmerAadhaar: "1234", SampleWeight: 1, QualityGrade: "A"},
		{FarmerAadhaar: "1234", EstimatedQuantity: 1, QualityGrade: "A"},
		{FarmerAadhaar: "1234", EstimatedQuantity: 1, SampleWeight: 1},
	}
	for _, sub := range cases {
		_, _, _, err := svc.Submit(ctx, sub)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}
