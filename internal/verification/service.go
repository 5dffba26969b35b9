// Package verification handles field-verification intake from collection
// centers. Submissions never store a raw Aadhaar number; it is masked to the
// last four digits before anything persists.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agritruth/trace/internal/moderation"
)

// ErrMissingFields marks a submission without the required verification data.
var ErrMissingFields = errors.New("missing required verification data")

// Submission is the raw payload from a verification center.
type Submission struct {
	FarmerAadhaar        string   `json:"farmerAadhaar"`
	EstimatedQuantity    int      `json:"estimatedQuantity"`
	SampleWeight         float64  `json:"sampleWeight"`
	QualityGrade         string   `json:"qualityGrade"`
	MoistureContent      *float64 `json:"moistureContent,omitempty"`
	VerificationCenterID string   `json:"verificationCenterId,omitempty"`
	VerifierPhoto        string   `json:"verifierPhoto,omitempty"`
	TestingNotes         string   `json:"testingNotes,omitempty"`
}

// Record is the stored verification result, Aadhaar already masked.
type Record struct {
	FarmerAadhaar        string    `json:"farmerAadhaar"`
	EstimatedQuantity    int       `json:"estimatedQuantity"`
	SampleWeight         float64   `json:"sampleWeight"`
	QualityGrade         string    `json:"qualityGrade"`
	MoistureContent      *float64  `json:"moistureContent,omitempty"`
	VerificationCenterID string    `json:"verificationCenterId,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
	VerifierPhoto        string    `json:"verifierPhoto,omitempty"`
	TestingNotes         string    `json:"testingNotes,omitempty"`
	Status               string    `json:"status"`
}

// Service validates submissions and hands them to the moderation queue.
type Service struct {
	queue *moderation.Queue
	now   func() time.Time
}

func NewService(queue *moderation.Queue) *Service {
	return &Service{queue: queue, now: time.Now}
}

// Submit validates and records a verification, returning the generated
// batch reference and the queued moderation item.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, Record, moderation.Item, error) {
	if sub.FarmerAadhaar == "" || sub.EstimatedQuantity <= 0 || sub.SampleWeight <= 0 || sub.QualityGrade == "" {
		return "", Record{}, moderation.Item{}, ErrMissingFields
	}
	now := s.now().UTC()
	masked := MaskAadhaar(sub.FarmerAadhaar)
	record := Record{
		FarmerAadhaar:        masked,
		EstimatedQuantity:    sub.EstimatedQuantity,
		SampleWeight:         sub.SampleWeight,
		QualityGrade:         sub.QualityGrade,
		MoistureContent:      sub.MoistureContent,
		VerificationCenterID: sub.VerificationCenterID,
		Timestamp:            now,
		VerifierPhoto:        sub.VerifierPhoto,
		TestingNotes:         sub.TestingNotes,
		Status:               "verified",
	}
	batchRef := fmt.Sprintf("OD2025-%s-%d", lastDigits(sub.FarmerAadhaar, 4), now.UnixMilli())
	summary := fmt.Sprintf("Grade %s, Qty %d", sub.QualityGrade, sub.EstimatedQuantity)
	item, err := s.queue.Enqueue(ctx, batchRef, masked, summary)
	if err != nil {
		return "", Record{}, moderation.Item{}, err
	}
	return batchRef, record, item, nil
}

// MaskAadhaar replaces every digit except the last four with 'X',
// leaving non-digit separators in place.
func MaskAadhaar(s string) string {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	keepFrom := total - 4
	out := []rune(s)
	seen := 0
	for i, r := range out {
		if r >= '0' && r <= '9' {
			if seen < keepFrom {
				out[i] = 'X'
			}
			seen++
		}
	}
	return string(out)
}

func lastDigits(s string, n int) string {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}
