package domain

import (
	"encoding/json"
	"strings"
)

// VerificationStatus values stored on the ledger tuple.
const (
	VerificationNone     uint8 = 0
	VerificationApproved uint8 = 1
	VerificationRejected uint8 = 2
)

// Batch is the on-ledger record of one traceable produce lot. Identity and
// registration fields are write-once; custody and pricing mutate through the
// custody engine only. Timestamps are unix seconds, zero meaning "not yet".
type Batch struct {
	ID           uint64  `json:"id"`
	CurrentOwner Address `json:"currentOwner"`
	Farmer       Address `json:"farmer"`
	Distributor  Address `json:"distributor"`
	Retailer     Address `json:"retailer"`
	Consumer     Address `json:"consumer"`

	CropType     string `json:"cropType"`
	QuantityKg   uint64 `json:"quantityKg"`
	BasePriceINR uint64 `json:"basePriceINR"`
	HarvestDate  int64  `json:"harvestDate"`
	MetadataCID  string `json:"metadataCID"`
	CreatedAt    int64  `json:"createdAt"`
	Exists       bool   `json:"exists"`

	MinPriceINR           uint64 `json:"minPriceINR"`
	PriceByDistributorINR uint64 `json:"priceByDistributorINR"`
	PriceByRetailerINR    uint64 `json:"priceByRetailerINR"`

	BoughtByDistributorAt int64 `json:"boughtByDistributorAt"`
	BoughtByRetailerAt    int64 `json:"boughtByRetailerAt"`
	BoughtByConsumerAt    int64 `json:"boughtByConsumerAt"`

	VerificationStatus uint8   `json:"verificationStatus"`
	VerificationBy     Address `json:"verificationBy,omitempty"`
	VerificationAt     int64   `json:"verificationAt,omitempty"`
}

// Registration carries the write-once fields of a new batch. Farmer may be
// empty, in which case the ledger assigns the registering account.
type Registration struct {
	Farmer       Address `json:"farmer,omitempty"`
	CropType     string  `json:"cropType"`
	QuantityKg   uint64  `json:"quantityKg"`
	BasePriceINR uint64  `json:"basePriceINR"`
	HarvestDate  int64   `json:"harvestDate"`
	MetadataCID  string  `json:"metadataCID,omitempty"`
}

// BatchDates groups the lifecycle timestamps for display.
type BatchDates struct {
	Harvest             int64 `json:"harvest"`
	Created             int64 `json:"created"`
	BoughtByDistributor int64 `json:"boughtByDistributor"`
	BoughtByRetailer    int64 `json:"boughtByRetailer"`
	BoughtByConsumer    int64 `json:"boughtByConsumer"`
}

// BatchPrices groups the pricing ladder for display.
type BatchPrices struct {
	BaseINR          uint64 `json:"baseINR"`
	MinINR           uint64 `json:"minINR"`
	ByDistributorINR uint64 `json:"byDistributorINR"`
	ByRetailerINR    uint64 `json:"byRetailerINR"`
}

// BatchView is the projection returned to API callers: the raw batch plus
// derived fields. It carries no state of its own.
type BatchView struct {
	Batch
	CurrentHolder     Address     `json:"currentHolder"`
	CurrentHolderRole Role        `json:"currentHolderRole"`
	Dates             BatchDates  `json:"dates"`
	Prices            BatchPrices `json:"prices"`
}

// View derives the read-optimized projection of b. MinPriceINR falls back to
// the base price when it was never set explicitly, so callers always see a
// resolvable floor once the base price is positive.
func (b Batch) View() BatchView {
	if b.MinPriceINR == 0 && b.BasePriceINR > 0 {
		b.MinPriceINR = b.BasePriceINR
	}
	return BatchView{
		Batch:             b,
		CurrentHolder:     b.CurrentOwner,
		CurrentHolderRole: b.HolderRole(),
		Dates: BatchDates{
			Harvest:             b.HarvestDate,
			Created:             b.CreatedAt,
			BoughtByDistributor: b.BoughtByDistributorAt,
			BoughtByRetailer:    b.BoughtByRetailerAt,
			BoughtByConsumer:    b.BoughtByConsumerAt,
		},
		Prices: BatchPrices{
			BaseINR:          b.BasePriceINR,
			MinINR:           b.MinPriceINR,
			ByDistributorINR: b.PriceByDistributorINR,
			ByRetailerINR:    b.PriceByRetailerINR,
		},
	}
}

// inlineMetaPrefix marks a metadata CID that is not a content hash but an
// inline-encoded registration payload, written when no off-chain store was
// reachable at registration time.
const inlineMetaPrefix = "meta:"

type inlineMeta struct {
	CropType     string `json:"cropType,omitempty"`
	QuantityKg   uint64 `json:"quantityKg,omitempty"`
	BasePriceINR uint64 `json:"basePriceINR,omitempty,string"`
	HarvestDate  int64  `json:"harvestDate,omitempty"`
	MinPriceINR  uint64 `json:"minPriceINR,omitempty,string"`
}

// InlineMetadataCID encodes a registration as a self-describing metadata
// blob for deployments without an off-chain store.
func InlineMetadataCID(reg Registration, minPriceINR uint64) string {
	raw, _ := json.Marshal(struct {
		Kind string `json:"kind"`
		inlineMeta
	}{
		Kind: "registration",
		inlineMeta: inlineMeta{
			CropType:     reg.CropType,
			QuantityKg:   reg.QuantityKg,
			BasePriceINR: reg.BasePriceINR,
			HarvestDate:  reg.HarvestDate,
			MinPriceINR:  minPriceINR,
		},
	})
	return inlineMetaPrefix + string(raw)
}

// PatchFromInlineMetadata fills sparse registration fields from an inline
// metadata CID. Fields already populated win; a malformed blob is ignored.
func (b *Batch) PatchFromInlineMetadata() {
	if !strings.HasPrefix(b.MetadataCID, inlineMetaPrefix) {
		return
	}
	var m inlineMeta
	if err := json.Unmarshal([]byte(strings.TrimPrefix(b.MetadataCID, inlineMetaPrefix)), &m); err != nil {
		return
	}
	if b.CropType == "" && m.CropType != "" {
		b.CropType = m.CropType
	}
	if b.QuantityKg == 0 && m.QuantityKg > 0 {
		b.QuantityKg = m.QuantityKg
	}
	if b.BasePriceINR == 0 && m.BasePriceINR > 0 {
		b.BasePriceINR = m.BasePriceINR
	}
	if b.HarvestDate == 0 && m.HarvestDate > 0 {
		b.HarvestDate = m.HarvestDate
	}
	if b.MinPriceINR == 0 && m.MinPriceINR > 0 {
		b.MinPriceINR = m.MinPriceINR
	}
}
