package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressValid(t *testing.T) {
	assert.True(t, DefaultFarmer.Valid())
	assert.True(t, Address("0xAbCd111111111111111111111111111111111111").Valid())
	assert.False(t, Address("").Valid())
	assert.False(t, Address("0x123").Valid())
	assert.False(t, Address("1111111111111111111111111111111111111111").Valid())
	assert.False(t, Address("0xZZ11111111111111111111111111111111111111").Valid())
}

func TestAddressEqual(t *testing.T) {
	a := Address("0xABCDEF1234567890abcdef1234567890ABCDEF12")
	b := Address("0xabcdef1234567890ABCDEF1234567890abcdef12")
	assert.True(t, a.Equal(b))

	// Empty addresses never match, even each other.
	assert.False(t, Address("").Equal(""))
	assert.False(t, Address("").Equal(a))
}

func TestHolderRole(t *testing.T) {
	b := Batch{
		CurrentOwner: DefaultFarmer,
		Farmer:       DefaultFarmer,
		Distributor:  DefaultDistributor,
		Retailer:     DefaultRetailer,
		Consumer:     DefaultConsumer,
	}
	assert.Equal(t, RoleFarmer, b.HolderRole())

	b.CurrentOwner = DefaultDistributor
	assert.Equal(t, RoleDistributor, b.HolderRole())

	b.CurrentOwner = Address("0x9999999999999999999999999999999999999999")
	assert.Equal(t, RoleUnknown, b.HolderRole())
}

func TestHolderRoleFarmerWinsOnSharedAddress(t *testing.T) {
	// When one account plays two roles the earlier role in the chain wins.
	shared := DefaultFarmer
	b := Batch{
		CurrentOwner: shared,
		Farmer:       shared,
		Distributor:  shared,
		Retailer:     DefaultRetailer,
		Consumer:     DefaultConsumer,
	}
	assert.Equal(t, RoleFarmer, b.HolderRole())
}

func TestRoleNext(t *testing.T) {
	assert.Equal(t, RoleDistributor, RoleFarmer.Next())
	assert.Equal(t, RoleRetailer, RoleDistributor.Next())
	assert.Equal(t, RoleConsumer, RoleRetailer.Next())
	assert.Equal(t, RoleUnknown, RoleConsumer.Next())
	assert.Equal(t, RoleUnknown, RoleUnknown.Next())
}

func TestViewMinPriceFallsBackToBase(t *testing.T) {
	b := Batch{BasePriceINR: 2500}
	v := b.View()
	assert.Equal(t, uint64(2500), v.Prices.MinINR)
	assert.Equal(t, uint64(2500), v.MinPriceINR)

	b.MinPriceINR = 3000
	v = b.View()
	assert.Equal(t, uint64(3000), v.Prices.MinINR)
}

func TestViewDerivedFields(t *testing.T) {
	b := Batch{
		CurrentOwner:          DefaultDistributor,
		Farmer:                DefaultFarmer,
		Distributor:           DefaultDistributor,
		Retailer:              DefaultRetailer,
		Consumer:              DefaultConsumer,
		BasePriceINR:          1000,
		HarvestDate:           1700000000,
		CreatedAt:             1700000100,
		BoughtByDistributorAt: 1700000200,
	}
	v := b.View()
	assert.Equal(t, DefaultDistributor, v.CurrentHolder)
	assert.Equal(t, RoleDistributor, v.CurrentHolderRole)
	assert.Equal(t, int64(1700000000), v.Dates.Harvest)
	assert.Equal(t, int64(1700000200), v.Dates.BoughtByDistributor)
}

func TestInlineMetadataRoundTrip(t *testing.T) {
	reg := Registration{
		CropType:     "Turmeric",
		QuantityKg:   500,
		BasePriceINR: 12000,
		HarvestDate:  1700000000,
	}
	cid := InlineMetadataCID(reg, 11000)
	require.Contains(t, cid, "meta:")

	b := Batch{MetadataCID: cid}
	b.PatchFromInlineMetadata()
	assert.Equal(t, "Turmeric", b.CropType)
	assert.Equal(t, uint64(500), b.QuantityKg)
	assert.Equal(t, uint64(12000), b.BasePriceINR)
	assert.Equal(t, int64(1700000000), b.HarvestDate)
	assert.Equal(t, uint64(11000), b.MinPriceINR)
}

func TestInlineMetadataDoesNotOverwrite(t *testing.T) {
	cid := InlineMetadataCID(Registration{CropType: "Rice", QuantityKg: 100}, 0)
	b := Batch{MetadataCID: cid, CropType: "Wheat", QuantityKg: 0}
	b.PatchFromInlineMetadata()
	assert.Equal(t, "Wheat", b.CropType)
	assert.Equal(t, uint64(100), b.QuantityKg)
}

func TestInlineMetadataMalformedIgnored(t *testing.T) {
	b := Batch{MetadataCID: "meta:{not json"}
	b.PatchFromInlineMetadata()
	assert.Empty(t, b.CropType)

	b = Batch{MetadataCID: "QmSomeContentHash"}
	b.PatchFromInlineMetadata()
	assert.Equal(t, "QmSomeContentHash", b.MetadataCID)
}
