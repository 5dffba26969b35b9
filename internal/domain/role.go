package domain

// Role names a position in the custody chain.
type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
	RoleUnknown     Role = "unknown"
)

// ParseRole maps a wire string to a Role, returning RoleUnknown for
// anything unrecognised.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer:
		return Role(s)
	}
	return RoleUnknown
}

// Next returns the role custody progresses to from r, or RoleUnknown when
// r is terminal or not part of the chain.
func (r Role) Next() Role {
	switch r {
	case RoleFarmer:
		return RoleDistributor
	case RoleDistributor:
		return RoleRetailer
	case RoleRetailer:
		return RoleConsumer
	}
	return RoleUnknown
}

// HolderRole derives which role currently holds the batch by matching the
// owner against the four role addresses. Kept as a single named function so
// the custody and projection layers share one definition.
func (b Batch) HolderRole() Role {
	switch {
	case b.CurrentOwner.Equal(b.Farmer):
		return RoleFarmer
	case b.CurrentOwner.Equal(b.Distributor):
		return RoleDistributor
	case b.CurrentOwner.Equal(b.Retailer):
		return RoleRetailer
	case b.CurrentOwner.Equal(b.Consumer):
		return RoleConsumer
	}
	return RoleUnknown
}

// RoleAddress returns the account configured for the given role on this
// batch, or the zero address for roles outside the chain.
func (b Batch) RoleAddress(r Role) Address {
	switch r {
	case RoleFarmer:
		return b.Farmer
	case RoleDistributor:
		return b.Distributor
	case RoleRetailer:
		return b.Retailer
	case RoleConsumer:
		return b.Consumer
	}
	return ZeroAddress
}
