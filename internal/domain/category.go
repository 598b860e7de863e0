package domain

// Category is a fixed topic tag assigned to a stack at creation.
type Category string

// Known stack categories.
const (
	CategoryDeFi           Category = "defi"
	CategoryBlockchain     Category = "blockchain"
	CategoryAI             Category = "ai"
	CategoryGovernance     Category = "governance"
	CategoryInfrastructure Category = "infrastructure"
	CategoryIdentity       Category = "identity"
	CategorySocial         Category = "social"
	CategoryNFT            Category = "nft"
	CategorySecurity       Category = "security"
	CategoryOther          Category = "other"
)

// Categories lists all known categories in display order.
var Categories = []Category{
	CategoryDeFi,
	CategoryBlockchain,
	CategoryAI,
	CategoryGovernance,
	CategoryInfrastructure,
	CategoryIdentity,
	CategorySocial,
	CategoryNFT,
	CategorySecurity,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
