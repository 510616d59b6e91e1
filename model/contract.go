package model

import (
	"time"
)

// ContractType identifies the legal template family a contract belongs to.
type ContractType string

const (
	TypeSupply  ContractType = "supply"
	TypeService ContractType = "service"
	TypeNDA     ContractType = "nda"
	TypeRental  ContractType = "rental"
)

// NormalizeType maps arbitrary input to a known contract type. Unknown or
// empty values degrade to the supply type rather than failing.
func NormalizeType(s string) ContractType {
	switch ContractType(s) {
	case TypeService:
		return TypeService
	case TypeNDA:
		return TypeNDA
	case TypeRental:
		return TypeRental
	default:
		return TypeSupply
	}
}

// Contract represents a bilingual commercial contract between two parties.
type Contract struct {
	ID           string       `json:"id"`
	Supplier     string       `json:"supplier"`
	Buyer        string       `json:"buyer"`
	SupplierVAT  string       `json:"supplier_vat,omitempty"`
	BuyerVAT     string       `json:"buyer_vat,omitempty"`
	SupplierCR   string       `json:"supplier_cr,omitempty"`
	BuyerCR      string       `json:"buyer_cr,omitempty"`
	Items        string       `json:"items"`
	Price        float64      `json:"price"`
	ContractType ContractType `json:"contract_type"`
	ContractText string       `json:"contract_text,omitempty"`
	Provider     string       `json:"provider,omitempty"` // which backend generated the text

	SignedBySupplier  bool   `json:"signed_by_supplier"`
	SignedByBuyer     bool   `json:"signed_by_buyer"`
	SupplierName      string `json:"supplier_name,omitempty"`
	BuyerName         string `json:"buyer_name,omitempty"`
	SupplierSignature string `json:"-"` // base64 image, never in list payloads
	BuyerSignature    string `json:"-"`

	SupplierToken string `json:"-"`
	BuyerToken    string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the display status from the signature flags.
func (c *Contract) Status() string {
	if c.SignedBySupplier && c.SignedByBuyer {
		return StatusComplete
	}
	return StatusPending
}

// Contract status constants
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// Role constants for signing
const (
	RoleSupplier = "supplier"
	RoleBuyer    = "buyer"
)
