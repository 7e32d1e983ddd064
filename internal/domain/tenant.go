package domain

import "github.com/shopspring/decimal"

// TenantCandidate is a read-only entry from the tenant directory. The matching
// engine never mutates it.
type TenantCandidate struct {
	TenantID           string           `json:"tenant_id"`
	DisplayName        string           `json:"display_name"`
	Phone              string           `json:"phone,omitempty"`
	ExpectedRentAmount *decimal.Decimal `json:"expected_rent_amount,omitempty"`
	PropertyRef        string           `json:"property_ref"`
}
