package domain

import "github.com/shopspring/decimal"

type MatchSource string

const (
	SourceAuto   MatchSource = "AUTO"
	SourceManual MatchSource = "MANUAL"
)

// MatchResult pairs one transaction with at most one tenant candidate.
//
// Score is the raw additive signal total and is deliberately not capped (the
// maximum attainable is 160); callers may rank on it. Confidence is the same
// value clamped to 100 and is what gets stored on payment records.
type MatchResult struct {
	Transaction Transaction      `json:"transaction"`
	Tenant      *TenantCandidate `json:"tenant,omitempty"`
	Score       int              `json:"score"`
	Confidence  int              `json:"confidence"`
	Source      MatchSource      `json:"source"`
}

// AmbiguousMatchWarning records that two or more candidates tied at the
// maximum score for a transaction. The match still goes through; the operator
// should review it.
type AmbiguousMatchWarning struct {
	ReceiptID string   `json:"receipt_id"`
	Score     int      `json:"score"`
	TenantIDs []string `json:"tenant_ids"`
}

// RunStats summarises one matching pass over an uploaded statement.
type RunStats struct {
	TotalEligible   int             `json:"total_eligible_transactions"`
	MatchedCount    int             `json:"matched_count"`
	UnmatchedCount  int             `json:"unmatched_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	MatchedAmount   decimal.Decimal `json:"matched_amount"`
	UnmatchedAmount decimal.Decimal `json:"unmatched_amount"`
}
