package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

type MatchStatus string

const (
	StatusUnresolved      MatchStatus = "UNRESOLVED"
	StatusAutoMatched     MatchStatus = "AUTO_MATCHED"
	StatusManuallyMatched MatchStatus = "MANUALLY_MATCHED"
	StatusUnmatched       MatchStatus = "UNMATCHED"
)

// Transaction is one parsed statement row. It lives only for the duration of
// processing one upload; only a confirmed Payment outlives the run.
type Transaction struct {
	ReceiptID           string          `json:"receipt_id"`
	OccurredAt          time.Time       `json:"occurred_at"`
	RawDescription      string          `json:"raw_description"`
	Direction           Direction       `json:"direction"`
	Amount              decimal.Decimal `json:"amount"`
	ExtractedPhone      string          `json:"extracted_phone,omitempty"`
	ExtractedSenderName string          `json:"extracted_sender_name,omitempty"`
	MatchStatus         MatchStatus     `json:"match_status"`
	MatchedTenantID     string          `json:"matched_tenant_id,omitempty"`

	// Confidence is defined only for matched transactions and is clamped to
	// the 0-100 range; the raw additive score lives on MatchResult.
	Confidence int `json:"confidence"`
}

// Eligible reports whether the transaction is a candidate for matching:
// incoming money with a positive amount.
func (t *Transaction) Eligible() bool {
	return t.Direction == DirectionCredit && t.Amount.IsPositive()
}
