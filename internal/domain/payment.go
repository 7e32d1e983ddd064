package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the permanent record created by confirming a match. Exactly one
// payment may ever exist per receipt id.
type Payment struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	PropertyRef string          `json:"property_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	ReceiptID   string          `json:"receipt_id"`
	PayerPhone  string          `json:"payer_phone,omitempty"`
	PayerName   string          `json:"payer_name,omitempty"`
	Description string          `json:"description"`
	Confidence  int             `json:"confidence"`
	PaidAt      time.Time       `json:"paid_at"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// UploadRun is the persisted summary of one processed statement upload.
type UploadRun struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	FileHash       string    `json:"file_hash"`
	RowsParsed     int       `json:"rows_parsed"`
	RowsSkipped    int       `json:"rows_skipped"`
	EligibleCount  int       `json:"eligible_count"`
	MatchedCount   int       `json:"matched_count"`
	UnmatchedCount int       `json:"unmatched_count"`
	ReceivedAt     time.Time `json:"received_at"`
}
