package statement

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// Column layout of the mobile-money statement export.
//
//	receipt id, completion time, details, status, paid in, withdrawn, balance
const (
	colReceiptID = iota
	colCompletedAt
	colDetails
	colStatus
	colPaidIn
	colWithdrawn
	colBalance
)

// Completion-time layouts tried in order. The provider's export uses
// day-first dates; ISO layouts cover re-exported files.
var timeLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Parser turns raw statement text into transactions.
type Parser struct {
	delimiter rune
	log       *logrus.Entry
}

// NewParser creates a parser for statements using the given field delimiter.
func NewParser(delimiter rune) *Parser {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Parser{
		delimiter: delimiter,
		log:       logrus.WithField("component", "statement"),
	}
}

// ParseResult holds all parsed rows plus diagnostics. Matching only ever sees
// the Eligible subset; the full list is retained for operator display.
type ParseResult struct {
	Transactions []domain.Transaction `json:"transactions"`
	RowsSkipped  int                  `json:"rows_skipped"`
}

// Eligible returns the transactions that qualify for matching: credits with a
// positive amount.
func (r *ParseResult) Eligible() []domain.Transaction {
	var out []domain.Transaction
	for _, t := range r.Transactions {
		if t.Eligible() {
			out = append(out, t)
		}
	}
	return out
}

// Parse decodes newline-delimited statement text. The first row is a header
// and is discarded. Malformed rows are skipped and counted, never fatal; an
// input that yields no header at all is ErrStatementUnreadable.
func (p *Parser) Parse(data []byte) (*ParseResult, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, domain.ErrStatementUnreadable
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = p.delimiter
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Header row is discarded.
	if _, err := reader.Read(); err != nil {
		return nil, domain.ErrStatementUnreadable
	}

	result := &ParseResult{}
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.log.WithField("line", lineNum).WithError(err).Warn("skipping undecodable row")
			result.RowsSkipped++
			continue
		}

		txn, ok := p.parseRow(row)
		if !ok {
			p.log.WithField("line", lineNum).Warn("skipping malformed row")
			result.RowsSkipped++
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

// parseRow builds one transaction from a statement row. It reports false for
// rows without a usable receipt id, timestamp, or amount.
func (p *Parser) parseRow(row []string) (domain.Transaction, bool) {
	receiptID := field(row, colReceiptID)
	if receiptID == "" {
		return domain.Transaction{}, false
	}

	occurredAt, ok := parseCompletionTime(field(row, colCompletedAt))
	if !ok {
		return domain.Transaction{}, false
	}

	details := field(row, colDetails)

	direction := domain.DirectionDebit
	amount, ok := parseAmount(field(row, colPaidIn))
	if ok && amount.IsPositive() {
		direction = domain.DirectionCredit
	} else {
		amount, ok = parseAmount(field(row, colWithdrawn))
		if !ok {
			return domain.Transaction{}, false
		}
		amount = amount.Abs()
	}

	phone, sender := Extract(details)

	return domain.Transaction{
		ReceiptID:           receiptID,
		OccurredAt:          occurredAt,
		RawDescription:      details,
		Direction:           direction,
		Amount:              amount,
		ExtractedPhone:      phone,
		ExtractedSenderName: sender,
		MatchStatus:         domain.StatusUnresolved,
	}, true
}

// field returns the cleaned value at index i, or "" when the row is short.
// Surrounding quote characters survive lazy CSV decoding and are stripped.
func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[i]), `"`)
}

func parseCompletionTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount parses a statement amount field. Thousands separators inside
// quoted fields ("5,000.00") are removed first. A missing field is zero.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
