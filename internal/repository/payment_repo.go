package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// PaymentRepo persists confirmed payments. It implements the confirmation
// gate's Sink: the receipt_id UNIQUE constraint plus INSERT OR IGNORE makes
// the duplicate check atomic with the write.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) PaymentExists(ctx context.Context, receiptID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM payments WHERE receipt_id = ?)", receiptID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("payment exists: %w", err)
	}
	return exists, nil
}

func (r *PaymentRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payments
		(id, tenant_id, property_ref, amount, method, receipt_id, payer_phone,
		 payer_name, description, confidence, paid_at, recorded_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.TenantID, p.PropertyRef, p.Amount.String(), p.Method,
		p.ReceiptID, p.PayerPhone, p.PayerName, p.Description, p.Confidence,
		p.PaidAt.Format(time.RFC3339), p.RecordedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if ra == 0 {
		return &domain.DuplicateReceiptError{ReceiptID: p.ReceiptID}
	}
	return nil
}

type PaymentFilter struct {
	TenantID string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *PaymentRepo) List(f PaymentFilter) ([]domain.Payment, int, error) {
	where, args := buildPaymentWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM payments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := "SELECT * FROM payments" + where + " ORDER BY paid_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}

// PaymentTotals holds aggregate payment figures for the dashboard.
type PaymentTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Totals sums payment amounts in Go: amounts are stored as decimal strings,
// not floats, so SQL SUM does not apply.
func (r *PaymentRepo) Totals() (*PaymentTotals, error) {
	rows, err := r.db.Query("SELECT amount FROM payments")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	totals := &PaymentTotals{TotalAmount: decimal.Zero}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", raw, err)
		}
		totals.Count++
		totals.TotalAmount = totals.TotalAmount.Add(amount)
	}
	return totals, rows.Err()
}

// --- helpers ---

func buildPaymentWhere(f PaymentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.TenantID != "" {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.From != nil {
		clauses = append(clauses, "paid_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "paid_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPayment(rows *sql.Rows) (*domain.Payment, error) {
	var p domain.Payment
	var amount, paidAt, recordedAt string
	var payerPhone, payerName sql.NullString

	err := rows.Scan(
		&p.ID, &p.TenantID, &p.PropertyRef, &amount, &p.Method, &p.ReceiptID,
		&payerPhone, &payerName, &p.Description, &p.Confidence,
		&paidAt, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	p.PayerPhone = payerPhone.String
	p.PayerName = payerName.String
	p.PaidAt, _ = time.Parse(time.RFC3339, paidAt)
	p.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)

	return &p, nil
}
