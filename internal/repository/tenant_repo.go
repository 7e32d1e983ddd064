package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// TenantRepo is the tenant directory store. The matching engine only reads
// from it.
type TenantRepo struct {
	db *sql.DB
}

func NewTenantRepo(db *sql.DB) *TenantRepo {
	return &TenantRepo{db: db}
}

func (r *TenantRepo) BulkInsert(tenants []domain.TenantCandidate) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR IGNORE INTO tenants
		(tenant_id, display_name, phone, expected_rent_amount, property_ref)
		VALUES (?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range tenants {
		t := &tenants[i]
		res, err := stmt.Exec(
			t.TenantID, t.DisplayName, nullableString(t.Phone),
			nullableDecimal(t.ExpectedRentAmount), t.PropertyRef,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *TenantRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tenants").Scan(&count)
	return count, err
}

// List returns the full directory ordered by tenant id, so matching runs see
// candidates in a stable order.
func (r *TenantRepo) List() ([]domain.TenantCandidate, error) {
	rows, err := r.db.Query("SELECT * FROM tenants ORDER BY tenant_id")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var tenants []domain.TenantCandidate
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepo) GetByID(id string) (*domain.TenantCandidate, error) {
	rows, err := r.db.Query("SELECT * FROM tenants WHERE tenant_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrTenantNotFound
	}
	return scanTenant(rows)
}

// --- helpers ---

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanTenant(rows *sql.Rows) (*domain.TenantCandidate, error) {
	var t domain.TenantCandidate
	var phone, expected sql.NullString

	if err := rows.Scan(&t.TenantID, &t.DisplayName, &phone, &expected, &t.PropertyRef); err != nil {
		return nil, err
	}

	t.Phone = phone.String
	if expected.Valid {
		d, err := decimal.NewFromString(expected.String)
		if err != nil {
			return nil, fmt.Errorf("parse expected rent %q: %w", expected.String, err)
		}
		t.ExpectedRentAmount = &d
	}
	return &t, nil
}
