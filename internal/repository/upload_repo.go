package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// UploadRepo keeps per-upload summaries so ingestion history survives
// restarts. The parsed transactions themselves are per-run state and are not
// persisted here.
type UploadRepo struct {
	db *sql.DB
}

func NewUploadRepo(db *sql.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

func (r *UploadRepo) Insert(run *domain.UploadRun) error {
	_, err := r.db.Exec(
		`INSERT INTO upload_runs
		(id, filename, file_hash, rows_parsed, rows_skipped, eligible_count,
		 matched_count, unmatched_count, received_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Filename, run.FileHash, run.RowsParsed, run.RowsSkipped,
		run.EligibleCount, run.MatchedCount, run.UnmatchedCount,
		run.ReceivedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert upload run: %w", err)
	}
	return nil
}

// ExistsByHash reports whether a statement with the same content has been
// processed before. Re-uploads are allowed (the confirmation gate guards
// against double payments) but get flagged for the operator.
func (r *UploadRepo) ExistsByHash(hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM upload_runs WHERE file_hash = ?)", hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("upload exists: %w", err)
	}
	return exists, nil
}

func (r *UploadRepo) List() ([]domain.UploadRun, error) {
	rows, err := r.db.Query("SELECT * FROM upload_runs ORDER BY received_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var runs []domain.UploadRun
	for rows.Next() {
		run, err := scanUploadRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanUploadRun(rows *sql.Rows) (*domain.UploadRun, error) {
	var run domain.UploadRun
	var receivedAt string

	err := rows.Scan(
		&run.ID, &run.Filename, &run.FileHash, &run.RowsParsed,
		&run.RowsSkipped, &run.EligibleCount, &run.MatchedCount,
		&run.UnmatchedCount, &receivedAt,
	)
	if err != nil {
		return nil, err
	}
	run.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
	return &run, nil
}
