package ingestion

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/domain"
	"github.com/nyumbani/rentmatch/internal/matching"
	"github.com/nyumbani/rentmatch/internal/repository"
	"github.com/nyumbani/rentmatch/internal/statement"
)

// IngestResult is returned from a successfully processed upload.
type IngestResult struct {
	RunID           string `json:"run_id"`
	RowsParsed      int    `json:"rows_parsed"`
	RowsSkipped     int    `json:"rows_skipped"`
	EligibleCount   int    `json:"eligible_count"`
	MatchedCount    int    `json:"matched_count"`
	UnmatchedCount  int    `json:"unmatched_count"`
	Warnings        int    `json:"warnings"`
	DuplicateUpload bool   `json:"duplicate_upload"`
}

// run is one processed upload held for operator review. Runs live in memory
// only; each upload is reprocessed from scratch. The struct stays private:
// its Result is mutable and all access must go through the service lock.
type run struct {
	id         string
	filename   string
	result     *matching.RunResult
	receivedAt time.Time
}

// RunView is a point-in-time copy of a run, safe to walk and encode while
// overrides keep landing on the live run.
type RunView struct {
	ID         string             `json:"id"`
	Filename   string             `json:"filename"`
	Result     matching.RunResult `json:"result"`
	ReceivedAt time.Time          `json:"received_at"`
}

// Service processes statement uploads: parse, match against the tenant
// directory, persist the upload summary, and retain the run for review.
type Service struct {
	parser     *statement.Parser
	resolver   *matching.Resolver
	tenantRepo *repository.TenantRepo
	uploadRepo *repository.UploadRepo
	log        *logrus.Entry

	mu   sync.RWMutex
	runs map[string]*run
}

func NewService(
	parser *statement.Parser,
	resolver *matching.Resolver,
	tenantRepo *repository.TenantRepo,
	uploadRepo *repository.UploadRepo,
) *Service {
	return &Service{
		parser:     parser,
		resolver:   resolver,
		tenantRepo: tenantRepo,
		uploadRepo: uploadRepo,
		log:        logrus.WithField("component", "ingestion"),
		runs:       make(map[string]*run),
	}
}

// ProcessStatement runs the full pipeline for one uploaded statement.
func (s *Service) ProcessStatement(data []byte, filename string) (*IngestResult, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	duplicate, err := s.uploadRepo.ExistsByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if duplicate {
		s.log.WithField("filename", filename).Warn("statement content seen before, reprocessing")
	}

	parsed, err := s.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}

	tenants, err := s.tenantRepo.List()
	if err != nil {
		return nil, fmt.Errorf("load tenant directory: %w", err)
	}

	eligible := parsed.Eligible()
	result := s.resolver.Resolve(eligible, tenants)

	rn := &run{
		id:         uuid.NewString(),
		filename:   filename,
		result:     result,
		receivedAt: time.Now().UTC(),
	}

	if err := s.uploadRepo.Insert(&domain.UploadRun{
		ID:             rn.id,
		Filename:       filename,
		FileHash:       hash,
		RowsParsed:     len(parsed.Transactions),
		RowsSkipped:    parsed.RowsSkipped,
		EligibleCount:  len(eligible),
		MatchedCount:   result.Stats.MatchedCount,
		UnmatchedCount: result.Stats.UnmatchedCount,
		ReceivedAt:     rn.receivedAt,
	}); err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.mu.Lock()
	s.runs[rn.id] = rn
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"run_id":    rn.id,
		"filename":  filename,
		"parsed":    len(parsed.Transactions),
		"skipped":   parsed.RowsSkipped,
		"eligible":  len(eligible),
		"matched":   result.Stats.MatchedCount,
		"unmatched": result.Stats.UnmatchedCount,
	}).Info("statement processed")

	return &IngestResult{
		RunID:           rn.id,
		RowsParsed:      len(parsed.Transactions),
		RowsSkipped:     parsed.RowsSkipped,
		EligibleCount:   len(eligible),
		MatchedCount:    result.Stats.MatchedCount,
		UnmatchedCount:  result.Stats.UnmatchedCount,
		Warnings:        len(result.Warnings),
		DuplicateUpload: duplicate,
	}, nil
}

// getRun looks up a live run. Callers must hold s.mu.
func (s *Service) getRun(id string) (*run, error) {
	rn, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return rn, nil
}

// SnapshotRun returns a copy of a run held for review. The copy shares no
// slices with the live run, so callers may walk or encode it while overrides
// land concurrently.
func (s *Service) SnapshotRun(id string) (*RunView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rn, err := s.getRun(id)
	if err != nil {
		return nil, err
	}
	return &RunView{
		ID:         rn.id,
		Filename:   rn.filename,
		Result:     rn.result.Snapshot(),
		ReceivedAt: rn.receivedAt,
	}, nil
}

// FindMatch returns a copy of the match for a receipt within a run.
func (s *Service) FindMatch(runID, receiptID string) (*domain.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rn, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	match := rn.result.FindMatch(receiptID)
	if match == nil {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *match
	return &copied, nil
}

// OverrideMatch assigns an unmatched transaction in a run to a tenant chosen
// by the operator.
func (s *Service) OverrideMatch(runID, receiptID, tenantID string) (*domain.MatchResult, error) {
	tenant, err := s.tenantRepo.GetByID(tenantID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rn, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	match, err := rn.result.Override(receiptID, *tenant)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"run_id":     runID,
		"receipt_id": receiptID,
		"tenant_id":  tenantID,
	}).Info("manual match applied")

	return match, nil
}
