package matching

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// MatchThreshold is the minimum score a candidate needs to become a
// transaction's auto-match.
const MatchThreshold = 60

// Resolver selects the best candidate per transaction and partitions a run
// into matched and unmatched sets.
type Resolver struct {
	scorer   *Scorer
	minScore int
	log      *logrus.Entry
}

func NewResolver(scorer *Scorer, minScore int) *Resolver {
	if minScore <= 0 {
		minScore = MatchThreshold
	}
	return &Resolver{
		scorer:   scorer,
		minScore: minScore,
		log:      logrus.WithField("component", "matching"),
	}
}

// RunResult is the output of one matching pass, kept for operator review
// until the statement's matches are confirmed or discarded.
type RunResult struct {
	Matched   []domain.MatchResult           `json:"matched"`
	Unmatched []domain.Transaction           `json:"unmatched"`
	Stats     domain.RunStats                `json:"stats"`
	Warnings  []domain.AmbiguousMatchWarning `json:"warnings,omitempty"`
}

// Resolve scores every eligible transaction against every candidate and keeps
// the maximum scorer, subject to the acceptance threshold. Ties at the
// maximum are broken by lexicographically smallest tenant id so the outcome
// does not depend on directory ordering; each tie is also recorded as an
// AmbiguousMatchWarning for the operator.
func (r *Resolver) Resolve(eligible []domain.Transaction, candidates []domain.TenantCandidate) *RunResult {
	result := &RunResult{
		Stats: domain.RunStats{
			TotalEligible:   len(eligible),
			TotalAmount:     decimal.Zero,
			MatchedAmount:   decimal.Zero,
			UnmatchedAmount: decimal.Zero,
		},
	}

	for _, txn := range eligible {
		result.Stats.TotalAmount = result.Stats.TotalAmount.Add(txn.Amount)

		best, tied := r.bestCandidate(txn, candidates)
		if best == nil || tied[0].score < r.minScore {
			txn.MatchStatus = domain.StatusUnmatched
			txn.Confidence = 0
			result.Unmatched = append(result.Unmatched, txn)
			result.Stats.UnmatchedCount++
			result.Stats.UnmatchedAmount = result.Stats.UnmatchedAmount.Add(txn.Amount)
			continue
		}

		score := tied[0].score
		if len(tied) > 1 {
			ids := make([]string, len(tied))
			for i, t := range tied {
				ids[i] = t.candidate.TenantID
			}
			result.Warnings = append(result.Warnings, domain.AmbiguousMatchWarning{
				ReceiptID: txn.ReceiptID,
				Score:     score,
				TenantIDs: ids,
			})
			r.log.WithFields(logrus.Fields{
				"receipt_id": txn.ReceiptID,
				"score":      score,
				"tenants":    ids,
			}).Warn("ambiguous match, first by tenant id wins")
		}

		txn.MatchStatus = domain.StatusAutoMatched
		txn.MatchedTenantID = best.TenantID
		txn.Confidence = clampConfidence(score)

		result.Matched = append(result.Matched, domain.MatchResult{
			Transaction: txn,
			Tenant:      best,
			Score:       score,
			Confidence:  txn.Confidence,
			Source:      domain.SourceAuto,
		})
		result.Stats.MatchedCount++
		result.Stats.MatchedAmount = result.Stats.MatchedAmount.Add(txn.Amount)
	}

	r.log.WithFields(logrus.Fields{
		"eligible":  result.Stats.TotalEligible,
		"matched":   result.Stats.MatchedCount,
		"unmatched": result.Stats.UnmatchedCount,
		"warnings":  len(result.Warnings),
	}).Info("matching pass complete")

	return result
}

type scoredCandidate struct {
	candidate domain.TenantCandidate
	score     int
}

// bestCandidate returns the winning candidate and all candidates tied at the
// maximum score. The winner is the tied candidate with the smallest tenant
// id.
func (r *Resolver) bestCandidate(txn domain.Transaction, candidates []domain.TenantCandidate) (*domain.TenantCandidate, []scoredCandidate) {
	var tied []scoredCandidate

	for _, c := range candidates {
		score := r.scorer.Score(txn, c)
		switch {
		case len(tied) == 0 || score > tied[0].score:
			tied = []scoredCandidate{{candidate: c, score: score}}
		case score == tied[0].score:
			tied = append(tied, scoredCandidate{candidate: c, score: score})
		}
	}

	if len(tied) == 0 {
		return nil, nil
	}

	winner := tied[0]
	for _, t := range tied[1:] {
		if t.candidate.TenantID < winner.candidate.TenantID {
			winner = t
		}
	}
	return &winner.candidate, tied
}

// Override assigns an unmatched transaction to a tenant by operator decision.
// The scorer is not re-run; manual matches always carry confidence 100.
func (rr *RunResult) Override(receiptID string, tenant domain.TenantCandidate) (*domain.MatchResult, error) {
	for i, txn := range rr.Unmatched {
		if txn.ReceiptID != receiptID {
			continue
		}

		rr.Unmatched = append(rr.Unmatched[:i], rr.Unmatched[i+1:]...)

		txn.MatchStatus = domain.StatusManuallyMatched
		txn.MatchedTenantID = tenant.TenantID
		txn.Confidence = 100

		match := domain.MatchResult{
			Transaction: txn,
			Tenant:      &tenant,
			Score:       100,
			Confidence:  100,
			Source:      domain.SourceManual,
		}
		rr.Matched = append(rr.Matched, match)

		rr.Stats.MatchedCount++
		rr.Stats.UnmatchedCount--
		rr.Stats.MatchedAmount = rr.Stats.MatchedAmount.Add(txn.Amount)
		rr.Stats.UnmatchedAmount = rr.Stats.UnmatchedAmount.Sub(txn.Amount)

		return &match, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// Snapshot returns a copy of the result whose slices are detached from the
// original, so further overrides do not show through.
func (rr *RunResult) Snapshot() RunResult {
	out := RunResult{Stats: rr.Stats}
	if len(rr.Matched) > 0 {
		out.Matched = append([]domain.MatchResult(nil), rr.Matched...)
	}
	if len(rr.Unmatched) > 0 {
		out.Unmatched = append([]domain.Transaction(nil), rr.Unmatched...)
	}
	if len(rr.Warnings) > 0 {
		out.Warnings = append([]domain.AmbiguousMatchWarning(nil), rr.Warnings...)
	}
	return out
}

// FindMatch returns the match for the given receipt id, or nil.
func (rr *RunResult) FindMatch(receiptID string) *domain.MatchResult {
	for i := range rr.Matched {
		if rr.Matched[i].Transaction.ReceiptID == receiptID {
			return &rr.Matched[i]
		}
	}
	return nil
}

func clampConfidence(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
