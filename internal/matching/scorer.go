package matching

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// Signal bonuses. All signals are additive; nothing ever lowers a score.
const (
	phoneBonus          = 80
	nameExactBonus      = 60
	nameFirstTokenBonus = 40
	nameLastTokenBonus  = 35
	nameSubstringBonus  = 25
	amountBonus         = 20
)

// Settings are directory-wide scoring parameters.
type Settings struct {
	// CountryPrefix replaces a leading national "0" when normalizing phone
	// numbers for comparison.
	CountryPrefix string

	// AmountTolerance is the maximum absolute difference between a paid
	// amount and the expected rent that still earns the amount bonus.
	AmountTolerance decimal.Decimal
}

func DefaultSettings() Settings {
	return Settings{
		CountryPrefix:   "254",
		AmountTolerance: decimal.NewFromInt(100),
	}
}

// Scorer computes confidence scores between transactions and tenant
// candidates. Scoring is a pure function of its inputs; neither side is ever
// mutated.
type Scorer struct {
	settings Settings
}

func NewScorer(settings Settings) *Scorer {
	if settings.CountryPrefix == "" {
		settings.CountryPrefix = "254"
	}
	if settings.AmountTolerance.IsZero() {
		settings.AmountTolerance = decimal.NewFromInt(100)
	}
	return &Scorer{settings: settings}
}

// NormalizePhone maps a leading national "0" to the international country
// prefix. Already-normalized numbers pass through unchanged, so the function
// is idempotent.
func (s *Scorer) NormalizePhone(phone string) string {
	if strings.HasPrefix(phone, "0") {
		return s.settings.CountryPrefix + phone[1:]
	}
	return phone
}

// Score sums the independent phone, name, and amount signals for a
// transaction/candidate pair. Missing inputs contribute zero. The result is
// not capped; the maximum attainable is 160.
func (s *Scorer) Score(t domain.Transaction, c domain.TenantCandidate) int {
	score := 0

	if t.ExtractedPhone != "" && c.Phone != "" &&
		s.NormalizePhone(t.ExtractedPhone) == s.NormalizePhone(c.Phone) {
		score += phoneBonus
	}

	score += nameScore(t.ExtractedSenderName, c.DisplayName)

	if c.ExpectedRentAmount != nil &&
		t.Amount.Sub(*c.ExpectedRentAmount).Abs().LessThan(s.settings.AmountTolerance) {
		score += amountBonus
	}

	return score
}

// nameScore awards exactly one tier, evaluated in precedence order: whole
// string equal, first tokens equal, last tokens equal, first token contained
// as a substring of the other name.
func nameScore(sender, display string) int {
	a := strings.ToLower(strings.TrimSpace(sender))
	b := strings.ToLower(strings.TrimSpace(display))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return nameExactBonus
	}

	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	switch {
	case at[0] == bt[0]:
		return nameFirstTokenBonus
	case at[len(at)-1] == bt[len(bt)-1]:
		return nameLastTokenBonus
	case strings.Contains(b, at[0]) || strings.Contains(a, bt[0]):
		return nameSubstringBonus
	}
	return 0
}
