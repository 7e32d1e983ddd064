package confirmation

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/domain"
)

// Method label recorded on payments created from statement matches.
const methodMobileMoney = "MOBILE_MONEY"

// Sink is the external payment store. CreatePayment must be atomic with
// respect to the receipt-id uniqueness check: a second create for the same
// receipt returns DuplicateReceiptError without writing.
type Sink interface {
	PaymentExists(ctx context.Context, receiptID string) (bool, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
}

const lockStripes = 64

// Gate turns an accepted match into a persisted payment record exactly once
// per receipt id. Confirmations for the same receipt are serialized on a
// fixed set of striped locks, so memory use stays constant no matter how
// many receipts pass through.
type Gate struct {
	sink Sink
	log  *logrus.Entry

	locks [lockStripes]sync.Mutex
}

func NewGate(sink Sink) *Gate {
	return &Gate{
		sink: sink,
		log:  logrus.WithField("component", "confirmation"),
	}
}

// Confirm creates the payment record for a match. It fails with
// DuplicateReceiptError if a payment already exists for the receipt, and
// never creates a second record even under concurrent confirmation attempts.
func (g *Gate) Confirm(ctx context.Context, m domain.MatchResult) (*domain.Payment, error) {
	if m.Tenant == nil {
		return nil, errors.New("match carries no tenant")
	}

	receiptID := m.Transaction.ReceiptID
	lock := g.receiptLock(receiptID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := g.sink.PaymentExists(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DuplicateReceiptError{ReceiptID: receiptID}
	}

	payment := &domain.Payment{
		ID:          uuid.NewString(),
		TenantID:    m.Tenant.TenantID,
		PropertyRef: m.Tenant.PropertyRef,
		Amount:      m.Transaction.Amount,
		Method:      methodMobileMoney,
		ReceiptID:   receiptID,
		PayerPhone:  m.Transaction.ExtractedPhone,
		PayerName:   m.Transaction.ExtractedSenderName,
		Description: m.Transaction.RawDescription,
		Confidence:  m.Confidence,
		PaidAt:      m.Transaction.OccurredAt,
		RecordedAt:  time.Now().UTC(),
	}

	// The sink's uniqueness constraint is the real enforcement point; the
	// lookup above only gives a friendlier fast path.
	if err := g.sink.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{
		"receipt_id": receiptID,
		"tenant_id":  payment.TenantID,
		"amount":     payment.Amount.String(),
		"confidence": payment.Confidence,
		"source":     m.Source,
	}).Info("payment confirmed")

	return payment, nil
}

func (g *Gate) receiptLock(receiptID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(receiptID))
	return &g.locks[h.Sum32()%lockStripes]
}
