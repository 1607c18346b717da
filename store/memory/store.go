// Package memory provides an in-memory store, useful for tests and demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

type receiptRecord struct {
	receipt *receipt.Receipt
	debts   []*receipt.Debt
	deleted bool
}

type paymentRecord struct {
	payment *payment.Payment
	deleted bool
}

type Store struct {
	mu sync.RWMutex

	receipts map[string]*receiptRecord
	payments map[string]*paymentRecord
}

func New() *Store {
	return &Store{
		receipts: make(map[string]*receiptRecord),
		payments: make(map[string]*paymentRecord),
	}
}

// Receipt Store implementation
func (s *Store) SaveReceipt(_ context.Context, r *receipt.Receipt, debts []*receipt.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A re-save replaces the previous debts wholesale.
	s.receipts[r.ID.String()] = &receiptRecord{receipt: r, debts: debts}
	return nil
}

func (s *Store) GetReceipt(_ context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.receipts[receiptID.String()]; ok && !rec.deleted {
		return rec.receipt, nil
	}
	return nil, squadledger.ErrReceiptNotFound
}

func (s *Store) ListReceiptsByParticipant(_ context.Context, userID string, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*receipt.Receipt, 0)
	for _, rec := range s.receipts {
		if rec.deleted {
			continue
		}
		if rec.receipt.PayerID == userID || hasDebtor(rec.debts, userID) {
			result = append(result, rec.receipt)
		}
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) DeleteReceipt(_ context.Context, receiptID id.ReceiptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.receipts[receiptID.String()]
	if !ok || rec.deleted {
		return squadledger.ErrReceiptNotFound
	}
	rec.deleted = true
	return nil
}

func (s *Store) GetDebts(_ context.Context, receiptID id.ReceiptID) ([]*receipt.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.receipts[receiptID.String()]
	if !ok || rec.deleted {
		return nil, squadledger.ErrReceiptNotFound
	}
	return rec.debts, nil
}

func (s *Store) AggregateDebts(_ context.Context, filter receipt.DebtFilter) ([]receipt.DebtGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]receipt.DebtRow, 0)
	for _, rec := range s.receipts {
		if rec.deleted {
			continue
		}
		if filter.ToUserID != "" && rec.receipt.PayerID != filter.ToUserID {
			continue
		}
		for _, d := range rec.debts {
			if filter.FromUserID != "" && d.DebtorID != filter.FromUserID {
				continue
			}
			rows = append(rows, receipt.DebtRow{
				ReceiptID: d.ReceiptID,
				DebtorID:  d.DebtorID,
				PayerID:   rec.receipt.PayerID,
				Amount:    d.Amount,
			})
		}
	}

	return receipt.GroupRows(rows), nil
}

// Payment Store implementation
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[p.ID.String()] = &paymentRecord{payment: p}
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.payments[paymentID.String()]; ok && !rec.deleted {
		return rec.payment, nil
	}
	return nil, squadledger.ErrPaymentNotFound
}

func (s *Store) ListPaymentsByParticipant(_ context.Context, userID string, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, rec := range s.payments {
		if rec.deleted {
			continue
		}
		if rec.payment.FromUserID == userID || rec.payment.ToUserID == userID {
			result = append(result, rec.payment)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) DeletePayment(_ context.Context, paymentID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[paymentID.String()]
	if !ok || rec.deleted {
		return squadledger.ErrPaymentNotFound
	}
	rec.deleted = true
	return nil
}

func (s *Store) AggregatePayments(_ context.Context, filter payment.Filter) ([]payment.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*payment.Payment, 0)
	for _, rec := range s.payments {
		if rec.deleted {
			continue
		}
		if filter.FromUserID != "" && rec.payment.FromUserID != filter.FromUserID {
			continue
		}
		if filter.ToUserID != "" && rec.payment.ToUserID != filter.ToUserID {
			continue
		}
		matched = append(matched, rec.payment)
	}

	return payment.GroupPayments(matched), nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func hasDebtor(debts []*receipt.Debt, userID string) bool {
	for _, d := range debts {
		if d.DebtorID == userID {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
