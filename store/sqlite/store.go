// Package sqlite implements the squadledger store on SQLite via Grove
// ORM, suitable for single-node deployments. Deletes are soft: rows gain
// a deleted_at timestamp and are excluded from every read.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	ledgerstore "github.com/vitaly-rudenko/squadledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("squadledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("squadledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Receipt Store ====================

// SaveReceipt writes the receipt and replaces its debts. The previous
// debt rows are soft-deleted so aggregation only ever sees the latest
// split.
func (s *Store) SaveReceipt(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error {
	m := toReceiptModel(r)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("payer_id = excluded.payer_id").
		Set("amount_cents = excluded.amount_cents").
		Set("amount_currency = excluded.amount_currency").
		Set("description = excluded.description").
		Set("photo_id = excluded.photo_id").
		Set("deleted_at = NULL").
		Set("updated_at = excluded.updated_at").
		Exec(ctx)
	if err != nil {
		return err
	}

	t := now()
	_, err = s.sdb.NewUpdate((*debtModel)(nil)).
		Set("deleted_at = ?", t).
		Where("receipt_id = ?", r.ID.String()).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if len(debts) == 0 {
		return nil
	}

	models := make([]debtModel, len(debts))
	for i, d := range debts {
		models[i] = *toDebtModel(d, r.PayerID)
	}
	_, err = s.sdb.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error) {
	m := new(receiptModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", receiptID.String()).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, squadledger.ErrReceiptNotFound
		}
		return nil, err
	}
	return fromReceiptModel(m)
}

func (s *Store) ListReceiptsByParticipant(ctx context.Context, userID string, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	var models []receiptModel
	q := s.sdb.NewSelect(&models).
		Where(`(payer_id = ? OR id IN (
			SELECT receipt_id FROM ledger_debts WHERE debtor_id = ? AND deleted_at IS NULL
		))`, userID, userID).
		Where("deleted_at IS NULL")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*receipt.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) DeleteReceipt(ctx context.Context, receiptID id.ReceiptID) error {
	t := now()
	res, err := s.sdb.NewUpdate((*receiptModel)(nil)).
		Set("deleted_at = ?", t).
		Where("id = ?", receiptID.String()).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return squadledger.ErrReceiptNotFound
	}

	_, err = s.sdb.NewUpdate((*debtModel)(nil)).
		Set("deleted_at = ?", t).
		Where("receipt_id = ?", receiptID.String()).
		Where("deleted_at IS NULL").
		Exec(ctx)
	return err
}

func (s *Store) GetDebts(ctx context.Context, receiptID id.ReceiptID) ([]*receipt.Debt, error) {
	if _, err := s.GetReceipt(ctx, receiptID); err != nil {
		return nil, err
	}

	var models []debtModel
	err := s.sdb.NewSelect(&models).
		Where("receipt_id = ?", receiptID.String()).
		Where("deleted_at IS NULL").
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*receipt.Debt, len(models))
	for i := range models {
		d, err := fromDebtModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

// AggregateDebts fetches matching live debt rows and folds them in Go.
// Grouping happens in receipt.GroupRows so every backend nets debts the
// same way.
func (s *Store) AggregateDebts(ctx context.Context, filter receipt.DebtFilter) ([]receipt.DebtGroup, error) {
	var models []debtModel
	q := s.sdb.NewSelect(&models).Where("deleted_at IS NULL")

	if filter.FromUserID != "" {
		q = q.Where("debtor_id = ?", filter.FromUserID)
	}
	if filter.ToUserID != "" {
		q = q.Where("payer_id = ?", filter.ToUserID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	rows := make([]receipt.DebtRow, len(models))
	for i := range models {
		row, err := debtRowFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return receipt.GroupRows(rows), nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", paymentID.String()).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, squadledger.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPaymentsByParticipant(ctx context.Context, userID string, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models).
		Where("(from_user_id = ? OR to_user_id = ?)", userID, userID).
		Where("deleted_at IS NULL")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) DeletePayment(ctx context.Context, paymentID id.PaymentID) error {
	t := now()
	res, err := s.sdb.NewUpdate((*paymentModel)(nil)).
		Set("deleted_at = ?", t).
		Where("id = ?", paymentID.String()).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return squadledger.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) AggregatePayments(ctx context.Context, filter payment.Filter) ([]payment.Group, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models).Where("deleted_at IS NULL")

	if filter.FromUserID != "" {
		q = q.Where("from_user_id = ?", filter.FromUserID)
	}
	if filter.ToUserID != "" {
		q = q.Where("to_user_id = ?", filter.ToUserID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		payments[i] = p
	}
	return payment.GroupPayments(payments), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
