// Package mongo implements the squadledger store on MongoDB via Grove
// ORM. Deletes are soft: documents gain a deleted_at timestamp and are
// excluded from every read.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	ledgerstore "github.com/vitaly-rudenko/squadledger/store"
)

// Collection name constants.
const (
	colReceipts = "ledger_receipts"
	colDebts    = "ledger_debts"
	colPayments = "ledger_payments"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("squadledger/mongo: migrate %s indexes: %w", col, err)
		}
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

// notDeleted matches live documents: deleted_at is unset on insert and
// only ever set by a delete.
func notDeleted() bson.M {
	return bson.M{"deleted_at": nil}
}

// ==================== Receipt Store ====================

// SaveReceipt writes the receipt and replaces its debts. The previous
// debt documents are soft-deleted so aggregation only ever sees the
// latest split.
func (s *Store) SaveReceipt(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error {
	m := toReceiptModel(r)

	res, err := s.mdb.NewUpdate((*receiptModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("payer_id", m.PayerID).
		Set("amount_cents", m.AmountCents).
		Set("amount_currency", m.AmountCurrency).
		Set("description", m.Description).
		Set("photo_id", m.PhotoID).
		Set("updated_at", m.UpdatedAt).
		Set("deleted_at", nil).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: save receipt: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("squadledger/mongo: insert receipt: %w", err)
		}
	}

	t := now()
	_, err = s.mdb.Collection(colDebts).UpdateMany(ctx,
		bson.M{"receipt_id": r.ID.String(), "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": t}},
	)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: retire debts: %w", err)
	}

	for _, d := range debts {
		dm := toDebtModel(d, r.PayerID)
		if _, err := s.mdb.NewInsert(dm).Exec(ctx); err != nil {
			return fmt.Errorf("squadledger/mongo: insert debt: %w", err)
		}
	}
	return nil
}

func (s *Store) GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error) {
	var m receiptModel
	filter := notDeleted()
	filter["_id"] = receiptID.String()

	err := s.mdb.NewFind(&m).
		Filter(filter).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, squadledger.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("squadledger/mongo: get receipt: %w", err)
	}
	return fromReceiptModel(&m)
}

func (s *Store) ListReceiptsByParticipant(ctx context.Context, userID string, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	// Receipt ids where the user is a debtor.
	var debtModels []debtModel
	debtFilter := notDeleted()
	debtFilter["debtor_id"] = userID
	if err := s.mdb.NewFind(&debtModels).Filter(debtFilter).Scan(ctx); err != nil {
		return nil, fmt.Errorf("squadledger/mongo: list debtor receipts: %w", err)
	}

	receiptIDs := make([]string, 0, len(debtModels))
	for i := range debtModels {
		receiptIDs = append(receiptIDs, debtModels[i].ReceiptID)
	}

	var models []receiptModel
	filter := notDeleted()
	filter["$or"] = bson.A{
		bson.M{"payer_id": userID},
		bson.M{"_id": bson.M{"$in": receiptIDs}},
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("squadledger/mongo: list receipts: %w", err)
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
	filter := notDeleted()
	filter["_id"] = receiptID.String()

	res, err := s.mdb.NewUpdate((*receiptModel)(nil)).
		Filter(filter).
		Set("deleted_at", t).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: delete receipt: %w", err)
	}
	if res.MatchedCount() == 0 {
		return squadledger.ErrReceiptNotFound
	}

	_, err = s.mdb.Collection(colDebts).UpdateMany(ctx,
		bson.M{"receipt_id": receiptID.String(), "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": t}},
	)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: delete debts: %w", err)
	}
	return nil
}

func (s *Store) GetDebts(ctx context.Context, receiptID id.ReceiptID) ([]*receipt.Debt, error) {
	if _, err := s.GetReceipt(ctx, receiptID); err != nil {
		return nil, err
	}

	var models []debtModel
	filter := notDeleted()
	filter["receipt_id"] = receiptID.String()

	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("squadledger/mongo: get debts: %w", err)
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

// AggregateDebts matches live debt documents through an aggregation
// pipeline and folds them in Go. Grouping happens in receipt.GroupRows
// so every backend nets debts the same way.
func (s *Store) AggregateDebts(ctx context.Context, filter receipt.DebtFilter) ([]receipt.DebtGroup, error) {
	match := notDeleted()
	if filter.FromUserID != "" {
		match["debtor_id"] = filter.FromUserID
	}
	if filter.ToUserID != "" {
		match["payer_id"] = filter.ToUserID
	}

	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$project": bson.M{
			"receipt_id": 1,
			"debtor_id":  1,
			"payer_id":   1,
			"amount":     1,
			"created_at": 1,
			"updated_at": 1,
		}},
	}

	cursor, err := s.mdb.Collection(colDebts).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("squadledger/mongo: aggregate debts: %w", err)
	}
	defer cursor.Close(ctx)

	var models []debtModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("squadledger/mongo: aggregate debts decode: %w", err)
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	filter := notDeleted()
	filter["_id"] = paymentID.String()

	err := s.mdb.NewFind(&m).
		Filter(filter).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, squadledger.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("squadledger/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPaymentsByParticipant(ctx context.Context, userID string, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	filter := notDeleted()
	filter["$or"] = bson.A{
		bson.M{"from_user_id": userID},
		bson.M{"to_user_id": userID},
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("squadledger/mongo: list payments: %w", err)
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
	filter := notDeleted()
	filter["_id"] = paymentID.String()

	res, err := s.mdb.NewUpdate((*paymentModel)(nil)).
		Filter(filter).
		Set("deleted_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("squadledger/mongo: delete payment: %w", err)
	}
	if res.MatchedCount() == 0 {
		return squadledger.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) AggregatePayments(ctx context.Context, filter payment.Filter) ([]payment.Group, error) {
	match := notDeleted()
	if filter.FromUserID != "" {
		match["from_user_id"] = filter.FromUserID
	}
	if filter.ToUserID != "" {
		match["to_user_id"] = filter.ToUserID
	}

	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{
			"$group": bson.M{
				"_id": bson.M{
					"from_user_id": "$from_user_id",
					"to_user_id":   "$to_user_id",
				},
				"total": bson.M{"$sum": "$amount_cents"},
			},
		},
		bson.M{"$sort": bson.D{
			{Key: "_id.from_user_id", Value: 1},
			{Key: "_id.to_user_id", Value: 1},
		}},
	}

	cursor, err := s.mdb.Collection(colPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("squadledger/mongo: aggregate payments: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		ID struct {
			FromUserID string `bson:"from_user_id"`
			ToUserID   string `bson:"to_user_id"`
		} `bson:"_id"`
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("squadledger/mongo: aggregate payments decode: %w", err)
	}

	groups := make([]payment.Group, len(results))
	for i, r := range results {
		groups[i] = payment.Group{
			FromUserID: r.ID.FromUserID,
			ToUserID:   r.ID.ToUserID,
			Total:      r.Total,
		}
	}
	return groups, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colReceipts: {
			{Keys: bson.D{{Key: "payer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colDebts: {
			{Keys: bson.D{{Key: "receipt_id", Value: 1}}},
			{Keys: bson.D{{Key: "debtor_id", Value: 1}}},
			{Keys: bson.D{{Key: "payer_id", Value: 1}}},
			{
				Keys:    bson.D{{Key: "receipt_id", Value: 1}, {Key: "debtor_id", Value: 1}, {Key: "deleted_at", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		colPayments: {
			{Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}
