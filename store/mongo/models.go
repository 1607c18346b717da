package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

// ==================== Receipt models ====================

type receiptModel struct {
	grove.BaseModel `grove:"table:ledger_receipts"`

	ID             string     `grove:"id,pk"           bson:"_id"`
	PayerID        string     `grove:"payer_id"        bson:"payer_id"`
	AmountCents    int64      `grove:"amount_cents"    bson:"amount_cents"`
	AmountCurrency string     `grove:"amount_currency" bson:"amount_currency"`
	Description    string     `grove:"description"     bson:"description"`
	PhotoID        string     `grove:"photo_id"        bson:"photo_id"`
	DeletedAt      *time.Time `grove:"deleted_at"      bson:"deleted_at,omitempty"`
	CreatedAt      time.Time  `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"      bson:"updated_at"`
}

func toReceiptModel(r *receipt.Receipt) *receiptModel {
	return &receiptModel{
		ID:             r.ID.String(),
		PayerID:        r.PayerID,
		AmountCents:    r.Amount.Amount,
		AmountCurrency: r.Amount.Currency,
		Description:    r.Description,
		PhotoID:        r.PhotoID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*receipt.Receipt, error) {
	receiptID, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}

	return &receipt.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          receiptID,
		PayerID:     m.PayerID,
		Amount:      types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		Description: m.Description,
		PhotoID:     m.PhotoID,
	}, nil
}

// ==================== Debt models ====================

// debtModel denormalizes the receipt's payer so debt aggregation never
// needs a lookup stage. Amount is absent for unresolved shares.
type debtModel struct {
	grove.BaseModel `grove:"table:ledger_debts"`

	ID        string     `grove:"id,pk"      bson:"_id"`
	ReceiptID string     `grove:"receipt_id" bson:"receipt_id"`
	DebtorID  string     `grove:"debtor_id"  bson:"debtor_id"`
	PayerID   string     `grove:"payer_id"   bson:"payer_id"`
	Amount    *int64     `grove:"amount"     bson:"amount,omitempty"`
	DeletedAt *time.Time `grove:"deleted_at" bson:"deleted_at,omitempty"`
	CreatedAt time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toDebtModel(d *receipt.Debt, payerID string) *debtModel {
	m := &debtModel{
		ID:        d.ID.String(),
		ReceiptID: d.ReceiptID.String(),
		DebtorID:  d.DebtorID,
		PayerID:   payerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if v, resolved := d.Amount.Int64(); resolved {
		m.Amount = &v
	}
	return m
}

func fromDebtModel(m *debtModel) (*receipt.Debt, error) {
	debtID, err := id.ParseDebtID(m.ID)
	if err != nil {
		return nil, err
	}
	receiptID, err := id.ParseReceiptID(m.ReceiptID)
	if err != nil {
		return nil, err
	}

	return &receipt.Debt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        debtID,
		ReceiptID: receiptID,
		DebtorID:  m.DebtorID,
		Amount:    amountFromPtr(m.Amount),
	}, nil
}

func debtRowFromModel(m *debtModel) (receipt.DebtRow, error) {
	receiptID, err := id.ParseReceiptID(m.ReceiptID)
	if err != nil {
		return receipt.DebtRow{}, err
	}

	return receipt.DebtRow{
		ReceiptID: receiptID,
		DebtorID:  m.DebtorID,
		PayerID:   m.PayerID,
		Amount:    amountFromPtr(m.Amount),
	}, nil
}

func amountFromPtr(v *int64) types.Amount {
	if v == nil {
		return types.Unresolved()
	}
	return types.Resolved(*v)
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:ledger_payments"`

	ID             string     `grove:"id,pk"           bson:"_id"`
	FromUserID     string     `grove:"from_user_id"    bson:"from_user_id"`
	ToUserID       string     `grove:"to_user_id"      bson:"to_user_id"`
	AmountCents    int64      `grove:"amount_cents"    bson:"amount_cents"`
	AmountCurrency string     `grove:"amount_currency" bson:"amount_currency"`
	DeletedAt      *time.Time `grove:"deleted_at"      bson:"deleted_at,omitempty"`
	CreatedAt      time.Time  `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"      bson:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:             p.ID.String(),
		FromUserID:     p.FromUserID,
		ToUserID:       p.ToUserID,
		AmountCents:    p.Amount.Amount,
		AmountCurrency: p.Amount.Currency,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         paymentID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Amount:     types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
	}, nil
}
