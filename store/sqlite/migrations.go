package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the squadledger store.
var Migrations = migrate.NewGroup("squadledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_ledger_receipts",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_receipts (
    id              TEXT PRIMARY KEY,
    payer_id        TEXT NOT NULL DEFAULT '',
    amount_cents    INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    photo_id        TEXT NOT NULL DEFAULT '',
    deleted_at      TIMESTAMP,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_receipts_payer ON ledger_receipts (payer_id);
CREATE INDEX IF NOT EXISTS idx_ledger_receipts_created ON ledger_receipts (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_receipts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_debts",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_debts (
    id         TEXT PRIMARY KEY,
    receipt_id TEXT NOT NULL DEFAULT '',
    debtor_id  TEXT NOT NULL DEFAULT '',
    payer_id   TEXT NOT NULL DEFAULT '',
    amount     INTEGER,
    deleted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_debts_receipt ON ledger_debts (receipt_id);
CREATE INDEX IF NOT EXISTS idx_ledger_debts_debtor ON ledger_debts (debtor_id);
CREATE INDEX IF NOT EXISTS idx_ledger_debts_payer ON ledger_debts (payer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_debts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_payments",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_payments (
    id              TEXT PRIMARY KEY,
    from_user_id    TEXT NOT NULL DEFAULT '',
    to_user_id      TEXT NOT NULL DEFAULT '',
    amount_cents    INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    deleted_at      TIMESTAMP,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_payments_from ON ledger_payments (from_user_id);
CREATE INDEX IF NOT EXISTS idx_ledger_payments_to ON ledger_payments (to_user_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_payments`)
				return err
			},
		},
	)
}
