package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant-pos/pos-svc/internal/domain"
)

// PostgresRepository is the receipt journal. The floor never reads its state
// back from here; report-svc and QR lookups after a restart do.
type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) CreateReceipt(ctx context.Context, receipt domain.Receipt) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bill := receipt.Bill
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO receipts (id, table_id, method, customer_id, subtotal, total_discount, vat_rate, vat_amount, grand_total, points_earned, order_completed, paid_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)
	`, receipt.ID, receipt.TableID, string(receipt.Method), receipt.CustomerID,
		bill.Subtotal, bill.TotalDiscount, bill.VATRate, bill.VATAmount, bill.GrandTotal,
		receipt.PointsEarned, receipt.OrderCompleted, receipt.PaidAt); err != nil {
		return err
	}

	for _, line := range receipt.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO receipt_lines (receipt_id, menu_item_id, name, quantity, price, modifier, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, receipt.ID, line.ID, line.Name, line.Quantity, line.Price, line.SelectedModifier, line.Notes); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) SaveQRCode(ctx context.Context, receiptID int, qr []byte) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE receipts SET qr_code = $1 WHERE id = $2`, qr, receiptID)
	return err
}

// GetQRCode returns the stored code, which is nil when the receipt exists but
// no code was saved for it.
func (r *PostgresRepository) GetQRCode(ctx context.Context, receiptID int) ([]byte, error) {
	var qrCode []byte
	err := r.DB.QueryRowContext(ctx, "SELECT qr_code FROM receipts WHERE id = $1", receiptID).Scan(&qrCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Entity: "receipt", ID: fmt.Sprint(receiptID)}
	}
	if err != nil {
		return nil, err
	}
	return qrCode, nil
}

func (r *PostgresRepository) LastReceiptID(ctx context.Context) (int, error) {
	var id int
	if err := r.DB.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM receipts").Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id INTEGER PRIMARY KEY,
			table_id INTEGER NOT NULL,
			method TEXT NOT NULL,
			customer_id TEXT,
			subtotal NUMERIC(14, 2) NOT NULL,
			total_discount NUMERIC(14, 2) NOT NULL,
			vat_rate NUMERIC(6, 4) NOT NULL,
			vat_amount NUMERIC(14, 2) NOT NULL,
			grand_total NUMERIC(14, 2) NOT NULL,
			points_earned INTEGER NOT NULL DEFAULT 0,
			order_completed BOOLEAN NOT NULL,
			paid_at TIMESTAMPTZ NOT NULL,
			qr_code BYTEA
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_lines (
			receipt_id INTEGER NOT NULL REFERENCES receipts (id) ON DELETE CASCADE,
			menu_item_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price NUMERIC(14, 2) NOT NULL,
			modifier TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		"CREATE INDEX IF NOT EXISTS receipts_paid_at_idx ON receipts (paid_at)",
	}
	for _, stmt := range statements {
		if _, err := r.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}
