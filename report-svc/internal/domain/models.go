package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventPaymentCompleted = "payment_completed"

	DateLayout = "2006-01-02"
)

// PaymentEvent is the part of a pos-svc floor event that sales reports need.
type PaymentEvent struct {
	Type       string          `json:"type"`
	TableID    int             `json:"table_id"`
	ReceiptID  int             `json:"receipt_id"`
	Items      []SoldItem      `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Date is the business day the payment belongs to.
func (e PaymentEvent) Date() string {
	return e.Timestamp.Format(DateLayout)
}

type SoldItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type DishSales struct {
	MenuItemID int    `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type DailyRevenue struct {
	Date     string          `json:"date"`
	Total    decimal.Decimal `json:"total"`
	Receipts int             `json:"receipts"`
	Source   string          `json:"source"`
}
