package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderSubmitted     = "order_submitted"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderItemsUpdated  = "order_items_updated"
	EventPaymentCompleted   = "payment_completed"
)

type Event struct {
	Type       string          `json:"type"`
	TableID    int             `json:"table_id"`
	Status     OrderStatus     `json:"status,omitempty"`
	Items      []OrderItem     `json:"items,omitempty"`
	ReceiptID  int             `json:"receipt_id,omitempty"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Timestamp  time.Time       `json:"timestamp"`
}
