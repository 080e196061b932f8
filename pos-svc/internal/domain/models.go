package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TableStatus string

const (
	TableEmpty   TableStatus = "empty"
	TableServing TableStatus = "serving"
	TableBooked  TableStatus = "booked"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableEmpty, TableServing, TableBooked:
		return true
	}
	return false
}

type BookingDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Time  string `json:"time"`
	Notes string `json:"notes,omitempty"`
}

type Table struct {
	ID            int             `json:"id"`
	Status        TableStatus     `json:"status"`
	CustomerCount *int            `json:"customer_count,omitempty"`
	OpenedAt      *time.Time      `json:"opened_at,omitempty"`
	Booking       *BookingDetails `json:"booking,omitempty"`
	MaxSeats      int             `json:"max_seats,omitempty"`
}

// TimeElapsed reports how long the current party has been seated.
func (t Table) TimeElapsed(now time.Time) time.Duration {
	if t.OpenedAt == nil {
		return 0
	}
	return now.Sub(*t.OpenedAt)
}

// Validate checks the status-dependent field invariants of a table.
func (t Table) Validate() error {
	switch t.Status {
	case TableEmpty:
		if t.CustomerCount != nil || t.Booking != nil {
			return fmt.Errorf("table %d: empty table carries guest or booking data", t.ID)
		}
	case TableServing:
		if t.CustomerCount == nil {
			return fmt.Errorf("table %d: serving table has no customer count", t.ID)
		}
		if t.Booking != nil {
			return fmt.Errorf("table %d: serving table carries booking data", t.ID)
		}
		if t.MaxSeats > 0 && *t.CustomerCount > t.MaxSeats {
			return fmt.Errorf("table %d: %d guests exceed %d seats", t.ID, *t.CustomerCount, t.MaxSeats)
		}
	case TableBooked:
		if t.Booking == nil {
			return fmt.Errorf("table %d: booked table has no booking details", t.ID)
		}
		if t.CustomerCount != nil {
			return fmt.Errorf("table %d: booked table carries a customer count", t.ID)
		}
	default:
		return fmt.Errorf("table %d: unknown status %q", t.ID, t.Status)
	}
	return nil
}

type MenuItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image,omitempty"`
}

type OrderItem struct {
	MenuItem
	Quantity         int    `json:"quantity"`
	SelectedModifier string `json:"selected_modifier,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// LineKey identifies an order line when matching a payment selection.
type LineKey struct {
	MenuItemID int
	Modifier   string
	Notes      string
}

func (i OrderItem) Key() LineKey {
	return LineKey{MenuItemID: i.ID, Modifier: i.SelectedModifier, Notes: i.Notes}
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCooking   OrderStatus = "cooking"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCooking, OrderReady, OrderCompleted:
		return true
	}
	return false
}

// Next returns the only kitchen transition allowed from s. Completed is
// reached through payment, never through Next.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderPending:
		return OrderCooking, true
	case OrderCooking:
		return OrderReady, true
	}
	return "", false
}

type Order struct {
	TableID    int         `json:"table_id"`
	Items      []OrderItem `json:"items"`
	Paid       []OrderItem `json:"paid,omitempty"`
	Timestamp  string      `json:"timestamp"`
	Status     OrderStatus `json:"status"`
	ServerID   string      `json:"server_id"`
	Date       string      `json:"date"`
	CustomerID string      `json:"customer_id,omitempty"`
}

func (o Order) Active() bool {
	return o.Status != OrderCompleted
}

// Clone returns a copy whose item slices do not alias o.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Paid = append([]OrderItem(nil), o.Paid...)
	return c
}

type Tier string

const (
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

func (t Tier) Valid() bool {
	switch t {
	case TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Benefit is the display label shown next to a tier. It has no effect on billing.
func (t Tier) Benefit() string {
	switch t {
	case TierSilver:
		return "5% off"
	case TierGold:
		return "10% off"
	case TierPlatinum:
		return "15% off + priority booking"
	}
	return ""
}

type Customer struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email,omitempty"`
	Points     int             `json:"points"`
	Tier       Tier            `json:"tier"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	Visits     int             `json:"visits"`
}

type PromotionType string

const (
	PromotionDiscount PromotionType = "discount"
	PromotionCombo    PromotionType = "combo"
	PromotionBuy1Get1 PromotionType = "buy1get1"
)

const promotionDateFormat = "2006-01-02"

func (p PromotionType) Valid() bool {
	switch p {
	case PromotionDiscount, PromotionCombo, PromotionBuy1Get1:
		return true
	}
	return false
}

type Promotion struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Type      PromotionType `json:"type" yaml:"type"`
	Value     float64       `json:"value" yaml:"value"`
	Items     []int         `json:"items,omitempty" yaml:"items"`
	StartDate string        `json:"start_date" yaml:"start_date"`
	EndDate   string        `json:"end_date" yaml:"end_date"`
	IsActive  bool          `json:"is_active" yaml:"is_active"`
}

// RunsOn reports whether day falls inside the promotion window. Missing or
// unparsable bounds leave that side of the window open.
func (p Promotion) RunsOn(day time.Time) bool {
	d := day.Format(promotionDateFormat)
	if _, err := time.Parse(promotionDateFormat, p.StartDate); err == nil && d < p.StartDate {
		return false
	}
	if _, err := time.Parse(promotionDateFormat, p.EndDate); err == nil && d > p.EndDate {
		return false
	}
	return true
}

type AppliedPromotion struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type BillDetails struct {
	Subtotal          decimal.Decimal    `json:"subtotal"`
	TotalDiscount     decimal.Decimal    `json:"total_discount"`
	AppliedPromotions []AppliedPromotion `json:"applied_promotions"`
	VATRate           decimal.Decimal    `json:"vat_rate"`
	VATAmount         decimal.Decimal    `json:"vat_amount"`
	GrandTotal        decimal.Decimal    `json:"grand_total"`
}

// Rounded returns the bill with every amount rounded half-up to two places.
func (b BillDetails) Rounded() BillDetails {
	out := BillDetails{
		Subtotal:          b.Subtotal.Round(2),
		TotalDiscount:     b.TotalDiscount.Round(2),
		AppliedPromotions: make([]AppliedPromotion, 0, len(b.AppliedPromotions)),
		VATRate:           b.VATRate,
		VATAmount:         b.VATAmount.Round(2),
		GrandTotal:        b.GrandTotal.Round(2),
	}
	for _, p := range b.AppliedPromotions {
		out.AppliedPromotions = append(out.AppliedPromotions, AppliedPromotion{Name: p.Name, Amount: p.Amount.Round(2)})
	}
	return out
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type Booking struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Guests        int           `json:"guests"`
	TableID       *int          `json:"table_id,omitempty"`
	Status        BookingStatus `json:"status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Ingredient struct {
	ID           int     `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Unit         string  `json:"unit" yaml:"unit"`
	Quantity     float64 `json:"quantity" yaml:"quantity"`
	MinThreshold float64 `json:"min_threshold" yaml:"min_threshold"`
	UnitCost     float64 `json:"unit_cost" yaml:"unit_cost"`
	Category     string  `json:"category" yaml:"category"`
}

func (i Ingredient) LowStock() bool {
	return i.Quantity < i.MinThreshold
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentQR   PaymentMethod = "qr"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR:
		return true
	}
	return false
}

type Receipt struct {
	ID             int           `json:"id"`
	TableID        int           `json:"table_id"`
	Lines          []OrderItem   `json:"lines"`
	Bill           BillDetails   `json:"bill"`
	Method         PaymentMethod `json:"method"`
	CustomerID     string        `json:"customer_id,omitempty"`
	PointsEarned   int           `json:"points_earned"`
	OrderCompleted bool          `json:"order_completed"`
	PaidAt         time.Time     `json:"paid_at"`
	QRCode         string        `json:"qr_code,omitempty"`
}
