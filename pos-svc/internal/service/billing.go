package service

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pos/pos-svc/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeBill prices items under the given promotions. Discount promotions
// apply to the undiscounted subtotal and stack additively; other promotion
// types are informational. Amounts are kept at full precision, call Rounded
// on the result for display.
func ComputeBill(items []domain.OrderItem, promotions []domain.Promotion, vatRate float64) (domain.BillDetails, error) {
	if math.IsNaN(vatRate) || math.IsInf(vatRate, 0) || vatRate < 0 {
		return domain.BillDetails{}, domain.ValidationError{Field: "vat_rate", Message: fmt.Sprintf("invalid VAT rate %v", vatRate)}
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if it.Price <= 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return domain.BillDetails{}, domain.InvalidPriceError{ItemID: it.ID, Name: it.Name, Price: it.Price}
		}
		if it.Quantity < 1 {
			return domain.BillDetails{}, domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("item %d: quantity must be at least 1", it.ID)}
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	bill := domain.BillDetails{
		Subtotal:          subtotal,
		TotalDiscount:     decimal.Zero,
		AppliedPromotions: []domain.AppliedPromotion{},
		VATRate:           decimal.NewFromFloat(vatRate),
	}
	for _, p := range promotions {
		if !p.IsActive || p.Type != domain.PromotionDiscount {
			continue
		}
		amount := subtotal.Mul(decimal.NewFromFloat(p.Value)).Div(hundred)
		bill.TotalDiscount = bill.TotalDiscount.Add(amount)
		bill.AppliedPromotions = append(bill.AppliedPromotions, domain.AppliedPromotion{Name: p.Name, Amount: amount})
	}

	// Stacked discounts never push the bill below zero.
	taxable := decimal.Max(subtotal.Sub(bill.TotalDiscount), decimal.Zero)
	bill.VATAmount = taxable.Mul(bill.VATRate)
	bill.GrandTotal = taxable.Add(bill.VATAmount)
	return bill, nil
}

type BillingEngine struct {
	VATRate float64
}

func NewBillingEngine(vatRate float64) *BillingEngine {
	return &BillingEngine{VATRate: vatRate}
}

func (e *BillingEngine) Bill(items []domain.OrderItem, promotions []domain.Promotion) (domain.BillDetails, error) {
	return ComputeBill(items, promotions, e.VATRate)
}

// PromotionDirectory holds the restaurant's promotions in insertion order.
type PromotionDirectory struct {
	promotions []domain.Promotion
}

func NewPromotionDirectory(seed []domain.Promotion) *PromotionDirectory {
	d := &PromotionDirectory{}
	for _, p := range seed {
		d.promotions = append(d.promotions, clonePromotion(p))
	}
	return d
}

func (d *PromotionDirectory) List() []domain.Promotion {
	out := make([]domain.Promotion, 0, len(d.promotions))
	for _, p := range d.promotions {
		out = append(out, clonePromotion(p))
	}
	return out
}

func (d *PromotionDirectory) Add(p domain.Promotion) (domain.Promotion, error) {
	if err := validatePromotion(p); err != nil {
		return domain.Promotion{}, err
	}
	if p.ID == "" {
		p.ID = d.nextID()
	}
	for _, existing := range d.promotions {
		if existing.ID == p.ID {
			return domain.Promotion{}, domain.ValidationError{Field: "id", Message: fmt.Sprintf("promotion %s already exists", p.ID)}
		}
	}
	d.promotions = append(d.promotions, clonePromotion(p))
	return clonePromotion(p), nil
}

func (d *PromotionDirectory) SetActive(id string, active bool) (domain.Promotion, error) {
	for i := range d.promotions {
		if d.promotions[i].ID == id {
			d.promotions[i].IsActive = active
			return clonePromotion(d.promotions[i]), nil
		}
	}
	return domain.Promotion{}, domain.NotFoundError{Entity: "promotion", ID: id}
}

// ActiveOn returns the switched-on promotions whose window contains day.
func (d *PromotionDirectory) ActiveOn(day time.Time) []domain.Promotion {
	var out []domain.Promotion
	for _, p := range d.promotions {
		if p.IsActive && p.RunsOn(day) {
			out = append(out, clonePromotion(p))
		}
	}
	return out
}

func (d *PromotionDirectory) nextID() string {
	for n := len(d.promotions) + 1; ; n++ {
		id := fmt.Sprintf("P%03d", n)
		taken := false
		for _, p := range d.promotions {
			if p.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func validatePromotion(p domain.Promotion) error {
	if p.Name == "" {
		return domain.ValidationError{Field: "name", Message: "promotion name is required"}
	}
	if !p.Type.Valid() {
		return domain.ValidationError{Field: "type", Message: fmt.Sprintf("unknown promotion type %q", p.Type)}
	}
	if p.Type == domain.PromotionDiscount && (p.Value <= 0 || p.Value > 100) {
		return domain.ValidationError{Field: "value", Message: "discount must be between 0 and 100 percent"}
	}
	for _, d := range []struct{ field, value string }{{"start_date", p.StartDate}, {"end_date", p.EndDate}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return domain.ValidationError{Field: d.field, Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", d.value)}
		}
	}
	if p.StartDate != "" && p.EndDate != "" && p.EndDate < p.StartDate {
		return domain.ValidationError{Field: "end_date", Message: "end date is before start date"}
	}
	return nil
}

func clonePromotion(p domain.Promotion) domain.Promotion {
	p.Items = append([]int(nil), p.Items...)
	return p
}
