package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"restaurant-pos/pos-svc/internal/domain"
)

// Pantry tracks ingredient stock. It is independent of orders: selling a dish
// does not consume stock.
type Pantry struct {
	items map[int]*domain.Ingredient
}

func NewPantry(seed []domain.Ingredient) *Pantry {
	p := &Pantry{items: make(map[int]*domain.Ingredient, len(seed))}
	for _, in := range seed {
		in := in
		p.items[in.ID] = &in
	}
	return p
}

func (p *Pantry) List() []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(p.items))
	for _, in := range p.items {
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Pantry) LowStock() []domain.Ingredient {
	var out []domain.Ingredient
	for _, in := range p.List() {
		if in.LowStock() {
			out = append(out, in)
		}
	}
	return out
}

func (p *Pantry) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, in := range p.items {
		total = total.Add(decimal.NewFromFloat(in.Quantity).Mul(decimal.NewFromFloat(in.UnitCost)))
	}
	return total
}

// StockIn records a delivery. The unit cost becomes the latest purchase price.
func (p *Pantry) StockIn(id int, quantity, unitCost float64) (domain.Ingredient, error) {
	in, ok := p.items[id]
	if !ok {
		return domain.Ingredient{}, domain.NotFoundError{Entity: "ingredient", ID: fmt.Sprint(id)}
	}
	if quantity <= 0 {
		return domain.Ingredient{}, domain.ValidationError{Field: "quantity", Message: "stock-in quantity must be positive"}
	}
	if unitCost < 0 {
		return domain.Ingredient{}, domain.ValidationError{Field: "unit_cost", Message: "unit cost cannot be negative"}
	}
	in.Quantity += quantity
	in.UnitCost = unitCost
	return *in, nil
}

func (p *Pantry) Adjust(id int, delta float64) (domain.Ingredient, error) {
	in, ok := p.items[id]
	if !ok {
		return domain.Ingredient{}, domain.NotFoundError{Entity: "ingredient", ID: fmt.Sprint(id)}
	}
	if delta == 0 {
		return domain.Ingredient{}, domain.ValidationError{Field: "delta", Message: "adjustment cannot be zero"}
	}
	if in.Quantity+delta < 0 {
		return domain.Ingredient{}, domain.ValidationError{
			Field:   "delta",
			Message: fmt.Sprintf("cannot remove %v %s, only %v on hand", -delta, in.Unit, in.Quantity),
		}
	}
	in.Quantity += delta
	return *in, nil
}
