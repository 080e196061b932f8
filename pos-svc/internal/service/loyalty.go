package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-pos/pos-svc/internal/domain"
)

const DefaultPointsUnit = 1000

type LoyaltyLedger struct {
	customers  map[string]*domain.Customer
	order      []string
	pointsUnit decimal.Decimal
}

func NewLoyaltyLedger(seed []domain.Customer, pointsUnit float64) *LoyaltyLedger {
	if pointsUnit <= 0 {
		pointsUnit = DefaultPointsUnit
	}
	l := &LoyaltyLedger{
		customers:  make(map[string]*domain.Customer, len(seed)),
		pointsUnit: decimal.NewFromFloat(pointsUnit),
	}
	for _, c := range seed {
		c := c
		if c.Tier == "" {
			c.Tier = domain.TierSilver
		}
		l.customers[c.ID] = &c
		l.order = append(l.order, c.ID)
	}
	return l
}

func (l *LoyaltyLedger) Clone() *LoyaltyLedger {
	c := &LoyaltyLedger{
		customers:  make(map[string]*domain.Customer, len(l.customers)),
		order:      append([]string(nil), l.order...),
		pointsUnit: l.pointsUnit,
	}
	for id, cust := range l.customers {
		cust := *cust
		c.customers[id] = &cust
	}
	return c
}

// PointsFor is the number of points a payment of amount earns.
func (l *LoyaltyLedger) PointsFor(amount decimal.Decimal) int {
	if amount.IsNegative() {
		return 0
	}
	return int(amount.Div(l.pointsUnit).Floor().IntPart())
}

// ApplyPayment credits a payment to the customer. An unknown customer is not
// an error: the ledger is left as it was and ok is false.
func (l *LoyaltyLedger) ApplyPayment(customerID string, amount decimal.Decimal) (domain.Customer, bool, error) {
	if amount.IsNegative() {
		return domain.Customer{}, false, domain.ValidationError{Field: "amount", Message: "payment amount cannot be negative"}
	}
	c, ok := l.customers[customerID]
	if !ok {
		return domain.Customer{}, false, nil
	}
	c.Points += l.PointsFor(amount)
	c.TotalSpent = c.TotalSpent.Add(amount)
	c.Visits++
	return *c, true, nil
}

func (l *LoyaltyLedger) Register(name, phone, email string) (domain.Customer, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" {
		return domain.Customer{}, domain.ValidationError{Field: "name", Message: "customer name is required"}
	}
	if phone == "" {
		return domain.Customer{}, domain.ValidationError{Field: "phone", Message: "customer phone is required"}
	}
	for _, c := range l.customers {
		if c.Phone == phone {
			return domain.Customer{}, domain.ValidationError{Field: "phone", Message: fmt.Sprintf("phone %s is already registered to %s", phone, c.ID)}
		}
	}
	c := domain.Customer{
		ID:         l.nextID(),
		Name:       name,
		Phone:      phone,
		Email:      strings.TrimSpace(email),
		Tier:       domain.TierSilver,
		TotalSpent: decimal.Zero,
	}
	l.customers[c.ID] = &c
	l.order = append(l.order, c.ID)
	return c, nil
}

func (l *LoyaltyLedger) AddPoints(customerID string, points int) (domain.Customer, error) {
	if points <= 0 {
		return domain.Customer{}, domain.ValidationError{Field: "points", Message: "points must be positive"}
	}
	c, ok := l.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.NotFoundError{Entity: "customer", ID: customerID}
	}
	c.Points += points
	return *c, nil
}

func (l *LoyaltyLedger) SetTier(customerID string, tier domain.Tier) (domain.Customer, error) {
	if !tier.Valid() {
		return domain.Customer{}, domain.ValidationError{Field: "tier", Message: fmt.Sprintf("unknown tier %q", tier)}
	}
	c, ok := l.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.NotFoundError{Entity: "customer", ID: customerID}
	}
	c.Tier = tier
	return *c, nil
}

func (l *LoyaltyLedger) Customer(customerID string) (domain.Customer, error) {
	c, ok := l.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.NotFoundError{Entity: "customer", ID: customerID}
	}
	return *c, nil
}

func (l *LoyaltyLedger) List() []domain.Customer {
	out := make([]domain.Customer, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.customers[id])
	}
	return out
}

// Search matches the name case-insensitively or the phone as a substring.
func (l *LoyaltyLedger) Search(query string) []domain.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return l.List()
	}
	var out []domain.Customer
	for _, id := range l.order {
		c := l.customers[id]
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) {
			out = append(out, *c)
		}
	}
	return out
}

func (l *LoyaltyLedger) nextID() string {
	for n := len(l.order) + 1; ; n++ {
		id := fmt.Sprintf("C%03d", n)
		if _, taken := l.customers[id]; !taken {
			return id
		}
	}
}
