package service

import (
	"fmt"
	"sort"
	"time"

	"restaurant-pos/pos-svc/internal/domain"
)

const orderTimestampLayout = "3:04 PM"

// OrderBook keeps at most one active order per table plus the completed
// orders in the order they were settled.
type OrderBook struct {
	active  map[int]*domain.Order
	history []domain.Order
	clock   func() time.Time
}

func NewOrderBook(seed []domain.Order, clock func() time.Time) *OrderBook {
	if clock == nil {
		clock = time.Now
	}
	b := &OrderBook{active: make(map[int]*domain.Order), clock: clock}
	for _, o := range seed {
		o := o.Clone()
		if o.Active() {
			b.active[o.TableID] = &o
		} else {
			b.history = append(b.history, o)
		}
	}
	return b
}

func (b *OrderBook) Clone() *OrderBook {
	c := &OrderBook{
		active:  make(map[int]*domain.Order, len(b.active)),
		history: make([]domain.Order, 0, len(b.history)),
		clock:   b.clock,
	}
	for id, o := range b.active {
		o := o.Clone()
		c.active[id] = &o
	}
	for _, o := range b.history {
		c.history = append(c.history, o.Clone())
	}
	return c
}

func (b *OrderBook) Active(tableID int) (domain.Order, bool) {
	o, ok := b.active[tableID]
	if !ok {
		return domain.Order{}, false
	}
	return o.Clone(), true
}

func (b *OrderBook) ActiveOrders() []domain.Order {
	out := make([]domain.Order, 0, len(b.active))
	for _, o := range b.active {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

func (b *OrderBook) History() []domain.Order {
	out := make([]domain.Order, 0, len(b.history))
	for _, o := range b.history {
		out = append(out, o.Clone())
	}
	return out
}

// SubmitOrder starts a pending order for tableID. A table that already has an
// active order must update it instead.
func (b *OrderBook) SubmitOrder(tableID int, items []domain.OrderItem, serverID, date string) (domain.Order, error) {
	if _, ok := b.active[tableID]; ok {
		return domain.Order{}, domain.TransitionError{Entity: "table", ID: tableID, Reason: "table already has an active order"}
	}
	if err := validateItems(items); err != nil {
		return domain.Order{}, err
	}
	now := b.clock()
	if date == "" {
		date = now.Format("2006-01-02")
	}
	o := domain.Order{
		TableID:   tableID,
		Items:     append([]domain.OrderItem(nil), items...),
		Timestamp: now.Format(orderTimestampLayout),
		Status:    domain.OrderPending,
		ServerID:  serverID,
		Date:      date,
	}
	b.active[tableID] = &o
	return o.Clone(), nil
}

// UpdateItems replaces the unpaid lines of the active order.
func (b *OrderBook) UpdateItems(tableID int, items []domain.OrderItem) (domain.Order, error) {
	o, ok := b.active[tableID]
	if !ok {
		return domain.Order{}, domain.OrderNotFound(tableID)
	}
	if err := validateItems(items); err != nil {
		return domain.Order{}, err
	}
	o.Items = append([]domain.OrderItem(nil), items...)
	return o.Clone(), nil
}

// UpdateStatus advances the kitchen status by exactly one step.
func (b *OrderBook) UpdateStatus(tableID int, status domain.OrderStatus) (domain.Order, error) {
	o, ok := b.active[tableID]
	if !ok {
		return domain.Order{}, domain.OrderNotFound(tableID)
	}
	if !status.Valid() {
		return domain.Order{}, domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", status)}
	}
	next, ok := o.Status.Next()
	if !ok || next != status {
		return domain.Order{}, domain.TransitionError{Entity: "order", ID: tableID, From: string(o.Status), To: string(status)}
	}
	o.Status = status
	return o.Clone(), nil
}

// SetCustomer attaches a loyalty customer to the active order.
func (b *OrderBook) SetCustomer(tableID int, customerID string) (domain.Order, error) {
	o, ok := b.active[tableID]
	if !ok {
		return domain.Order{}, domain.OrderNotFound(tableID)
	}
	o.CustomerID = customerID
	return o.Clone(), nil
}

func (b *OrderBook) TransferOrder(sourceID, targetID int) error {
	o, ok := b.active[sourceID]
	if !ok {
		return domain.OrderNotFound(sourceID)
	}
	if _, busy := b.active[targetID]; busy {
		return domain.TransitionError{Entity: "table", ID: targetID, Reason: "table already has an active order"}
	}
	delete(b.active, sourceID)
	o.TableID = targetID
	b.active[targetID] = o
	return nil
}

// MergeOrders appends the lines of the sourceIDs orders, in the order given,
// to the order of absorbingID. The absorbing order keeps its status, server
// and timestamp. Sources without an order are skipped. If
// the absorbing table has no order it adopts the first source order found.
func (b *OrderBook) MergeOrders(absorbingID int, sourceIDs []int) (domain.Order, error) {
	if err := validateMergeSources(absorbingID, sourceIDs); err != nil {
		return domain.Order{}, err
	}

	target, hasTarget := b.active[absorbingID]
	var merged domain.Order
	if hasTarget {
		merged = target.Clone()
	}
	found := hasTarget
	for _, id := range sourceIDs {
		src, ok := b.active[id]
		if !ok {
			continue
		}
		if !found {
			merged = src.Clone()
			merged.TableID = absorbingID
			found = true
			continue
		}
		merged.Items = append(merged.Items, src.Items...)
		merged.Paid = append(merged.Paid, src.Paid...)
		if merged.CustomerID == "" {
			merged.CustomerID = src.CustomerID
		}
	}
	if !found {
		return domain.Order{}, domain.OrderNotFound(absorbingID)
	}

	for _, id := range sourceIDs {
		delete(b.active, id)
	}
	b.active[absorbingID] = &merged
	return merged.Clone(), nil
}

// Resolve matches a payment selection against the active order and returns
// the selected lines carrying the order's own name and price.
func (b *OrderBook) Resolve(tableID int, selection []domain.OrderItem) ([]domain.OrderItem, error) {
	o, ok := b.active[tableID]
	if !ok {
		return nil, domain.OrderNotFound(tableID)
	}
	_, settled, err := settle(o.Items, selection)
	return settled, err
}

// RecordPartialPayment removes the paid quantities from the active order.
// When nothing is left the order completes and moves to history.
func (b *OrderBook) RecordPartialPayment(tableID int, paid []domain.OrderItem) (domain.Order, error) {
	o, ok := b.active[tableID]
	if !ok {
		return domain.Order{}, domain.OrderNotFound(tableID)
	}
	if len(paid) == 0 {
		return domain.Order{}, domain.ValidationError{Field: "items", Message: "select at least one item to pay"}
	}
	remaining, settled, err := settle(o.Items, paid)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = remaining
	o.Paid = append(o.Paid, settled...)
	if len(remaining) > 0 {
		return o.Clone(), nil
	}

	o.Status = domain.OrderCompleted
	delete(b.active, tableID)
	b.history = append(b.history, o.Clone())
	return o.Clone(), nil
}

// settle takes the requested quantities out of items. A selection draws on
// every line with its key, earliest first. It works on a copy so a failed
// selection leaves items untouched.
func settle(items, selection []domain.OrderItem) (remaining, settled []domain.OrderItem, err error) {
	remaining = append([]domain.OrderItem(nil), items...)
	for _, sel := range selection {
		if sel.Quantity < 1 {
			return nil, nil, domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("item %d: quantity must be at least 1", sel.ID)}
		}
		found, left := false, 0
		for _, line := range remaining {
			if line.Key() == sel.Key() {
				found = true
				left += line.Quantity
			}
		}
		if !found {
			return nil, nil, domain.ValidationError{Field: "items", Message: fmt.Sprintf("item %d (%s) is not on the order", sel.ID, sel.Name)}
		}
		if sel.Quantity > left {
			return nil, nil, domain.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("item %d: paying %d but only %d left", sel.ID, sel.Quantity, left),
			}
		}

		need := sel.Quantity
		kept := make([]domain.OrderItem, 0, len(remaining))
		for _, line := range remaining {
			if need == 0 || line.Key() != sel.Key() {
				kept = append(kept, line)
				continue
			}
			take := min(need, line.Quantity)
			paid := line
			paid.Quantity = take
			settled = append(settled, paid)
			need -= take
			if take < line.Quantity {
				line.Quantity -= take
				kept = append(kept, line)
			}
		}
		remaining = kept
	}
	return remaining, settled, nil
}

func validateMergeSources(absorbingID int, sourceIDs []int) error {
	if len(sourceIDs) == 0 {
		return domain.ValidationError{Field: "tables", Message: "select at least one table to merge"}
	}
	seen := map[int]bool{absorbingID: true}
	for _, id := range sourceIDs {
		if seen[id] {
			return domain.ValidationError{Field: "tables", Message: fmt.Sprintf("table %d cannot be merged twice or into itself", id)}
		}
		seen[id] = true
	}
	return nil
}

func validateItems(items []domain.OrderItem) error {
	if len(items) == 0 {
		return domain.ValidationError{Field: "items", Message: "order must contain at least one item"}
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("item %d: quantity must be at least 1", it.ID)}
		}
	}
	return nil
}
