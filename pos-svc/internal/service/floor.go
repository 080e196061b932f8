package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/pos-svc/internal/domain"
)

const DefaultVATRate = 0.08

// DefaultGuardTimeout bounds each PaymentGuard call made while the floor is locked.
const DefaultGuardTimeout = 200 * time.Millisecond

type PaymentRequest struct {
	TableID    int
	Items      []domain.OrderItem
	CustomerID string
	Method     domain.PaymentMethod
	// IdempotencyKey makes retries of the same payment safe when a PaymentGuard is set.
	IdempotencyKey string
}

type BookingRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Guests        int    `json:"guests"`
	TableID       *int   `json:"table_id"`
	Notes         string `json:"notes"`
}

// Stores are the in-memory collaborators a Floor operates on. Nil fields are
// replaced with empty ones.
type Stores struct {
	Tables     *TableRegistry
	Orders     *OrderBook
	Customers  *LoyaltyLedger
	Promotions *PromotionDirectory
	Pantry     *Pantry
	Billing    *BillingEngine
}

// Sinks receive copies of floor activity after it is committed. Any of them
// may be nil.
type Sinks struct {
	Publisher EventPublisher
	Archive   ReceiptArchive
	QR        QRGenerator
	Guard     PaymentGuard

	// GuardTimeout caps each Guard call. Zero means DefaultGuardTimeout.
	GuardTimeout time.Duration
}

// Floor is the single entry point for everything that changes the state of
// the restaurant. Calls are serialized; compound actions work on clones of
// the stores and swap them in only when every step succeeded.
type Floor struct {
	mu sync.Mutex

	tables     *TableRegistry
	orders     *OrderBook
	customers  *LoyaltyLedger
	promotions *PromotionDirectory
	pantry     *Pantry
	billing    *BillingEngine

	bookings      []domain.Booking
	receipts      map[int]domain.Receipt
	qrcodes       map[int][]byte
	lastReceiptID int

	sinks Sinks
	clock func() time.Time
}

func NewFloor(stores Stores, sinks Sinks, clock func() time.Time) *Floor {
	if clock == nil {
		clock = time.Now
	}
	if stores.Tables == nil {
		stores.Tables = NewTableRegistry(nil, clock)
	}
	if stores.Orders == nil {
		stores.Orders = NewOrderBook(nil, clock)
	}
	if stores.Customers == nil {
		stores.Customers = NewLoyaltyLedger(nil, DefaultPointsUnit)
	}
	if stores.Promotions == nil {
		stores.Promotions = NewPromotionDirectory(nil)
	}
	if stores.Pantry == nil {
		stores.Pantry = NewPantry(nil)
	}
	if stores.Billing == nil {
		stores.Billing = NewBillingEngine(DefaultVATRate)
	}
	return &Floor{
		tables:     stores.Tables,
		orders:     stores.Orders,
		customers:  stores.Customers,
		promotions: stores.Promotions,
		pantry:     stores.Pantry,
		billing:    stores.Billing,
		receipts:   make(map[int]domain.Receipt),
		qrcodes:    make(map[int][]byte),
		sinks:      sinks,
		clock:      clock,
	}
}

// SeedReceiptSequence continues receipt numbering after last, typically the
// highest id already in the archive.
func (f *Floor) SeedReceiptSequence(last int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if last > f.lastReceiptID {
		f.lastReceiptID = last
	}
}

func (f *Floor) Tables() []domain.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables.List()
}

func (f *Floor) Table(id int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables.Table(id)
}

func (f *Floor) OpenTable(id, guests int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tables.OpenTable(id, guests); err != nil {
		return domain.Table{}, err
	}
	log.WithFields(log.Fields{"table_id": id, "guests": guests}).Info("table opened")
	return f.tables.Table(id)
}

func (f *Floor) SeatBooking(id, guests int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tables.SeatBooking(id, guests); err != nil {
		return domain.Table{}, err
	}
	log.WithFields(log.Fields{"table_id": id, "guests": guests}).Info("booked party seated")
	return f.tables.Table(id)
}

func (f *Floor) CloseTable(id int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.orders.Active(id); busy {
		return domain.Table{}, domain.TransitionError{Entity: "table", ID: id, Reason: "table has an unpaid order"}
	}
	if err := f.tables.CloseTable(id); err != nil {
		return domain.Table{}, err
	}
	return f.tables.Table(id)
}

func (f *Floor) RecordBooking(id int, details domain.BookingDetails) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.orders.Active(id); busy {
		return domain.Table{}, domain.TransitionError{Entity: "table", ID: id, Reason: "table has an unpaid order"}
	}
	if err := f.tables.RecordBooking(id, details); err != nil {
		return domain.Table{}, err
	}
	return f.tables.Table(id)
}

func (f *Floor) UpdateBookingDetails(id int, partial domain.BookingDetails) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tables.UpdateBookingDetails(id, partial); err != nil {
		return domain.Table{}, err
	}
	return f.tables.Table(id)
}

// TransferTable moves the party and its order from sourceID to targetID.
func (f *Floor) TransferTable(sourceID, targetID int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tables, orders := f.tables.Clone(), f.orders.Clone()
	if err := tables.Transfer(sourceID, targetID); err != nil {
		return domain.Table{}, err
	}
	if _, ok := orders.Active(sourceID); ok {
		if err := orders.TransferOrder(sourceID, targetID); err != nil {
			return domain.Table{}, err
		}
	}
	f.tables, f.orders = tables, orders

	log.WithFields(log.Fields{"from": sourceID, "to": targetID}).Info("table transferred")
	return f.tables.Table(targetID)
}

// MergeTables folds the orders of sourceIDs into the serving table
// absorbingID and frees the source tables.
func (f *Floor) MergeTables(absorbingID int, sourceIDs []int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := validateMergeSources(absorbingID, sourceIDs); err != nil {
		return domain.Table{}, err
	}
	absorbing, err := f.tables.Table(absorbingID)
	if err != nil {
		return domain.Table{}, err
	}
	if absorbing.Status != domain.TableServing {
		return domain.Table{}, domain.TransitionError{Entity: "table", ID: absorbingID, Reason: "only a serving table can absorb other tables"}
	}

	tables, orders := f.tables.Clone(), f.orders.Clone()
	hasOrders := false
	for _, id := range append([]int{absorbingID}, sourceIDs...) {
		if _, ok := orders.Active(id); ok {
			hasOrders = true
			break
		}
	}
	if hasOrders {
		if _, err := orders.MergeOrders(absorbingID, sourceIDs); err != nil {
			return domain.Table{}, err
		}
	}
	if err := tables.Merge(sourceIDs); err != nil {
		return domain.Table{}, err
	}
	f.tables, f.orders = tables, orders

	log.WithFields(log.Fields{"table_id": absorbingID, "merged": sourceIDs}).Info("tables merged")
	return f.tables.Table(absorbingID)
}

func (f *Floor) SubmitOrder(ctx context.Context, tableID int, items []domain.OrderItem, serverID string) (domain.Order, error) {
	f.mu.Lock()
	t, err := f.tables.Table(tableID)
	if err != nil {
		f.mu.Unlock()
		return domain.Order{}, err
	}
	if t.Status != domain.TableServing {
		f.mu.Unlock()
		return domain.Order{}, domain.TransitionError{Entity: "table", ID: tableID, Reason: "orders can only be placed at a serving table"}
	}
	order, err := f.orders.SubmitOrder(tableID, items, serverID, "")
	f.mu.Unlock()
	if err != nil {
		return domain.Order{}, err
	}

	f.publish(ctx, domain.Event{
		Type:      domain.EventOrderSubmitted,
		TableID:   tableID,
		Status:    order.Status,
		Items:     order.Items,
		Timestamp: f.clock(),
	})
	return order, nil
}

func (f *Floor) UpdateItems(ctx context.Context, tableID int, items []domain.OrderItem) (domain.Order, error) {
	f.mu.Lock()
	order, err := f.orders.UpdateItems(tableID, items)
	f.mu.Unlock()
	if err != nil {
		return domain.Order{}, err
	}

	f.publish(ctx, domain.Event{
		Type:      domain.EventOrderItemsUpdated,
		TableID:   tableID,
		Status:    order.Status,
		Items:     order.Items,
		Timestamp: f.clock(),
	})
	return order, nil
}

func (f *Floor) UpdateOrderStatus(ctx context.Context, tableID int, status domain.OrderStatus) (domain.Order, error) {
	f.mu.Lock()
	order, err := f.orders.UpdateStatus(tableID, status)
	f.mu.Unlock()
	if err != nil {
		return domain.Order{}, err
	}

	f.publish(ctx, domain.Event{
		Type:      domain.EventOrderStatusChanged,
		TableID:   tableID,
		Status:    order.Status,
		Timestamp: f.clock(),
	})
	return order, nil
}

func (f *Floor) AttachCustomer(tableID int, customerID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.customers.Customer(customerID); err != nil {
		return domain.Order{}, err
	}
	return f.orders.SetCustomer(tableID, customerID)
}

func (f *Floor) Order(tableID int) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders.Active(tableID)
	if !ok {
		return domain.Order{}, domain.OrderNotFound(tableID)
	}
	return o, nil
}

func (f *Floor) ActiveOrders() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders.ActiveOrders()
}

func (f *Floor) OrderHistory() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders.History()
}

// PreviewBill prices the selected lines of the table's order, or the whole
// order when selection is empty.
func (f *Floor) PreviewBill(tableID int, selection []domain.OrderItem) (domain.BillDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders.Active(tableID)
	if !ok {
		return domain.BillDetails{}, domain.OrderNotFound(tableID)
	}
	lines := order.Items
	if len(selection) > 0 {
		var err error
		if lines, err = f.orders.Resolve(tableID, selection); err != nil {
			return domain.BillDetails{}, err
		}
	}
	return f.billing.Bill(lines, f.promotions.ActiveOn(f.clock()))
}

// Pay settles the selected lines of a table's order. Paying the last lines
// completes the order and frees the table.
func (f *Floor) Pay(ctx context.Context, req PaymentRequest) (domain.Receipt, error) {
	if len(req.Items) == 0 {
		return domain.Receipt{}, domain.ValidationError{Field: "items", Message: "select at least one item to pay"}
	}
	if req.Method == "" {
		req.Method = domain.PaymentCash
	}
	if !req.Method.Valid() {
		return domain.Receipt{}, domain.ValidationError{Field: "method", Message: fmt.Sprintf("unknown payment method %q", req.Method)}
	}

	f.mu.Lock()
	receipt, err := f.settlePayment(ctx, req)
	f.mu.Unlock()
	if err != nil {
		return domain.Receipt{}, err
	}

	logger := log.WithFields(log.Fields{"table_id": receipt.TableID, "receipt_id": receipt.ID})
	logger.WithField("grand_total", receipt.Bill.GrandTotal.StringFixed(2)).Info("payment recorded")

	if f.sinks.Archive != nil {
		if err := f.sinks.Archive.CreateReceipt(ctx, receipt); err != nil {
			logger.WithError(err).Warn("failed to archive receipt")
		}
	}
	if f.sinks.QR != nil {
		if qr, err := f.sinks.QR.Generate(receipt.ID); err != nil {
			logger.WithError(err).Warn("failed to generate receipt qr code")
		} else {
			f.storeQRCode(ctx, receipt.ID, qr)
		}
	}

	var status domain.OrderStatus
	if receipt.OrderCompleted {
		status = domain.OrderCompleted
	}
	f.publish(ctx, domain.Event{
		Type:       domain.EventPaymentCompleted,
		TableID:    receipt.TableID,
		Status:     status,
		Items:      receipt.Lines,
		ReceiptID:  receipt.ID,
		GrandTotal: receipt.Bill.GrandTotal,
		Timestamp:  receipt.PaidAt,
	})
	return receipt, nil
}

func (f *Floor) settlePayment(ctx context.Context, req PaymentRequest) (domain.Receipt, error) {
	var guardKey string
	if req.IdempotencyKey != "" && f.sinks.Guard != nil {
		guardKey = f.sinks.Guard.PaymentMarkerKey(req.TableID, req.IdempotencyKey)
		guardCtx, cancel := f.guardContext(ctx)
		exists, err := f.sinks.Guard.Exists(guardCtx, guardKey)
		cancel()
		if err != nil {
			log.WithError(err).WithField("key", guardKey).Warn("payment guard unavailable")
		} else if exists {
			return domain.Receipt{}, domain.TransitionError{Entity: "table", ID: req.TableID, Reason: "payment already processed"}
		}
	}

	now := f.clock()
	tables, orders, customers := f.tables.Clone(), f.orders.Clone(), f.customers.Clone()

	order, ok := orders.Active(req.TableID)
	if !ok {
		return domain.Receipt{}, domain.OrderNotFound(req.TableID)
	}
	lines, err := orders.Resolve(req.TableID, req.Items)
	if err != nil {
		return domain.Receipt{}, err
	}
	bill, err := f.billing.Bill(lines, f.promotions.ActiveOn(now))
	if err != nil {
		return domain.Receipt{}, err
	}
	bill = bill.Rounded()

	updated, err := orders.RecordPartialPayment(req.TableID, lines)
	if err != nil {
		return domain.Receipt{}, err
	}
	completed := updated.Status == domain.OrderCompleted
	if completed {
		if err := tables.CloseTable(req.TableID); err != nil {
			return domain.Receipt{}, err
		}
	}

	customerID := req.CustomerID
	if customerID == "" {
		customerID = order.CustomerID
	}
	points := 0
	if customerID != "" {
		_, known, err := customers.ApplyPayment(customerID, bill.GrandTotal)
		if err != nil {
			return domain.Receipt{}, err
		}
		if known {
			points = customers.PointsFor(bill.GrandTotal)
		}
	}

	f.lastReceiptID++
	receipt := domain.Receipt{
		ID:             f.lastReceiptID,
		TableID:        req.TableID,
		Lines:          lines,
		Bill:           bill,
		Method:         req.Method,
		CustomerID:     customerID,
		PointsEarned:   points,
		OrderCompleted: completed,
		PaidAt:         now,
		QRCode:         ReceiptQRLink(f.lastReceiptID),
	}
	f.tables, f.orders, f.customers = tables, orders, customers
	f.receipts[receipt.ID] = receipt

	if guardKey != "" {
		guardCtx, cancel := f.guardContext(ctx)
		if err := f.sinks.Guard.SetMarker(guardCtx, guardKey); err != nil {
			log.WithError(err).WithField("key", guardKey).Warn("failed to mark payment")
		}
		cancel()
	}
	return receipt, nil
}

func (f *Floor) guardContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := f.sinks.GuardTimeout
	if timeout <= 0 {
		timeout = DefaultGuardTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (f *Floor) Receipt(id int) (domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	if !ok {
		return domain.Receipt{}, domain.NotFoundError{Entity: "receipt", ID: fmt.Sprint(id)}
	}
	return r, nil
}

// ReceiptQRCode returns the PNG for a receipt. Codes missing from memory are
// read back from the archive and regenerated as a last resort.
func (f *Floor) ReceiptQRCode(ctx context.Context, id int) ([]byte, error) {
	f.mu.Lock()
	qr, cached := f.qrcodes[id]
	_, known := f.receipts[id]
	f.mu.Unlock()
	if cached {
		return qr, nil
	}

	if f.sinks.Archive != nil {
		stored, err := f.sinks.Archive.GetQRCode(ctx, id)
		switch {
		case err == nil && len(stored) > 0:
			f.mu.Lock()
			f.qrcodes[id] = stored
			f.mu.Unlock()
			return stored, nil
		case err == nil:
			known = true
		case !known:
			return nil, err
		default:
			log.WithError(err).WithField("receipt_id", id).Warn("failed to read archived qr code")
		}
	}
	if !known {
		return nil, domain.NotFoundError{Entity: "receipt", ID: fmt.Sprint(id)}
	}
	if f.sinks.QR == nil {
		return nil, domain.NotFoundError{Entity: "qr code for receipt", ID: fmt.Sprint(id)}
	}
	qr, err := f.sinks.QR.Generate(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}
	f.storeQRCode(ctx, id, qr)
	return qr, nil
}

func (f *Floor) storeQRCode(ctx context.Context, id int, qr []byte) {
	f.mu.Lock()
	f.qrcodes[id] = qr
	f.mu.Unlock()
	if f.sinks.Archive != nil {
		if err := f.sinks.Archive.SaveQRCode(ctx, id, qr); err != nil {
			log.WithError(err).WithField("receipt_id", id).Warn("failed to archive qr code")
		}
	}
}

func (f *Floor) Customers(query string) []domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers.Search(query)
}

func (f *Floor) Customer(id string) (domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers.Customer(id)
}

func (f *Floor) RegisterCustomer(name, phone, email string) (domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers.Register(name, phone, email)
}

func (f *Floor) AddPoints(id string, points int) (domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers.AddPoints(id, points)
}

func (f *Floor) SetTier(id string, tier domain.Tier) (domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers.SetTier(id, tier)
}

func (f *Floor) Promotions() []domain.Promotion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promotions.List()
}

func (f *Floor) AddPromotion(p domain.Promotion) (domain.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promotions.Add(p)
}

func (f *Floor) SetPromotionActive(id string, active bool) (domain.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promotions.SetActive(id, active)
}

func (f *Floor) Bookings() []domain.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Booking(nil), f.bookings...)
}

// CreateBooking records a reservation. When a table is assigned it must be
// empty and large enough, and it becomes booked.
func (f *Floor) CreateBooking(req BookingRequest) (domain.Booking, error) {
	if err := validateBooking(req); err != nil {
		return domain.Booking{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	status := domain.BookingPending
	var tableID *int
	if req.TableID != nil {
		id := *req.TableID
		t, err := f.tables.Table(id)
		if err != nil {
			return domain.Booking{}, err
		}
		if t.Status != domain.TableEmpty {
			return domain.Booking{}, domain.TransitionError{Entity: "table", ID: id, From: string(t.Status), To: string(domain.TableBooked)}
		}
		if t.MaxSeats > 0 && req.Guests > t.MaxSeats {
			return domain.Booking{}, domain.ValidationError{Field: "guests", Message: fmt.Sprintf("table %d seats at most %d guests", id, t.MaxSeats)}
		}
		details := domain.BookingDetails{Name: req.CustomerName, Phone: req.CustomerPhone, Time: req.Time, Notes: req.Notes}
		if err := f.tables.RecordBooking(id, details); err != nil {
			return domain.Booking{}, err
		}
		tableID = &id
		status = domain.BookingConfirmed
	}

	b := domain.Booking{
		ID:            fmt.Sprintf("B%03d", len(f.bookings)+1),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Date:          req.Date,
		Time:          req.Time,
		Guests:        req.Guests,
		TableID:       tableID,
		Status:        status,
		Notes:         req.Notes,
		CreatedAt:     f.clock(),
	}
	f.bookings = append(f.bookings, b)
	log.WithFields(log.Fields{"booking_id": b.ID, "guests": b.Guests}).Info("booking created")
	return b, nil
}

func validateBooking(req BookingRequest) error {
	if req.CustomerName == "" {
		return domain.ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if req.CustomerPhone == "" {
		return domain.ValidationError{Field: "customer_phone", Message: "customer phone is required"}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return domain.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	if req.Time == "" {
		return domain.ValidationError{Field: "time", Message: "time is required"}
	}
	if req.Guests < 1 {
		return domain.ValidationError{Field: "guests", Message: "at least one guest is required"}
	}
	return nil
}

func (f *Floor) Inventory() []domain.Ingredient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pantry.List()
}

func (f *Floor) LowStock() []domain.Ingredient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pantry.LowStock()
}

func (f *Floor) InventoryValue() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pantry.TotalValue()
}

func (f *Floor) StockIn(id int, quantity, unitCost float64) (domain.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pantry.StockIn(id, quantity, unitCost)
}

func (f *Floor) AdjustStock(id int, delta float64) (domain.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pantry.Adjust(id, delta)
}

func (f *Floor) publish(ctx context.Context, event domain.Event) {
	if f.sinks.Publisher == nil {
		return
	}
	if err := f.sinks.Publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("type", event.Type).Warn("failed to publish floor event")
	}
}
