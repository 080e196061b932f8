package service

import (
	"context"

	"github.com/shopspring/decimal"

	"restaurant-pos/pos-svc/internal/domain"
)

type FloorService interface {
	Tables() []domain.Table
	Table(id int) (domain.Table, error)
	OpenTable(id, guests int) (domain.Table, error)
	SeatBooking(id, guests int) (domain.Table, error)
	CloseTable(id int) (domain.Table, error)
	RecordBooking(id int, details domain.BookingDetails) (domain.Table, error)
	UpdateBookingDetails(id int, partial domain.BookingDetails) (domain.Table, error)
	TransferTable(sourceID, targetID int) (domain.Table, error)
	MergeTables(absorbingID int, sourceIDs []int) (domain.Table, error)

	SubmitOrder(ctx context.Context, tableID int, items []domain.OrderItem, serverID string) (domain.Order, error)
	UpdateItems(ctx context.Context, tableID int, items []domain.OrderItem) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, tableID int, status domain.OrderStatus) (domain.Order, error)
	AttachCustomer(tableID int, customerID string) (domain.Order, error)
	Order(tableID int) (domain.Order, error)
	ActiveOrders() []domain.Order
	OrderHistory() []domain.Order

	PreviewBill(tableID int, selection []domain.OrderItem) (domain.BillDetails, error)
	Pay(ctx context.Context, req PaymentRequest) (domain.Receipt, error)
	Receipt(id int) (domain.Receipt, error)
	ReceiptQRCode(ctx context.Context, id int) ([]byte, error)

	Customers(query string) []domain.Customer
	Customer(id string) (domain.Customer, error)
	RegisterCustomer(name, phone, email string) (domain.Customer, error)
	AddPoints(id string, points int) (domain.Customer, error)
	SetTier(id string, tier domain.Tier) (domain.Customer, error)

	Promotions() []domain.Promotion
	AddPromotion(p domain.Promotion) (domain.Promotion, error)
	SetPromotionActive(id string, active bool) (domain.Promotion, error)

	Bookings() []domain.Booking
	CreateBooking(req BookingRequest) (domain.Booking, error)

	Inventory() []domain.Ingredient
	LowStock() []domain.Ingredient
	InventoryValue() decimal.Decimal
	StockIn(id int, quantity, unitCost float64) (domain.Ingredient, error)
	AdjustStock(id int, delta float64) (domain.Ingredient, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type ReceiptArchive interface {
	CreateReceipt(ctx context.Context, receipt domain.Receipt) error
	SaveQRCode(ctx context.Context, receiptID int, qr []byte) error
	GetQRCode(ctx context.Context, receiptID int) ([]byte, error)
	LastReceiptID(ctx context.Context) (int, error)
}

type PaymentGuard interface {
	PaymentMarkerKey(tableID int, idempotencyKey string) string
	Exists(ctx context.Context, key string) (bool, error)
	SetMarker(ctx context.Context, key string) error
}

var _ FloorService = (*Floor)(nil)
