package service

import (
	"context"

	"github.com/shopspring/decimal"

	"restaurant-pos/report-svc/internal/domain"
	"restaurant-pos/report-svc/internal/storage"
)

type StoreInterface interface {
	MarkProcessed(ctx context.Context, receiptID int) (bool, error)
	ForgetProcessed(ctx context.Context, receiptID int) error
	RecordSale(ctx context.Context, date string, items []domain.SoldItem, amount decimal.Decimal) error
}

type SalesReader interface {
	CachedTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error)
	CachedRevenue(ctx context.Context, date string) (domain.DailyRevenue, bool, error)
	JournalTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error)
	JournalRevenue(ctx context.Context, date string) (domain.DailyRevenue, error)
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	ProcessPayment(ctx context.Context, event domain.PaymentEvent)
}

type ReportInterface interface {
	TopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error)
	Revenue(ctx context.Context, date string) (domain.DailyRevenue, error)
}

var (
	_ StoreInterface  = (*storage.Store)(nil)
	_ SalesReader     = (*storage.Store)(nil)
	_ ReportInterface = (*ReportService)(nil)
)
