package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"restaurant-pos/report-svc/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type StoreInterface struct {
	mock.Mock
}

func (_m *StoreInterface) MarkProcessed(ctx context.Context, receiptID int) (bool, error) {
	ret := _m.Called(ctx, receiptID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *StoreInterface) ForgetProcessed(ctx context.Context, receiptID int) error {
	ret := _m.Called(ctx, receiptID)
	return ret.Error(0)
}

func (_m *StoreInterface) RecordSale(ctx context.Context, date string, items []domain.SoldItem, amount decimal.Decimal) error {
	ret := _m.Called(ctx, date, items, amount)
	return ret.Error(0)
}

func NewStoreInterface(t testingT) *StoreInterface {
	m := &StoreInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type SalesReader struct {
	mock.Mock
}

func (_m *SalesReader) CachedTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	ret := _m.Called(ctx, date, limit)
	var r0 []domain.DishSales
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.DishSales)
	}
	return r0, ret.Error(1)
}

func (_m *SalesReader) CachedRevenue(ctx context.Context, date string) (domain.DailyRevenue, bool, error) {
	ret := _m.Called(ctx, date)
	return ret.Get(0).(domain.DailyRevenue), ret.Bool(1), ret.Error(2)
}

func (_m *SalesReader) JournalTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	ret := _m.Called(ctx, date, limit)
	var r0 []domain.DishSales
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.DishSales)
	}
	return r0, ret.Error(1)
}

func (_m *SalesReader) JournalRevenue(ctx context.Context, date string) (domain.DailyRevenue, error) {
	ret := _m.Called(ctx, date)
	return ret.Get(0).(domain.DailyRevenue), ret.Error(1)
}

func NewSalesReader(t testingT) *SalesReader {
	m := &SalesReader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type ReportInterface struct {
	mock.Mock
}

func (_m *ReportInterface) TopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	ret := _m.Called(ctx, date, limit)
	var r0 []domain.DishSales
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.DishSales)
	}
	return r0, ret.Error(1)
}

func (_m *ReportInterface) Revenue(ctx context.Context, date string) (domain.DailyRevenue, error) {
	ret := _m.Called(ctx, date)
	return ret.Get(0).(domain.DailyRevenue), ret.Error(1)
}

func NewReportInterface(t testingT) *ReportInterface {
	m := &ReportInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
