package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"restaurant-pos/pos-svc/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type EventPublisher struct {
	mock.Mock
}

func (_m *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type ReceiptArchive struct {
	mock.Mock
}

func (_m *ReceiptArchive) CreateReceipt(ctx context.Context, receipt domain.Receipt) error {
	ret := _m.Called(ctx, receipt)
	return ret.Error(0)
}

func (_m *ReceiptArchive) SaveQRCode(ctx context.Context, receiptID int, qr []byte) error {
	ret := _m.Called(ctx, receiptID, qr)
	return ret.Error(0)
}

func (_m *ReceiptArchive) GetQRCode(ctx context.Context, receiptID int) ([]byte, error) {
	ret := _m.Called(ctx, receiptID)
	var r0 []byte
	if v := ret.Get(0); v != nil {
		r0 = v.([]byte)
	}
	return r0, ret.Error(1)
}

func (_m *ReceiptArchive) LastReceiptID(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

func NewReceiptArchive(t testingT) *ReceiptArchive {
	m := &ReceiptArchive{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type PaymentGuard struct {
	mock.Mock
}

func (_m *PaymentGuard) PaymentMarkerKey(tableID int, idempotencyKey string) string {
	ret := _m.Called(tableID, idempotencyKey)
	return ret.String(0)
}

func (_m *PaymentGuard) Exists(ctx context.Context, key string) (bool, error) {
	ret := _m.Called(ctx, key)
	return ret.Bool(0), ret.Error(1)
}

func (_m *PaymentGuard) SetMarker(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

func NewPaymentGuard(t testingT) *PaymentGuard {
	m := &PaymentGuard{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type QRGenerator struct {
	mock.Mock
}

func (_m *QRGenerator) Generate(receiptID int) ([]byte, error) {
	ret := _m.Called(receiptID)
	var r0 []byte
	if v := ret.Get(0); v != nil {
		r0 = v.([]byte)
	}
	return r0, ret.Error(1)
}

func NewQRGenerator(t testingT) *QRGenerator {
	m := &QRGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
