package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/pos-svc/internal/domain"
	"restaurant-pos/pos-svc/internal/service"
)

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func discount(name string, value float64) domain.Promotion {
	return domain.Promotion{ID: name, Name: name, Type: domain.PromotionDiscount, Value: value, IsActive: true}
}

func TestComputeBill(t *testing.T) {
	tests := []struct {
		name       string
		items      []domain.OrderItem
		promotions []domain.Promotion
		vatRate    float64
		subtotal   string
		discount   string
		vat        string
		grandTotal string
		applied    int
	}{
		{
			name:       "single_discount",
			items:      []domain.OrderItem{item(1, "Steak", 100000, 2)},
			promotions: []domain.Promotion{discount("Happy Hour", 20)},
			vatRate:    0.08,
			subtotal:   "200000", discount: "40000", vat: "12800", grandTotal: "172800",
			applied: 1,
		},
		{
			name:     "no_promotions",
			items:    []domain.OrderItem{item(1, "Pho", 65000, 1), item(2, "Tea", 10000, 2)},
			vatRate:  0.1,
			subtotal: "85000", discount: "0", vat: "8500", grandTotal: "93500",
		},
		{
			name:  "discounts_stack_on_original_subtotal",
			items: []domain.OrderItem{item(1, "Pho", 50000, 2)},
			promotions: []domain.Promotion{
				discount("Weekday", 10),
				discount("Member", 5),
			},
			vatRate:  0,
			subtotal: "100000", discount: "15000", vat: "0", grandTotal: "85000",
			applied: 2,
		},
		{
			name:  "combo_and_inactive_are_ignored",
			items: []domain.OrderItem{item(1, "Pho", 50000, 2)},
			promotions: []domain.Promotion{
				{Name: "Steak Combo", Type: domain.PromotionCombo, Value: 15, IsActive: true},
				{Name: "Old", Type: domain.PromotionDiscount, Value: 50, IsActive: false},
			},
			vatRate:  0.08,
			subtotal: "100000", discount: "0", vat: "8000", grandTotal: "108000",
		},
		{
			name:     "empty_selection",
			vatRate:  0.08,
			subtotal: "0", discount: "0", vat: "0", grandTotal: "0",
		},
		{
			name:     "fractional_prices",
			items:    []domain.OrderItem{item(1, "Espresso", 2.35, 3)},
			vatRate:  0.08,
			subtotal: "7.05", discount: "0", vat: "0.564", grandTotal: "7.614",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			bill, err := service.ComputeBill(testCase.items, testCase.promotions, testCase.vatRate)
			require.NoError(t, err)
			assertAmount(t, testCase.subtotal, bill.Subtotal)
			assertAmount(t, testCase.discount, bill.TotalDiscount)
			assertAmount(t, testCase.vat, bill.VATAmount)
			assertAmount(t, testCase.grandTotal, bill.GrandTotal)
			assert.Len(t, bill.AppliedPromotions, testCase.applied)
		})
	}
}

func TestComputeBill_InvalidPrice(t *testing.T) {
	prices := map[string]float64{
		"zero":     0,
		"negative": -5000,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	}
	for name, price := range prices {
		t.Run(name, func(t *testing.T) {
			items := []domain.OrderItem{item(1, "Pho", 65000, 1), item(7, "Broken", price, 1)}
			_, err := service.ComputeBill(items, nil, 0.08)
			assert.ErrorIs(t, err, domain.ErrInvalidPrice)

			var priceErr domain.InvalidPriceError
			require.True(t, errors.As(err, &priceErr))
			assert.Equal(t, 7, priceErr.ItemID)
		})
	}

	_, err := service.ComputeBill(nil, nil, -0.1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestComputeBill_DiscountsBeyondSubtotal(t *testing.T) {
	items := []domain.OrderItem{item(1, "Steak", 100000, 1)}
	bill, err := service.ComputeBill(items, []domain.Promotion{discount("A", 70), discount("B", 60)}, 0.08)
	require.NoError(t, err)
	assertAmount(t, "130000", bill.TotalDiscount)
	assertAmount(t, "0", bill.VATAmount)
	assertAmount(t, "0", bill.GrandTotal)
}

func TestComputeBill_PermutationInvariant(t *testing.T) {
	items := []domain.OrderItem{
		item(1, "Pho", 65000, 2),
		item(2, "Tea", 10000.5, 3),
		item(3, "Rice", 42000.25, 1),
		item(4, "Beer", 25000, 4),
	}
	reversed := []domain.OrderItem{items[3], items[2], items[1], items[0]}
	rotated := []domain.OrderItem{items[2], items[0], items[3], items[1]}
	promotions := []domain.Promotion{discount("Happy Hour", 20)}

	want, err := service.ComputeBill(items, promotions, 0.08)
	require.NoError(t, err)
	for _, permutation := range [][]domain.OrderItem{reversed, rotated} {
		got, err := service.ComputeBill(permutation, promotions, 0.08)
		require.NoError(t, err)
		assert.True(t, want.Subtotal.Equal(got.Subtotal))
		assert.True(t, want.GrandTotal.Equal(got.GrandTotal))
	}
}

func TestComputeBill_SplitEqualsWhole(t *testing.T) {
	first := []domain.OrderItem{item(1, "Steak", 100000, 2)}
	second := []domain.OrderItem{item(2, "Wine", 100000, 1)}
	promotions := []domain.Promotion{discount("Flat 10", 10)}

	whole, err := service.ComputeBill(append(append([]domain.OrderItem{}, first...), second...), promotions, 0.08)
	require.NoError(t, err)
	a, err := service.ComputeBill(first, promotions, 0.08)
	require.NoError(t, err)
	b, err := service.ComputeBill(second, promotions, 0.08)
	require.NoError(t, err)

	assertAmount(t, "291600", whole.GrandTotal)
	assertAmount(t, "194400", a.GrandTotal)
	assertAmount(t, "97200", b.GrandTotal)
	assert.True(t, whole.GrandTotal.Equal(a.GrandTotal.Add(b.GrandTotal)))
}

func TestBillDetails_Rounded(t *testing.T) {
	bill, err := service.NewBillingEngine(0.08).Bill([]domain.OrderItem{item(1, "Espresso", 2.35, 3)}, nil)
	require.NoError(t, err)

	rounded := bill.Rounded()
	assert.Equal(t, "0.56", rounded.VATAmount.StringFixed(2))
	assert.Equal(t, "7.61", rounded.GrandTotal.StringFixed(2))
}

func TestPromotionDirectory(t *testing.T) {
	dir := service.NewPromotionDirectory([]domain.Promotion{
		{ID: "P001", Name: "Happy Hour 20% Off", Type: domain.PromotionDiscount, Value: 20, StartDate: "2024-01-01", EndDate: "2024-12-31", IsActive: true},
		{ID: "P002", Name: "Steak Combo", Type: domain.PromotionCombo, Value: 15, Items: []int{1, 8}, IsActive: true},
	})

	tests := []struct {
		name        string
		promotion   domain.Promotion
		expectedID  string
		expectedErr error
	}{
		{name: "assigns_next_id", promotion: domain.Promotion{Name: "Lunch", Type: domain.PromotionDiscount, Value: 10}, expectedID: "P003"},
		{name: "keeps_given_id", promotion: domain.Promotion{ID: "SUMMER", Name: "Summer", Type: domain.PromotionBuy1Get1}, expectedID: "SUMMER"},
		{name: "duplicate_id", promotion: domain.Promotion{ID: "P001", Name: "Again", Type: domain.PromotionCombo}, expectedErr: domain.ErrValidation},
		{name: "missing_name", promotion: domain.Promotion{Type: domain.PromotionCombo}, expectedErr: domain.ErrValidation},
		{name: "unknown_type", promotion: domain.Promotion{Name: "X", Type: "cashback"}, expectedErr: domain.ErrValidation},
		{name: "discount_over_100", promotion: domain.Promotion{Name: "X", Type: domain.PromotionDiscount, Value: 120}, expectedErr: domain.ErrValidation},
		{name: "bad_date", promotion: domain.Promotion{Name: "X", Type: domain.PromotionCombo, StartDate: "15/03/2024"}, expectedErr: domain.ErrValidation},
		{name: "inverted_window", promotion: domain.Promotion{Name: "X", Type: domain.PromotionCombo, StartDate: "2024-05-01", EndDate: "2024-04-01"}, expectedErr: domain.ErrValidation},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			p, err := dir.Add(testCase.promotion)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedID, p.ID)
		})
	}
	assert.Len(t, dir.List(), 4)

	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	names := func(ps []domain.Promotion) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Happy Hour 20% Off", "Steak Combo"}, names(dir.ActiveOn(day)))
	assert.Equal(t, []string{"Steak Combo"}, names(dir.ActiveOn(day.AddDate(1, 0, 0))))

	p, err := dir.SetActive("P001", false)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, []string{"Steak Combo"}, names(dir.ActiveOn(day)))

	_, err = dir.SetActive("P404", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
