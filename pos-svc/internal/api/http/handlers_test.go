package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpapi "restaurant-pos/pos-svc/internal/api/http"
	"restaurant-pos/pos-svc/internal/domain"
	"restaurant-pos/pos-svc/internal/mocks"
	"restaurant-pos/pos-svc/internal/service"
)

func clock() time.Time { return time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC) }

func setupTestRouter(t *testing.T, sinks service.Sinks) http.Handler {
	t.Helper()
	floor := service.NewFloor(service.Stores{
		Tables: service.NewTableRegistry([]domain.Table{
			{ID: 1, Status: domain.TableEmpty, MaxSeats: 4},
			{ID: 2, Status: domain.TableEmpty, MaxSeats: 4},
			{ID: 5, Status: domain.TableEmpty, MaxSeats: 2},
		}, clock),
		Customers: service.NewLoyaltyLedger([]domain.Customer{
			{ID: "C001", Name: "Nguyen Van A", Phone: "0901234567", Tier: domain.TierGold},
		}, 1000),
		Promotions: service.NewPromotionDirectory([]domain.Promotion{
			{ID: "P001", Name: "Happy Hour 20% Off", Type: domain.PromotionDiscount, Value: 20, IsActive: true},
		}),
		Pantry: service.NewPantry([]domain.Ingredient{
			{ID: 1, Name: "Beef", Unit: "kg", Quantity: 25, MinThreshold: 10, UnitCost: 250000},
			{ID: 3, Name: "Lettuce", Unit: "kg", Quantity: 5, MinThreshold: 8, UnitCost: 30000},
		}),
		Billing: service.NewBillingEngine(0.08),
	}, sinks, clock)
	return httpapi.NewRouter(httpapi.NewHandler(floor))
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandler_healthCheck(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})
	recorder := do(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "pos-svc", body["service"])
}

func TestHandler_openTable(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		payload      string
		expectedCode int
		expectedBody string
	}{
		{name: "success", path: "/api/tables/5/open", payload: `{"guests":2}`, expectedCode: http.StatusOK, expectedBody: `"status":"serving"`},
		{name: "over_capacity", path: "/api/tables/5/open", payload: `{"guests":3}`, expectedCode: http.StatusBadRequest, expectedBody: "seats at most 2"},
		{name: "invalid_json", path: "/api/tables/5/open", payload: `bad json`, expectedCode: http.StatusBadRequest},
		{name: "invalid_id", path: "/api/tables/five/open", payload: `{"guests":2}`, expectedCode: http.StatusBadRequest},
		{name: "unknown_table", path: "/api/tables/40/open", payload: `{"guests":2}`, expectedCode: http.StatusNotFound},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			router := setupTestRouter(t, service.Sinks{})
			recorder := do(t, router, "POST", testCase.path, testCase.payload)
			assert.Equal(t, testCase.expectedCode, recorder.Code)
			if testCase.expectedBody != "" {
				assert.Contains(t, recorder.Body.String(), testCase.expectedBody)
			}
		})
	}

	router := setupTestRouter(t, service.Sinks{})
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)
}

func TestHandler_orderLifecycle(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})

	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)

	recorder := do(t, router, "POST", "/api/tables/1/order",
		`{"server_id":"S01","items":[{"id":1,"name":"Steak","price":100000,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"pending"`)

	assert.Equal(t, http.StatusConflict, do(t, router, "PUT", "/api/tables/1/order/status", `{"status":"ready"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, "PUT", "/api/tables/1/order/status", `{"status":"cooking"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "PUT", "/api/tables/1/order/customer", `{"customer_id":"C404"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, "PUT", "/api/tables/1/order/customer", `{"customer_id":"C001"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, "POST", "/api/tables/1/close", "").Code)

	recorder = do(t, router, "POST", "/api/tables/1/bill", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var bill domain.BillDetails
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&bill))
	assert.Equal(t, "172800.00", bill.GrandTotal.StringFixed(2))
	require.Len(t, bill.AppliedPromotions, 1)
	assert.Equal(t, "Happy Hour 20% Off", bill.AppliedPromotions[0].Name)

	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/tables/1/payments", `{"items":[]}`).Code)

	recorder = do(t, router, "POST", "/api/tables/1/payments", `{"items":[{"id":1,"quantity":2}],"method":"card"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var receipt domain.Receipt
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&receipt))
	assert.True(t, receipt.OrderCompleted)
	assert.Equal(t, "C001", receipt.CustomerID)
	assert.Equal(t, 172, receipt.PointsEarned)

	recorder = do(t, router, "GET", "/api/tables/1", "")
	assert.Contains(t, recorder.Body.String(), `"status":"empty"`)
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/tables/1/order", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, "GET", "/api/receipts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/receipts/2", "").Code)

	recorder = do(t, router, "GET", "/api/orders/history", "")
	assert.Contains(t, recorder.Body.String(), `"status":"completed"`)
	recorder = do(t, router, "GET", "/api/customers/C001", "")
	assert.Contains(t, recorder.Body.String(), `"points":172`)
}

func TestHandler_invalidPriceIsUnprocessable(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/2/open", `{"guests":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/2/order",
		`{"items":[{"id":9,"name":"Special","price":0,"quantity":1}]}`).Code)

	recorder := do(t, router, "POST", "/api/tables/2/payments", `{"items":[{"id":9,"quantity":1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Special")
}

func TestHandler_idempotentPayment(t *testing.T) {
	guard := mocks.NewPaymentGuard(t)
	router := setupTestRouter(t, service.Sinks{Guard: guard})

	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/1/order",
		`{"items":[{"id":1,"name":"Pho","price":65000,"quantity":2}]}`).Code)

	guard.On("PaymentMarkerKey", 1, "k-1").Return("payment:1:k-1")
	guard.On("Exists", mock.Anything, "payment:1:k-1").Return(false, nil).Once()
	guard.On("SetMarker", mock.Anything, "payment:1:k-1").Return(nil).Once()
	guard.On("Exists", mock.Anything, "payment:1:k-1").Return(true, nil).Once()

	pay := func() int {
		req := httptest.NewRequest("POST", "/api/tables/1/payments", bytes.NewBufferString(`{"items":[{"id":1,"quantity":1}]}`))
		req.Header.Set("Idempotency-Key", "k-1")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder.Code
	}
	assert.Equal(t, http.StatusCreated, pay())
	assert.Equal(t, http.StatusConflict, pay())
}

func TestHandler_receiptQRCode(t *testing.T) {
	qr := mocks.NewQRGenerator(t)
	router := setupTestRouter(t, service.Sinks{QR: qr})

	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/1/order",
		`{"items":[{"id":1,"name":"Pho","price":65000,"quantity":1}]}`).Code)
	qr.On("Generate", 1).Return([]byte("\x89PNG"), nil).Once()
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/1/payments", `{"items":[{"id":1,"quantity":1}]}`).Code)

	recorder := do(t, router, "GET", "/api/receipts/1/qrcode", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "image/png", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", recorder.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/receipts/3/qrcode", "").Code)
}

func TestHandler_tableMoves(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":2}`).Code)
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/1/order",
		`{"items":[{"id":1,"name":"Pho","price":65000,"quantity":1}]}`).Code)

	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/tables/1/transfer", `{"target":1}`).Code)
	recorder := do(t, router, "POST", "/api/tables/1/transfer", `{"target":2}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":2`)

	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/1/open", `{"guests":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, router, "POST", "/api/tables/1/order",
		`{"items":[{"id":2,"name":"Tea","price":10000,"quantity":1}]}`).Code)
	require.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/2/merge", `{"sources":[1]}`).Code)

	recorder = do(t, router, "GET", "/api/orders", "")
	var orders []domain.Order
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].TableID)
	assert.Len(t, orders[0].Items, 2)
}

func TestHandler_bookings(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})

	recorder := do(t, router, "POST", "/api/bookings",
		`{"customer_name":"Hoa","customer_phone":"0933","date":"2024-03-16","time":"19:30","guests":2,"table_id":5}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"B001"`)

	recorder = do(t, router, "PATCH", "/api/tables/5/booking", `{"notes":"window seat"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"notes":"window seat"`)

	assert.Equal(t, http.StatusConflict, do(t, router, "POST", "/api/tables/5/open", `{"guests":2}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, "POST", "/api/tables/5/seat", `{"guests":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "PUT", "/api/tables/1/booking", `{"name":"X"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/bookings", `{"customer_name":"Hoa"}`).Code)

	recorder = do(t, router, "GET", "/api/bookings", "")
	assert.Contains(t, recorder.Body.String(), `"status":"confirmed"`)
}

func TestHandler_customersAndPromotions(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})

	recorder := do(t, router, "POST", "/api/customers", `{"name":"Le Van C","phone":"0923456789"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"C002"`)

	recorder = do(t, router, "GET", "/api/customers?q=le%20van", "")
	assert.Contains(t, recorder.Body.String(), "C002")
	assert.NotContains(t, recorder.Body.String(), "C001")

	assert.Equal(t, http.StatusOK, do(t, router, "POST", "/api/customers/C002/points", `{"points":25}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/customers/C002/points", `{"points":-1}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, "PUT", "/api/customers/C002/tier", `{"tier":"Platinum"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/customers/C999", "").Code)

	recorder = do(t, router, "POST", "/api/promotions", `{"name":"Lunch","type":"discount","value":10,"is_active":true}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"P002"`)
	assert.Equal(t, http.StatusOK, do(t, router, "PUT", "/api/promotions/P001/active", `{"active":false}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "PUT", "/api/promotions/P404/active", `{"active":true}`).Code)
}

func TestHandler_inventory(t *testing.T) {
	router := setupTestRouter(t, service.Sinks{})

	recorder := do(t, router, "GET", "/api/inventory/low-stock", "")
	assert.Contains(t, recorder.Body.String(), "Lettuce")
	assert.NotContains(t, recorder.Body.String(), "Beef")

	recorder = do(t, router, "GET", "/api/inventory/value", "")
	assert.Contains(t, recorder.Body.String(), `"6400000"`)

	assert.Equal(t, http.StatusOK, do(t, router, "POST", "/api/inventory/3/stock-in", `{"quantity":10,"unit_cost":32000}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/inventory/1/adjust", `{"delta":-30}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, "POST", "/api/inventory/1/adjust", `{"delta":-5}`).Code)

	recorder = do(t, router, "GET", "/api/inventory/low-stock", "")
	assert.Equal(t, "null\n", recorder.Body.String())
}
