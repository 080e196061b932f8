package gateway_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restaurant-pos/api-gateway/internal/gateway"
	"restaurant-pos/api-gateway/internal/mocks"
)

func okResponse(body string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func TestGateway_HealthCheck(t *testing.T) {
	gw := gateway.NewGateway(gateway.Config{}, nil)

	rr := httptest.NewRecorder()
	gw.SetupRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "api-gateway", body["service"])
}

func TestGateway_RouteHandler(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		body      string
		wantURL   string
		wantQuery string
	}{
		{name: "tables", method: http.MethodGet, target: "/api/tables", wantURL: "http://pos-svc/api/tables"},
		{name: "payment", method: http.MethodPost, target: "/api/tables/3/payments", body: `{"items":[]}`, wantURL: "http://pos-svc/api/tables/3/payments"},
		{name: "receipt qr", method: http.MethodGet, target: "/api/receipts/7/qrcode", wantURL: "http://pos-svc/api/receipts/7/qrcode"},
		{name: "top dishes", method: http.MethodGet, target: "/api/reports/top-dishes?date=2024-03-15&limit=3", wantURL: "http://report-svc/api/reports/top-dishes", wantQuery: "date=2024-03-15&limit=3"},
		{name: "revenue", method: http.MethodGet, target: "/api/reports/revenue", wantURL: "http://report-svc/api/reports/revenue"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockClient := mocks.NewHTTPClient(t)
			gw := gateway.NewGateway(gateway.Config{
				PosSvcURL:    "http://pos-svc",
				ReportSvcURL: "http://report-svc",
			}, mockClient)

			mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
				return req.Method == testCase.method &&
					req.URL.Scheme+"://"+req.URL.Host+req.URL.Path == testCase.wantURL &&
					req.URL.RawQuery == testCase.wantQuery &&
					req.Header.Get("Idempotency-Key") == "k-1"
			})).Return(okResponse(`{"ok":true}`), nil).Once()

			var body io.Reader
			if testCase.body != "" {
				body = strings.NewReader(testCase.body)
			}
			req := httptest.NewRequest(testCase.method, testCase.target, body)
			req.Header.Set("Idempotency-Key", "k-1")
			rr := httptest.NewRecorder()

			gw.SetupRoutes().ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), "ok")
		})
	}
}

func TestGateway_RouteHandler_UpstreamStatusPassesThrough(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(gateway.Config{PosSvcURL: "http://pos-svc"}, mockClient)

	mockClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusConflict,
		Body:       io.NopCloser(strings.NewReader("table 4: cannot go from booked to serving")),
		Header:     make(http.Header),
	}, nil).Once()

	rr := httptest.NewRecorder()
	gw.RouteHandler(rr, httptest.NewRequest(http.MethodPost, "/api/tables/4/open", strings.NewReader(`{"guests":2}`)))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "booked")
}

func TestGateway_RouteHandler_ProxyError(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(gateway.Config{
		ReportSvcURL: "http://invalid",
	}, mockClient)

	mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection failed")).Once()

	rr := httptest.NewRecorder()
	gw.RouteHandler(rr, httptest.NewRequest(http.MethodGet, "/api/reports/revenue", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestGateway_RouteHandler_Frontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>POS</h1>"), 0o600))
	gw := gateway.NewGateway(gateway.Config{FrontendDir: dir}, nil)

	rr := httptest.NewRecorder()
	gw.SetupRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/floor", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "POS")
}
