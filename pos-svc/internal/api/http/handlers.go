package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/pos-svc/internal/domain"
	"restaurant-pos/pos-svc/internal/service"
)

type Handler struct {
	Floor service.FloorService
}

func NewHandler(floor service.FloorService) *Handler {
	return &Handler{Floor: floor}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/tables", h.getTables).Methods("GET")
	r.HandleFunc("/api/tables/{id}", h.getTable).Methods("GET")
	r.HandleFunc("/api/tables/{id}/open", h.openTable).Methods("POST")
	r.HandleFunc("/api/tables/{id}/seat", h.seatBooking).Methods("POST")
	r.HandleFunc("/api/tables/{id}/close", h.closeTable).Methods("POST")
	r.HandleFunc("/api/tables/{id}/booking", h.recordBooking).Methods("PUT")
	r.HandleFunc("/api/tables/{id}/booking", h.updateBooking).Methods("PATCH")
	r.HandleFunc("/api/tables/{id}/transfer", h.transferTable).Methods("POST")
	r.HandleFunc("/api/tables/{id}/merge", h.mergeTables).Methods("POST")

	r.HandleFunc("/api/orders", h.getActiveOrders).Methods("GET")
	r.HandleFunc("/api/orders/history", h.getOrderHistory).Methods("GET")
	r.HandleFunc("/api/tables/{id}/order", h.getOrder).Methods("GET")
	r.HandleFunc("/api/tables/{id}/order", h.submitOrder).Methods("POST")
	r.HandleFunc("/api/tables/{id}/order/items", h.updateItems).Methods("PUT")
	r.HandleFunc("/api/tables/{id}/order/status", h.updateOrderStatus).Methods("PUT")
	r.HandleFunc("/api/tables/{id}/order/customer", h.attachCustomer).Methods("PUT")

	r.HandleFunc("/api/tables/{id}/bill", h.previewBill).Methods("POST")
	r.HandleFunc("/api/tables/{id}/payments", h.pay).Methods("POST")
	r.HandleFunc("/api/receipts/{id}", h.getReceipt).Methods("GET")
	r.HandleFunc("/api/receipts/{id}/qrcode", h.getReceiptQRCode).Methods("GET")

	r.HandleFunc("/api/customers", h.getCustomers).Methods("GET")
	r.HandleFunc("/api/customers", h.registerCustomer).Methods("POST")
	r.HandleFunc("/api/customers/{id}", h.getCustomer).Methods("GET")
	r.HandleFunc("/api/customers/{id}/points", h.addPoints).Methods("POST")
	r.HandleFunc("/api/customers/{id}/tier", h.setTier).Methods("PUT")

	r.HandleFunc("/api/promotions", h.getPromotions).Methods("GET")
	r.HandleFunc("/api/promotions", h.addPromotion).Methods("POST")
	r.HandleFunc("/api/promotions/{id}/active", h.setPromotionActive).Methods("PUT")

	r.HandleFunc("/api/bookings", h.getBookings).Methods("GET")
	r.HandleFunc("/api/bookings", h.createBooking).Methods("POST")

	r.HandleFunc("/api/inventory", h.getInventory).Methods("GET")
	r.HandleFunc("/api/inventory/low-stock", h.getLowStock).Methods("GET")
	r.HandleFunc("/api/inventory/value", h.getInventoryValue).Methods("GET")
	r.HandleFunc("/api/inventory/{id}/stock-in", h.stockIn).Methods("POST")
	r.HandleFunc("/api/inventory/{id}/adjust", h.adjustStock).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "pos-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) getTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.Tables())
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	respond(w, http.StatusOK)(h.Floor.Table(id))
}

type guestsRequest struct {
	Guests int `json:"guests"`
}

func (h *Handler) openTable(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req guestsRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.OpenTable(id, req.Guests))
}

func (h *Handler) seatBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req guestsRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.SeatBooking(id, req.Guests))
}

func (h *Handler) closeTable(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	respond(w, http.StatusOK)(h.Floor.CloseTable(id))
}

func (h *Handler) recordBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var details domain.BookingDetails
	if !decode(w, r, &details) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.RecordBooking(id, details))
}

func (h *Handler) updateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var details domain.BookingDetails
	if !decode(w, r, &details) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.UpdateBookingDetails(id, details))
}

func (h *Handler) transferTable(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Target int `json:"target"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.TransferTable(id, req.Target))
}

func (h *Handler) mergeTables(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Sources []int `json:"sources"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.MergeTables(id, req.Sources))
}

func (h *Handler) getActiveOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.ActiveOrders())
}

func (h *Handler) getOrderHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.OrderHistory())
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	respond(w, http.StatusOK)(h.Floor.Order(id))
}

type itemsRequest struct {
	Items []domain.OrderItem `json:"items"`
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Items    []domain.OrderItem `json:"items"`
		ServerID string             `json:"server_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusCreated)(h.Floor.SubmitOrder(r.Context(), id, req.Items, req.ServerID))
}

func (h *Handler) updateItems(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req itemsRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.UpdateItems(r.Context(), id, req.Items))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.UpdateOrderStatus(r.Context(), id, req.Status))
}

func (h *Handler) attachCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.AttachCustomer(id, req.CustomerID))
}

func (h *Handler) previewBill(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req itemsRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	bill, err := h.Floor.PreviewBill(id, req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill.Rounded())
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Items      []domain.OrderItem   `json:"items"`
		CustomerID string               `json:"customer_id"`
		Method     domain.PaymentMethod `json:"method"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusCreated)(h.Floor.Pay(r.Context(), service.PaymentRequest{
		TableID:        id,
		Items:          req.Items,
		CustomerID:     req.CustomerID,
		Method:         req.Method,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}))
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	respond(w, http.StatusOK)(h.Floor.Receipt(id))
}

func (h *Handler) getReceiptQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	qr, err := h.Floor.ReceiptQRCode(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(qr)
}

func (h *Handler) getCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.Customers(r.URL.Query().Get("q")))
}

func (h *Handler) registerCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusCreated)(h.Floor.RegisterCustomer(req.Name, req.Phone, req.Email))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK)(h.Floor.Customer(mux.Vars(r)["id"]))
}

func (h *Handler) addPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points int `json:"points"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.AddPoints(mux.Vars(r)["id"], req.Points))
}

func (h *Handler) setTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier domain.Tier `json:"tier"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.SetTier(mux.Vars(r)["id"], req.Tier))
}

func (h *Handler) getPromotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.Promotions())
}

func (h *Handler) addPromotion(w http.ResponseWriter, r *http.Request) {
	var p domain.Promotion
	if !decode(w, r, &p) {
		return
	}
	respond(w, http.StatusCreated)(h.Floor.AddPromotion(p))
}

func (h *Handler) setPromotionActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.SetPromotionActive(mux.Vars(r)["id"], req.Active))
}

func (h *Handler) getBookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.Bookings())
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusCreated)(h.Floor.CreateBooking(req))
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.Inventory())
}

func (h *Handler) getLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Floor.LowStock())
}

func (h *Handler) getInventoryValue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_value": h.Floor.InventoryValue().Round(2),
	})
}

func (h *Handler) stockIn(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity float64 `json:"quantity"`
		UnitCost float64 `json:"unit_cost"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.StockIn(id, req.Quantity, req.UnitCost))
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Delta float64 `json:"delta"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK)(h.Floor.AdjustStock(id, req.Delta))
}

func intVar(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// respond adapts a (value, error) service result into a response.
func respond(w http.ResponseWriter, status int) func(interface{}, error) {
	return func(v interface{}, err error) {
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, status, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
