package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/report-svc/internal/domain"
	"restaurant-pos/report-svc/internal/service"
)

const defaultTopDishesLimit = 10

type Handler struct {
	Reports service.ReportInterface
	Now     func() time.Time
}

func NewHandler(svc service.ReportInterface) *Handler {
	return &Handler{Reports: svc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "report-svc"})
	}).Methods("GET")
	r.HandleFunc("/api/reports/top-dishes", h.getTopDishes).Methods("GET")
	r.HandleFunc("/api/reports/revenue", h.getRevenue).Methods("GET")
}

func (h *Handler) getTopDishes(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	limit := defaultTopDishesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	dishes, err := h.Reports.TopDishes(r.Context(), date, limit)
	if err != nil {
		log.WithError(err).WithField("date", date).Error("failed to load top dishes")
		http.Error(w, "failed to load top dishes", http.StatusInternalServerError)
		return
	}
	if dishes == nil {
		dishes = []domain.DishSales{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dishes)
}

func (h *Handler) getRevenue(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	revenue, err := h.Reports.Revenue(r.Context(), date)
	if err != nil {
		log.WithError(err).WithField("date", date).Error("failed to load revenue")
		http.Error(w, "failed to load revenue", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(revenue)
}

// date reads the ?date= parameter, defaulting to today.
func (h *Handler) date(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return h.Now().Format(domain.DateLayout), true
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return "", false
	}
	return date, true
}
