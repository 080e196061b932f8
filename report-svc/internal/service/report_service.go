package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"restaurant-pos/report-svc/internal/domain"
)

// ReportService answers sales questions from the Redis counters and falls
// back to the Postgres receipt journal when the counters are missing.
type ReportService struct {
	Store SalesReader
}

func NewReportService(store SalesReader) *ReportService {
	return &ReportService{Store: store}
}

func (s *ReportService) TopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	dishes, err := s.Store.CachedTopDishes(ctx, date, limit)
	if err != nil {
		log.WithError(err).WithField("date", date).Warn("sales cache unavailable, reading journal")
	}
	if err != nil || len(dishes) == 0 {
		return s.Store.JournalTopDishes(ctx, date, limit)
	}
	return dishes, nil
}

func (s *ReportService) Revenue(ctx context.Context, date string) (domain.DailyRevenue, error) {
	revenue, found, err := s.Store.CachedRevenue(ctx, date)
	if err != nil {
		log.WithError(err).WithField("date", date).Warn("revenue cache unavailable, reading journal")
	}
	if err != nil || !found {
		return s.Store.JournalRevenue(ctx, date)
	}
	return revenue, nil
}
