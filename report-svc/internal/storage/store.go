package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"restaurant-pos/report-svc/internal/domain"
)

const dishNamesKey = "sales:names"

// Store keeps per-day sales counters in Redis and reads the pos-svc receipt
// journal from Postgres.
type Store struct {
	db  *sql.DB
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(db *sql.DB, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		db:  db,
		rdb: rdb,
		ttl: ttl,
	}
}

func dailySalesKey(date string) string {
	return "sales:daily:" + date
}

func dailyRevenueKey(date string) string {
	return "revenue:daily:" + date
}

func receiptMarkerKey(receiptID int) string {
	return fmt.Sprintf("sales:receipt:%d", receiptID)
}

// MarkProcessed reports whether this is the first time the receipt is seen.
func (s *Store) MarkProcessed(ctx context.Context, receiptID int) (bool, error) {
	return s.rdb.SetNX(ctx, receiptMarkerKey(receiptID), 1, s.ttl).Result()
}

// ForgetProcessed drops the receipt marker so a redelivered event is counted.
func (s *Store) ForgetProcessed(ctx context.Context, receiptID int) error {
	return s.rdb.Del(ctx, receiptMarkerKey(receiptID)).Err()
}

// RecordSale bumps the dish counters and the revenue hash of date in one
// transaction. Amounts are counted in hundredths so the running total stays exact.
func (s *Store) RecordSale(ctx context.Context, date string, items []domain.SoldItem, amount decimal.Decimal) error {
	salesKey := dailySalesKey(date)
	revenueKey := dailyRevenueKey(date)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			member := strconv.Itoa(item.ID)
			pipe.ZIncrBy(ctx, salesKey, float64(item.Quantity), member)
			pipe.HSet(ctx, dishNamesKey, member, item.Name)
		}
		if len(items) > 0 {
			pipe.Expire(ctx, salesKey, s.ttl)
		}
		pipe.HIncrBy(ctx, revenueKey, "total_cents", amount.Shift(2).Round(0).IntPart())
		pipe.HIncrBy(ctx, revenueKey, "receipts", 1)
		pipe.Expire(ctx, revenueKey, s.ttl)
		return nil
	})
	return err
}

func (s *Store) CachedTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	result, err := s.rdb.ZRevRangeWithScores(ctx, dailySalesKey(date), 0, int64(limit-1)).Result()
	if err != nil || len(result) == 0 {
		return nil, err
	}

	members := make([]string, 0, len(result))
	for _, z := range result {
		members = append(members, z.Member.(string))
	}
	names, err := s.rdb.HMGet(ctx, dishNamesKey, members...).Result()
	if err != nil {
		return nil, err
	}

	dishes := make([]domain.DishSales, 0, len(result))
	for i, z := range result {
		id, err := strconv.Atoi(members[i])
		if err != nil {
			continue
		}
		name, _ := names[i].(string)
		dishes = append(dishes, domain.DishSales{MenuItemID: id, Name: name, Quantity: int(z.Score)})
	}
	return dishes, nil
}

func (s *Store) CachedRevenue(ctx context.Context, date string) (domain.DailyRevenue, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, dailyRevenueKey(date)).Result()
	if err != nil || len(fields) == 0 {
		return domain.DailyRevenue{}, false, err
	}
	cents, err := strconv.ParseInt(fields["total_cents"], 10, 64)
	if err != nil {
		return domain.DailyRevenue{}, false, fmt.Errorf("bad revenue counter for %s: %w", date, err)
	}
	receipts, _ := strconv.Atoi(fields["receipts"])
	return domain.DailyRevenue{
		Date:     date,
		Total:    decimal.New(cents, -2),
		Receipts: receipts,
		Source:   "redis",
	}, true, nil
}

func (s *Store) JournalTopDishes(ctx context.Context, date string, limit int) ([]domain.DishSales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.menu_item_id, MIN(l.name), SUM(l.quantity) AS sold
		FROM receipt_lines l
		JOIN receipts r ON r.id = l.receipt_id
		WHERE r.paid_at::date = $1
		GROUP BY l.menu_item_id
		ORDER BY sold DESC, l.menu_item_id
		LIMIT $2
	`, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dishes := []domain.DishSales{}
	for rows.Next() {
		var d domain.DishSales
		if err := rows.Scan(&d.MenuItemID, &d.Name, &d.Quantity); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

func (s *Store) JournalRevenue(ctx context.Context, date string) (domain.DailyRevenue, error) {
	revenue := domain.DailyRevenue{Date: date, Source: "postgres"}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(grand_total), 0), COUNT(*)
		FROM receipts
		WHERE paid_at::date = $1
	`, date).Scan(&revenue.Total, &revenue.Receipts)
	if err != nil {
		return domain.DailyRevenue{}, err
	}
	return revenue, nil
}
