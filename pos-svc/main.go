package main

import (
	"context"
	"os"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/config"
	httpapi "restaurant-pos/pos-svc/internal/api/http"
	"restaurant-pos/pos-svc/internal/domain"
	"restaurant-pos/pos-svc/internal/service"
	"restaurant-pos/pos-svc/internal/storage"
)

func main() {
	settings, err := config.LoadSettings(config.GetEnv("POS_SETTINGS", "pos.yaml"))
	if err != nil {
		log.Fatal("Failed to load settings: ", err)
	}
	if err := config.SetupLogging(settings.Logging); err != nil {
		log.Fatal(err)
	}

	var sinks service.Sinks
	sinks.QR = service.DefaultQRGenerator{BaseURL: config.GetEnv("PUBLIC_BASE_URL", "http://localhost")}

	var archive *storage.PostgresRepository
	if os.Getenv("DB_HOST") != "" {
		db := config.MustInitPostgres()
		defer db.Close()
		archive = storage.NewPostgresRepository(db)
		if err := archive.EnsureSchema(); err != nil {
			log.Fatal("Failed to ensure schema: ", err)
		}
		sinks.Archive = archive
	} else {
		log.Warn("DB_HOST not set, receipts are kept in memory only")
	}

	if os.Getenv("REDIS_HOST") != "" {
		rdb := config.MustInitRedis()
		defer rdb.Close()
		ttl, err := time.ParseDuration(config.GetEnv("PAYMENT_MARKER_TTL", "24h"))
		if err != nil {
			log.Fatal("Invalid PAYMENT_MARKER_TTL: ", err)
		}
		sinks.Guard = storage.NewRedisGuard(rdb, ttl)
		sinks.GuardTimeout, err = time.ParseDuration(config.GetEnv("PAYMENT_GUARD_TIMEOUT", "200ms"))
		if err != nil {
			log.Fatal("Invalid PAYMENT_GUARD_TIMEOUT: ", err)
		}
	}

	if os.Getenv("KAFKA_BROKER") != "" {
		writer := config.NewKafkaWriter(config.FloorEventsTopic)
		defer writer.Close()
		sinks.Publisher = storage.NewKafkaPublisher(writer)
	}

	floor := service.NewFloor(buildStores(settings), sinks, time.Now)
	if archive != nil {
		last, err := archive.LastReceiptID(context.Background())
		if err != nil {
			log.Fatal("Failed to read last receipt id: ", err)
		}
		floor.SeedReceiptSequence(last)
	}

	handler := httpapi.NewHandler(floor)
	httpapi.StartServer(":"+config.GetEnv("PORT", "8081"), httpapi.NewRouter(handler))
}

// buildStores turns the configured seeds into the floor's in-memory stores.
// Every table starts empty.
func buildStores(settings config.Settings) service.Stores {
	tables := make([]domain.Table, 0, len(settings.Tables))
	for _, t := range settings.Tables {
		tables = append(tables, domain.Table{ID: t.ID, Status: domain.TableEmpty, MaxSeats: t.MaxSeats})
	}

	promotions := make([]domain.Promotion, 0, len(settings.Promotions))
	for _, p := range settings.Promotions {
		promotions = append(promotions, domain.Promotion{
			ID:        p.ID,
			Name:      p.Name,
			Type:      domain.PromotionType(p.Type),
			Value:     p.Value,
			Items:     p.Items,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			IsActive:  p.IsActive,
		})
	}

	customers := make([]domain.Customer, 0, len(settings.Customers))
	for _, c := range settings.Customers {
		tier := domain.Tier(c.Tier)
		if !tier.Valid() {
			tier = domain.TierSilver
		}
		customers = append(customers, domain.Customer{
			ID:         c.ID,
			Name:       c.Name,
			Phone:      c.Phone,
			Email:      c.Email,
			Points:     c.Points,
			Tier:       tier,
			TotalSpent: decimal.NewFromFloat(c.TotalSpent),
			Visits:     c.Visits,
		})
	}

	ingredients := make([]domain.Ingredient, 0, len(settings.Ingredients))
	for _, in := range settings.Ingredients {
		ingredients = append(ingredients, domain.Ingredient{
			ID:           in.ID,
			Name:         in.Name,
			Unit:         in.Unit,
			Quantity:     in.Quantity,
			MinThreshold: in.MinThreshold,
			UnitCost:     in.UnitCost,
			Category:     in.Category,
		})
	}

	return service.Stores{
		Tables:     service.NewTableRegistry(tables, time.Now),
		Orders:     service.NewOrderBook(nil, time.Now),
		Customers:  service.NewLoyaltyLedger(customers, settings.PointsUnit),
		Promotions: service.NewPromotionDirectory(promotions),
		Pantry:     service.NewPantry(ingredients),
		Billing:    service.NewBillingEngine(settings.VATRate),
	}
}
