package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"restaurant-pos/config"
	httpapi "restaurant-pos/report-svc/internal/api/http"
	"restaurant-pos/report-svc/internal/service"
	"restaurant-pos/report-svc/internal/storage"
)

func main() {
	err := config.SetupLogging(config.Logging{
		Level:      config.GetEnv("LOG_LEVEL", "info"),
		Path:       config.GetEnv("LOG_PATH", ""),
		MaxSizeMB:  32,
		MaxBackups: 2,
		MaxAgeDays: 28,
	})
	if err != nil {
		log.Fatal(err)
	}

	ttl, err := time.ParseDuration(config.GetEnv("SALES_COUNTER_TTL", "168h"))
	if err != nil {
		log.Fatal("Invalid SALES_COUNTER_TTL: ", err)
	}

	db := config.MustInitPostgres()
	defer db.Close()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	store := storage.NewStore(db, rdb, ttl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := config.NewKafkaReader(config.FloorEventsTopic, "report-svc-consumer")
	defer reader.Close()
	go service.NewConsumer(reader, store).Start(ctx)

	handler := httpapi.NewHandler(service.NewReportService(store))
	httpapi.StartServer(":"+config.GetEnv("PORT", "8082"), httpapi.NewRouter(handler))
}
