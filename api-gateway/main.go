package main

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/api-gateway/internal/gateway"
	"restaurant-pos/config"
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

	gwConfig := gateway.Config{
		PosSvcURL:    config.GetEnv("POS_SVC_URL", "http://localhost:8081"),
		ReportSvcURL: config.GetEnv("REPORT_SVC_URL", "http://localhost:8082"),
		FrontendDir:  config.GetEnv("FRONTEND_DIR", "./frontend"),
	}

	gw := gateway.NewGateway(gwConfig, &http.Client{Timeout: 30 * time.Second})

	r := gw.SetupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8080", "http://127.0.0.1:8080", "*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	addr := ":" + config.GetEnv("PORT", "8080")
	log.Printf("API Gateway starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
