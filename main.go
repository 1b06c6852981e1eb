package main

import (
	"log"
	"os"
	"time"

	"github.com/Sifanww/senlin-yogurt/config"
	httpapi "github.com/Sifanww/senlin-yogurt/internal/api/http"
	"github.com/Sifanww/senlin-yogurt/internal/auth"
	"github.com/Sifanww/senlin-yogurt/internal/service"
	"github.com/Sifanww/senlin-yogurt/internal/storage"
)

func main() {
	config.LoadEnv()

	db := config.MustInitPostgres()
	defer db.Close()

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	rdb := config.MustInitRedis()
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter("orders")
	defer kafkaWriter.Close()

	baseURL := os.Getenv("SHOP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost"
	}

	orderSvc := service.NewOrderService(
		repo,
		storage.NewKafkaPublisher(kafkaWriter),
		service.DefaultQRGenerator{BaseURL: baseURL},
	)

	authMw := auth.NewMiddleware(repo, storage.NewRedisUserCache(rdb, 15*time.Minute))

	handler := httpapi.NewHandler(orderSvc, authMw)
	router := httpapi.NewRouter(handler)

	addr := ":8083"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	httpapi.StartServer(addr, router)
}
