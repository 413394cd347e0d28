package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/animal-store/internal/api"
	"github.com/example/animal-store/internal/auth"
	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/config"
	"github.com/example/animal-store/internal/infrastructure/kafka"
	"github.com/example/animal-store/internal/order"
	"github.com/example/animal-store/internal/store"
	"github.com/example/animal-store/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Configuration error: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Animal Store - REST API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[API] Connected to PostgreSQL")

	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[API] Failed to ensure schema: %v", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	productStore := store.NewPostgresProductStore(db)
	orderStore := store.NewPostgresOrderStore(db)
	userStore := store.NewPostgresUserStore(db)

	catalogSvc := catalog.NewService(productStore, producer)
	orderSvc := order.NewService(orderStore, productStore, producer)
	userSvc := user.NewService(userStore, producer)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(catalogSvc, orderSvc),
		AuthHandlers: api.NewAuthHandlers(userSvc, jwtService),
		JWTService:   jwtService,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
