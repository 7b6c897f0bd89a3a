package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/rqhall/cowchain-farm/internal/adapter/archive"
	"github.com/rqhall/cowchain-farm/internal/adapter/auth"
	"github.com/rqhall/cowchain-farm/internal/adapter/clock"
	"github.com/rqhall/cowchain-farm/internal/adapter/events"
	"github.com/rqhall/cowchain-farm/internal/adapter/handler"
	"github.com/rqhall/cowchain-farm/internal/adapter/payment"
	"github.com/rqhall/cowchain-farm/internal/adapter/storage"
	"github.com/rqhall/cowchain-farm/internal/config"
	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/core/service"
	"github.com/rqhall/cowchain-farm/internal/port"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL (event archive)
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis (tiered store + payment ledger)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Event publisher: NATS when configured, process log otherwise
	var publisher port.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect nats: %v", err)
		}
		defer nc.Close()

		publisher, err = events.NewNATSPublisher(nc)
		if err != nil {
			log.Fatalf("failed to set up jetstream: %v", err)
		}
		log.Println("connected to nats")
	} else {
		publisher = events.NewLogPublisher()
		log.Println("no NATS_URL set, logging events locally")
	}

	// Initialize adapters and service
	store := storage.NewRedisStore(rdb)
	ledger := payment.NewRedisLedger(rdb)
	archiver := archive.NewMySQLArchiver(db)
	ticker := clock.NewWallClock(time.Unix(cfg.GenesisUnix, 0), cfg.TickInterval)

	farm := service.NewFarmService(store, ledger, ticker, cfg.CustodyAccount, cfg.InitPassphrase, cfg.QueueSize)

	// Start event workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, farm.Events(), publisher, archiver)
		}(i)
	}
	log.Printf("started %d event workers", cfg.WorkerCount)

	// Initialize HTTP server
	authenticator := auth.NewHMACAuthenticator(cfg.AuthSecret)
	httpHandler := handler.NewHTTPHandler(farm, authenticator)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Close event queue and wait for workers
	farm.Close()
	wg.Wait()
	log.Println("workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func workerLoop(id int, queue <-chan domain.Event, publisher port.EventPublisher, archiver port.Archiver) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := publisher.Publish(ctx, event); err != nil {
			log.Printf("worker %d: failed to publish %s event: %v", id, event.Kind, err)
		}
		if err := archiver.ArchiveEvent(ctx, event); err != nil {
			log.Printf("worker %d: failed to archive %s event: %v", id, event.Kind, err)
		}

		cancel()
	}
}
