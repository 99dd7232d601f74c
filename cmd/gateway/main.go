package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/pharmatrace/gateway/internal/analytics"
	"github.com/pharmatrace/gateway/internal/audit"
	"github.com/pharmatrace/gateway/internal/config"
	"github.com/pharmatrace/gateway/internal/httpserver"
	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/mirror"
	"github.com/pharmatrace/gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	chain, err := ledger.NewHTTPClient(ledger.HTTPClientConfig{
		BaseURL:   cfg.LedgerURL,
		Timeout:   cfg.LedgerTimeout,
		Retries:   cfg.LedgerRetries,
		ScanLimit: cfg.LedgerScanLimit,
	})
	if err != nil {
		log.Fatalf("ledger client init: %v", err)
	}

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(audit.KafkaPublisherConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Fatalf("kafka publisher init: %v", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	var archiver audit.Archiver
	if cfg.ArchiveBucket != "" {
		archiver, err = audit.NewS3Archiver(context.Background(), cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			log.Fatalf("s3 archiver init: %v", err)
		}
	}

	store := mirror.NewPGStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("mirror schema: %v", err)
	}
	svc := service.New(chain, store, service.Config{
		Publisher: publisher,
		Archiver:  archiver,
	})
	engine := analytics.NewEngine(chain, analytics.Config{FanoutLimit: cfg.FanoutLimit})
	server := httpserver.New(cfg, svc, engine, store, chain)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("supply-chain gateway listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

func waitForShutdown(srv *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
