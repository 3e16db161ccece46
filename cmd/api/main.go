package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-sales-orders/internal/catalog"
	"github.com/ariefcatur/go-sales-orders/internal/config"
	"github.com/ariefcatur/go-sales-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/logging"
	"github.com/ariefcatur/go-sales-orders/internal/orders"
	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/ariefcatur/go-sales-orders/internal/settings"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("sales-api", "info")
		bootLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.ServiceName, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// Events
	var publisher orders.Publisher = kafkax.Discard{}
	var prod *kafkax.Producer
	if cfg.EventsEnabled() {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 1024, log)
		prod.Start(ctx)
		publisher = prod
	} else {
		log.Info().Msg("KAFKA_BROKERS not set; order events disabled")
	}

	// Services & handlers
	taxes := settings.NewTaxStore(&settings.Repo{DB: db})
	svc := &orders.Service{
		Store:       &orders.Repo{DB: db},
		Taxes:       taxes,
		Catalog:     catalog.New(cfg.CatalogURL, cfg.CatalogTimeout, log.With().Str("component", "catalog").Logger()),
		Publisher:   publisher,
		Log:         log,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout, cfg.CORSAllowedOrigins)
	(&httpx.OrdersHandler{Orders: svc, Log: log}).Register(router)
	(&httpx.TaxHandler{Taxes: taxes, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if prod != nil {
		prod.Close() // flush inbox, then close writer
		prod.WaitClosed()
	}
}
