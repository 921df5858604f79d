package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pvandermeer/luma/internal"
	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/cache"
	"github.com/pvandermeer/luma/internal/catalog"
	"github.com/pvandermeer/luma/internal/checkout"
	"github.com/pvandermeer/luma/internal/coupon"
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/handler"
	"github.com/pvandermeer/luma/internal/intake"
	"github.com/pvandermeer/luma/internal/notify"
	"github.com/pvandermeer/luma/internal/payment"
	"github.com/pvandermeer/luma/internal/router"
	"github.com/pvandermeer/luma/internal/telemetry"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics("luma", registry)

	// Remote data store client
	client := api.NewClient(cfg.APIBaseURL, logger)

	// Persisted cache tier
	var persisted cache.Tier
	switch cfg.Cache.Provider {
	case "redis":
		logger.Info("Using redis cache tier", "addr", cfg.Cache.RedisAddr)
		persisted = cache.NewRedisTier(cfg.Cache.RedisAddr, cfg.Cache.Prefix)
	case "file":
		logger.Info("Using file cache tier", "dir", cfg.Cache.Dir)
		persisted, err = cache.NewFileTier(cfg.Cache.Dir, cfg.Cache.Prefix)
		if err != nil {
			return fmt.Errorf("file cache initialization failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown cache provider: %s", cfg.Cache.Provider)
	}

	contentCache := cache.New(persisted, cfg.Cache.TTL, logger, metrics)
	catalogService := catalog.NewService(contentCache, client, logger)

	// Checkout core
	notes := &notify.Recorder{}
	notifier := notify.Fanout{&notify.LogNotifier{Logger: logger}, notes}

	relay := payment.NewCallbackRelay(logger)
	gateways := map[domain.PaymentMethod]payment.Gateway{
		domain.MethodRazorpay: payment.NewRazorpayGateway(client, relay, cfg.Razorpay.KeyID, logger),
		domain.MethodPayPal:   payment.NewPayPalGateway(client, cfg.PayPal.ClientID, logger),
	}

	validator := coupon.NewValidator(client, logger)
	controller := checkout.NewController(gateways, validator, notifier, metrics, cfg.Currency, logger)
	intakeService := intake.NewService(catalogService, client, metrics, logger)

	// HTTP facade
	h := handler.New(catalogService, controller, intakeService, relay, notes, logger)
	r := router.New(
		router.Recovery(logger),
		router.Logger(logger),
		router.CORS(cfg.CORSOrigins),
	)
	h.Routes(r)
	r.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
