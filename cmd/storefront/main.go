package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/gate"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx := context.Background()

	store, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.StorageDriver,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		MongoURI:      cfg.MongoURI,
		MongoDBName:   cfg.MongoDBName,
	})
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	api := client.New(client.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		Breaker: circuitbreaker.DefaultOptions(),
	}, log)

	feed := notify.NewFeed(20)
	notifier := notify.Multi(feed, notify.NewLogNotifier(log))

	sessions := session.NewStore(store, api, notifier, log)
	if err := sessions.Restore(ctx); err != nil {
		log.Warn("stored session not restored", "error", err)
	}

	cartEngine := cart.NewEngine(store, notifier, log)
	cartEngine.Restore(ctx)

	services := h.Services{
		Session:  sessions,
		Catalog:  catalog.New(api, log),
		Cart:     cartEngine,
		Checkout: checkout.NewService(cartEngine, api, sessions, cfg.DeliveryFee, notifier, log),
		Tracker:  orders.NewTracker(api, sessions, log),
		Board:    orders.NewBoard(api, sessions, notifier, log),
		Products: api,
		Toasts:   feed,
		Gate:     gate.New(sessions),
	}

	router := h.NewRouter(services, h.RouterOptions{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Log:                log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort, "api", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
