package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/auth"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/cart"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/config"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/db"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/events"
	httpapi "github.com/Ola-toyosi/kenkeputa-ecommerce/internal/http"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/session"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/storefront"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/store"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- durable storage ---
	kv, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer closeStore()

	// --- AMQP (optional) ---
	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("rabbitmq: %v", err)
		}
		defer conn.Close()

		pub, err := events.NewRabbitPublisher(conn)
		if err != nil {
			logger.Fatalf("rabbitmq publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	// --- backend clients ---
	tokens := auth.NewTokens(kv)
	resolver := session.NewResolver(kv)

	// Refresh calls must not pass through the auth transport.
	bareHTTP := &http.Client{Timeout: cfg.RequestTimeout}
	refresher := clients.NewAuthClient(clients.NewClient("storefront-auth", cfg.APIBaseURL, bareHTTP))

	sharedHTTP := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: auth.NewTransport(http.DefaultTransport, tokens, refresher, logger),
	}
	apiBase := clients.NewClient("storefront-api", cfg.APIBaseURL, sharedHTTP)

	authAPI := clients.NewAuthClient(apiBase)
	catalog := clients.NewCatalogClient(apiBase)
	orders := clients.NewOrderClient(apiBase)

	// --- session + cart ---
	feed := notify.NewFeed(cfg.NoticeBuffer, logger)
	cartSync := cart.New(clients.NewCartClient(apiBase), resolver, feed, publisher, logger)
	manager := storefront.NewManager(storefront.Deps{
		Auth:     authAPI,
		Orders:   orders,
		Tokens:   tokens,
		Resolver: resolver,
		Cart:     cartSync,
		Notifier: feed,
		Logger:   logger,
	})

	restoreCtx, cancelRestore := context.WithTimeout(ctx, cfg.RequestTimeout)
	logger.Printf("session restored: %s", manager.Restore(restoreCtx))
	cancelRestore()

	// --- HTTP ---
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       logger,
		Cfg:          cfg,
		Manager:      manager,
		Catalog:      catalog,
		Orders:       orders,
		Notices:      feed,
		HealthProbes: []clients.HealthProbe{{Name: "storefront-api", Client: apiBase, Path: cfg.HealthPath}},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on :%s (backend %s, store %s)", cfg.Port, cfg.APIBaseURL, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		logger.Printf("shutdown requested")
	case err := <-errCh:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
	logger.Printf("shutdown complete")
}

// openStore builds the configured key-value store and returns its closer.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Printf("store: in-memory, credentials are lost on exit")
		return store.NewMemory(), func() {}, nil

	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		return store.NewPostgres(pool, cfg.StoreNamespace), pool.Close, nil

	case config.StoreRedis:
		client := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedis(client, cfg.StoreNamespace), func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
