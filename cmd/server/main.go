package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/avoskov/retail_pos/internal/auth"
	"github.com/avoskov/retail_pos/internal/backup"
	"github.com/avoskov/retail_pos/internal/cart"
	"github.com/avoskov/retail_pos/internal/config"
	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/httpserver"
	"github.com/avoskov/retail_pos/internal/ledger"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/search"
	"github.com/avoskov/retail_pos/internal/settings"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		kv    store.KV
		blobs store.Blobs
	)
	gormKV, err := store.OpenGorm(initCtx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		// Degraded mode: every slot falls back to its default and nothing
		// survives a restart.
		log.Warn("persistence unavailable, running in-memory", "error", err)
		kv = store.NewMemoryKV()
		blobs = store.NewMemoryBlobs()
	} else {
		kv = gormKV
		blobs = &store.GormBlobs{DB: gormKV.DB}
		defer gormKV.Close()
	}

	bus := events.NewBus()
	products := registry.NewProductRegistry(initCtx, kv, bus)
	users := registry.NewUserRegistry(initCtx, kv, bus)
	sales := ledger.NewSaleLedger(initCtx, kv, bus, products)
	appSettings := settings.NewService(initCtx, kv, bus)
	authSvc := auth.NewService(initCtx, kv, bus, users, cfg.JWTSecret)

	index, err := search.NewIndex(cfg.ESURL, cfg.ESUser, cfg.ESPassword, search.DefaultIndexName)
	if err != nil {
		log.Warn("search disabled", "error", err)
		index = nil
	}

	publisher := events.NewPublisher(cfg.KafkaAddress, cfg.KafkaTopic)
	defer publisher.Close()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(httpserver.RequestLogger(log))

	httpserver.Register(e, &httpserver.Deps{
		Auth:     authSvc,
		Products: &httpserver.ProductHTTP{Reg: products, Blobs: blobs, Index: index, Events: publisher},
		Users:    &httpserver.UserHTTP{Reg: users},
		Carts:    &httpserver.CartHTTP{Pool: cart.NewPool(products), Ledger: sales, Events: publisher},
		Sales:    &httpserver.SaleHTTP{Ledger: sales, Events: publisher},
		Settings: &httpserver.SettingsHTTP{Svc: appSettings},
		Backup: &httpserver.BackupHTTP{Svc: &backup.Service{
			KV:       kv,
			Bus:      bus,
			Users:    users,
			Products: products,
			Sales:    sales,
			Settings: appSettings,
		}},
	})

	go func() {
		log.Info("starting pos server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Error("echo start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("echo shutdown", "error", err)
	}
}
