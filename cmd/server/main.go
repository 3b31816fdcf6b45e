package main

import (
	"context"

	"github.com/emberapp/discovery/internal/app"
	"github.com/emberapp/discovery/internal/cache"
	"github.com/emberapp/discovery/internal/config"
	"github.com/emberapp/discovery/internal/db"
	"github.com/emberapp/discovery/internal/logger"
	"github.com/emberapp/discovery/internal/notify"
	"github.com/emberapp/discovery/internal/server"
	"github.com/emberapp/discovery/internal/service/discovery"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		return
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	svc := discovery.NewService(appCtx, notify.NewLogNotifier(log))
	router := server.NewRouter(appCtx, svc)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting discovery server", "addr", addr)

	if err := server.Start(cfg, router); err != nil {
		log.Error("server stopped", "err", err)
	}
}
