// ABOUTME: Entry point for the respondent home workflow service
// ABOUTME: Wires config, session store, gateways, and the step handlers

package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/censusops/respondent-home/cache"
	"github.com/censusops/respondent-home/config"
	"github.com/censusops/respondent-home/handlers"
	"github.com/censusops/respondent-home/logger"
	"github.com/censusops/respondent-home/middleware"
	"github.com/censusops/respondent-home/services"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting respondent home service")
	slog.Info("case service configured", "url", cfg.RHSvcURL)
	slog.Info("address index configured", "url", cfg.AddressIndexURL)
	slog.Info("eq configured", "url", cfg.EQURL)

	// Session store: Redis when configured, in-process otherwise.
	var store services.SessionStore
	if cfg.RedisConfigured() {
		redisStore, err := services.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		if err != nil {
			slog.Error("failed to connect session store", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		slog.Warn("REDIS_ADDR not set, sessions are in-process only")
		store = services.NewMemoryStore(cache.New(cfg.SessionTTL))
	}

	sessions := services.NewSessionService(store)
	rhSvc := services.NewRHService(cfg.RHSvcURL, cfg.RHSvcAuthUser, cfg.RHSvcAuthPass)
	addressIndex := services.NewAddressIndex(cfg.AddressIndexURL, cache.New(cfg.AddressIndexCacheTTL))
	eqLaunch := services.NewEQLaunchService(
		services.NewHS256Signer([]byte(cfg.EQTokenSecret)),
		cfg.EQURL,
		cfg.AccountServiceURL,
		cfg.URLPathPrefix,
		cfg.EQTokenTTL,
	)

	h := handlers.NewHandler(cfg, sessions, rhSvc, addressIndex, eqLaunch, handlers.JSONRenderer{})
	mux := h.Mux(middleware.Recover, middleware.LogRequest)

	addr := ":" + cfg.Port
	slog.Info("server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
