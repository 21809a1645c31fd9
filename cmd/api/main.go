package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"brandkit/internal/app"
	"brandkit/internal/http/handlers"
	httpapi "brandkit/internal/http/httpapi"
	"brandkit/internal/infra"
	"brandkit/internal/infra/geoip"
	"brandkit/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := app.Build(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}
	defer svc.Close()

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer func() { _ = resolver.Close() }()

	handlerApp := handlers.NewApp(cfg, svc.Pipeline, &logger)
	handlerApp.Backend = svc.Backend.Name()
	handlerApp.Files = files
	handlerApp.BaseCtx = ctx
	if svc.History != nil {
		handlerApp.History = svc.History
	}

	router := httpapi.NewRouter(handlerApp, httpapi.RouterOptions{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
	})
	server := infra.NewHTTPServer(cfg, router)
	if err := server.Listen(); err != nil {
		logger.Fatal().Err(err).Msg("failed to bind")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("backend", handlerApp.Backend).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		svc.Pipeline.Cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
