package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mediagen/internal/http/handlers"
	httpapi "mediagen/internal/http/httpapi"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/infra/geoip"
	"mediagen/internal/middleware"
	"mediagen/internal/providers/krea"
	"mediagen/internal/runs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	holder, release, err := credentials.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.CredentialBackend).Msg("failed to open credential store")
	}
	defer release()

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable")
		resolver, _ = geoip.Open("")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver.Available() {
		lookup = resolver.CountryCode
	}

	api := krea.NewClient(krea.Options{
		BaseURL:        cfg.KreaBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.HTTPClientTimeout,
	})
	runner := runs.NewRunner(api, nil, runs.OptionsFromConfig(cfg), &logger)

	// Runs outlive their request but stop with the server.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	registry := runs.NewRegistry(runCtx, runner, &logger)

	app := handlers.NewApp(runner, registry, holder, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("credential_backend", holder.Status().Backend).Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancelRuns()
	registry.Wait()
	logger.Info().Msg("server stopped")
}
