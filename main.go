package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"stego-server/internal/artifacts"
	"stego-server/internal/carrier"
	"stego-server/internal/database"
	"stego-server/internal/filesystem"
	"stego-server/internal/handlers"
	"stego-server/internal/logging"
	"stego-server/internal/memory"
	"stego-server/internal/metrics"
	"stego-server/internal/middleware"
	"stego-server/internal/startup"
	"stego-server/internal/transcoder"
	"stego-server/internal/transcribe"
	"stego-server/internal/video"
	"stego-server/internal/workers"
)

const (
	sweepInterval          = time.Hour
	sessionCleanupInterval = time.Hour
	metricsInterval        = time.Minute
	shutdownTimeout        = 30 * time.Second
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before significant allocations
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"carriers": config.CarrierDir,
		"results":  config.ResultsDir,
		"temp":     config.TempDir,
	}))

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath, &database.Options{
		SessionDuration: config.SessionDuration,
	})
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	catalog := carrier.DefaultCatalog()
	var generated int
	var genErr error
	if config.GenerateCarriers {
		generated, genErr = catalog.Ensure(config.CarrierDir)
	}
	startup.LogCarrierInit(config.CarrierDir, len(catalog.Images()), generated, genErr)
	if err := catalog.Verify(config.CarrierDir); err != nil {
		logging.Warn("Carrier check failed: %v", err)
	}

	store := artifacts.NewStore(config.ResultsDir, handlers.ResultsPrefix)

	startup.LogTranscoderInit(config.FFmpegPath, config.FFprobePath, config.StageTimeout, config.VideoWorkers)
	trans := transcoder.New(transcoder.Options{
		FFmpegPath:   config.FFmpegPath,
		FFprobePath:  config.FFprobePath,
		StageTimeout: config.StageTimeout,
	})

	monitorConfig := memory.DefaultConfig()
	monitorConfig.LimitBytes = memResult.GoMemLimit
	monitor := memory.NewMonitor(monitorConfig)
	monitor.Start()

	hcfg := handlers.Config{
		Catalog:        catalog,
		CarrierDir:     config.CarrierDir,
		Store:          store,
		TempDir:        config.TempDir,
		MaxUploadBytes: config.MaxUploadBytes,
		AuthRequired:   config.AuthRequired,
	}

	if startup.LogVideoCarrier(config.VideoCarrier, config.VideoWidth, config.VideoHeight) {
		hcfg.Video = video.New(trans, video.Config{
			TempDir: config.TempDir,
			Carrier: carrier.Video{
				Path:   config.VideoCarrier,
				Width:  config.VideoWidth,
				Height: config.VideoHeight,
			},
			Store:   store,
			Limiter: workers.NewLimiter(config.VideoWorkers),
			Memory:  monitor,
		})
	}

	startup.LogTranscriberInit(config.GeminiAPIKey != "", config.GeminiModel)
	// NewGemini returns a nil *Gemini without a key; only assign a live client.
	gemini, err := transcribe.NewGemini(ctx, config.GeminiAPIKey, config.GeminiModel)
	switch {
	case err != nil:
		logging.Warn("Speech to text disabled: %v", err)
	case gemini != nil:
		hcfg.Transcriber = gemini
	}

	startup.LogSweep(video.SweepStale(config.TempDir, config.SweepMaxAge))

	h := handlers.New(db, hcfg)

	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(router, config.StaticDir)

	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = h.AuthMiddleware(router)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.RequestID(handler)

	// WriteTimeout stays 0: video encodes can outlast any fixed bound.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	collector := metrics.NewCollector(db, config.DatabasePath, metricsInterval)
	collector.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		runPeriodic(gctx, sweepInterval, func() {
			startup.LogSweep(video.SweepStale(config.TempDir, config.SweepMaxAge))
		})
		return nil
	})

	g.Go(func() error {
		runPeriodic(gctx, sessionCleanupInterval, func() {
			removed, err := db.CleanExpiredSessions(gctx)
			if err != nil {
				logging.Warn("Session cleanup failed: %v", err)
				return
			}
			if removed > 0 {
				logging.Debug("Removed %d expired sessions", removed)
			}
		})
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdown(srv, metricsSrv, collector, trans, monitor)
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server error: %v", err)
		db.Close()
		os.Exit(1)
	}
}

func runPeriodic(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func shutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, trans *transcoder.Transcoder, monitor *memory.Monitor) {
	startup.LogShutdownInitiated("shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Killing running ffmpeg processes")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
