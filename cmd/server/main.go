package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronIP/api/internal/config"
	"github.com/neurondb/NeuronIP/api/internal/db"
	"github.com/neurondb/NeuronIP/api/internal/detectcache"
	"github.com/neurondb/NeuronIP/api/internal/detection"
	"github.com/neurondb/NeuronIP/api/internal/detectstrategy"
	"github.com/neurondb/NeuronIP/api/internal/handlers"
	"github.com/neurondb/NeuronIP/api/internal/logging"
	"github.com/neurondb/NeuronIP/api/internal/metadata"
	"github.com/neurondb/NeuronIP/api/internal/metrics"
	"github.com/neurondb/NeuronIP/api/internal/middleware"
	"github.com/neurondb/NeuronIP/api/internal/ner"
	"github.com/neurondb/NeuronIP/api/internal/notify"
	"github.com/neurondb/NeuronIP/api/internal/qianalyzer"
	"github.com/neurondb/NeuronIP/api/internal/reportbuilder"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/sampling"
	"github.com/neurondb/NeuronIP/api/internal/scanapi"
	"github.com/neurondb/NeuronIP/api/internal/scanexec"
	"github.com/neurondb/NeuronIP/api/internal/scanjob"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// detectionCacheSize bounds the in-memory detection-result cache; not
// exposed via config since it's a process-local tuning knob, not a
// scan-behavior parameter.
const detectionCacheSize = 1024

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help message")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "NeuronIP Scan API - PII and quasi-identifier database scanner\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("neuronip-scan-api version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	logger := logging.DefaultLogger
	if logger == nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger\n")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.NewPgxRepository(pool.Pool)
	notifier := notify.NewChannelNotifier()
	jobs := scanjob.NewManager(repo, notifier, logger)

	strategies := []detectstrategy.Strategy{detectstrategy.NewHeuristic(), detectstrategy.NewRegex()}
	nerClient := ner.New(ner.Config{
		BaseURL:        cfg.NER.BaseURL,
		RequestTimeout: cfg.NER.RequestTimeout,
		RateLimitRPS:   cfg.NER.RateLimitRPS,
		RateLimitBurst: cfg.NER.RateLimitBurst,
	}, logger)
	if nerClient.Probe(ctx) {
		strategies = append(strategies, detectstrategy.NewNER(nerClient, cfg.Sampling.DefaultSize))
	} else {
		logger.Warn("NER service unavailable at startup, continuing without it", "base_url", cfg.NER.BaseURL)
	}

	engine := detection.NewEngine(strategies, detectcache.Init(detectionCacheSize), cfg.Detection, logger)

	executor := scanexec.NewExecutor(
		jobs,
		repo,
		metadata.NewExtractor(),
		sampling.NewSampler(),
		engine,
		qianalyzer.NewAnalyzer(),
		reportbuilder.NewBuilder(),
		logger,
		cfg.Scan.MaxConcurrentJobs,
	)

	service := scanapi.NewService(jobs, executor, repo, notifier)
	scanHandler := scanapi.NewHandler(service)
	healthHandler := handlers.NewHealthHandler(pool.Pool)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.RequestID)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.HTTPLogging)
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	}))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		router.Use(middleware.RateLimit(limiter))
	}

	router.Handle("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scans", scanHandler.StartScan).Methods("POST")
	api.HandleFunc("/scans/{jobId}", scanHandler.GetJobStatus).Methods("GET")
	api.HandleFunc("/scans/{jobId}/cancel", scanHandler.CancelJob).Methods("POST")
	api.HandleFunc("/scans/{jobId}/report", scanHandler.GetReport).Methods("GET")
	api.HandleFunc("/scans/{jobId}/progress", scanHandler.SubscribeProgress).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"read_timeout", cfg.Server.ReadTimeout,
			"write_timeout", cfg.Server.WriteTimeout,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited gracefully")
}
