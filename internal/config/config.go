package config

import (
	"fmt"
	"time"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Config holds application configuration, assembled by a getEnv*-based
Load() with per-concern sections for the scan pipeline. */
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	NER       NERConfig
	Scan      ScanConfig
	Detection piimodel.DetectionConfig
	Sampling  piimodel.SamplingConfig
}

/* DatabaseConfig holds the connection settings for this service's own
persistence store (jobs, results, reports) — distinct from the target
databases scanned, which arrive per-request via connectors.ConnectionConfig. */
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

/* ServerConfig holds server configuration */
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

/* LoggingConfig holds logging configuration */
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

/* CORSConfig holds CORS configuration for the scan API */
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

/* RateLimitConfig bounds inbound StartScan/GetReport request volume. */
type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
}

/* NERConfig configures the remote entity-recognition client (internal/ner). */
type NERConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

/* ScanConfig holds the Scan Executor settings. Only MaxConcurrentJobs is
passed to the executor; MaxConcurrentColumns and PhaseTimeout are loaded
but nothing reads them. */
type ScanConfig struct {
	MaxConcurrentJobs    int
	MaxConcurrentColumns int
	PhaseTimeout         time.Duration
}

/* Load loads configuration from environment variables */
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "neuronip"),
			Password:        getEnv("DB_PASSWORD", "neuronip"),
			Name:            getEnv("DB_NAME", "neuronip_scan"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8082"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests: getEnvInt("RATE_LIMIT_MAX_REQUESTS", 1000),
			Window:      getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Hour),
		},
		NER: NERConfig{
			BaseURL:        getEnv("NER_BASE_URL", "http://localhost:9000"),
			RequestTimeout: getEnvDuration("NER_REQUEST_TIMEOUT", 5*time.Second),
			RateLimitRPS:   getEnvFloat("NER_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvInt("NER_RATE_LIMIT_BURST", 40),
		},
		Scan: ScanConfig{
			MaxConcurrentJobs:    getEnvInt("SCAN_MAX_CONCURRENT_JOBS", 4),
			MaxConcurrentColumns: getEnvInt("SCAN_MAX_CONCURRENT_COLUMNS", 8),
			PhaseTimeout:         getEnvDuration("SCAN_PHASE_TIMEOUT", 10*time.Minute),
		},
		Detection: detectionConfigFromEnv(),
		Sampling:  samplingConfigFromEnv(),
	}
}

func detectionConfigFromEnv() piimodel.DetectionConfig {
	cfg := piimodel.DefaultDetectionConfig()
	cfg.HeuristicThreshold = getEnvFloat("DETECTION_HEURISTIC_THRESHOLD", cfg.HeuristicThreshold)
	cfg.RegexThreshold = getEnvFloat("DETECTION_REGEX_THRESHOLD", cfg.RegexThreshold)
	cfg.NERThreshold = getEnvFloat("DETECTION_NER_THRESHOLD", cfg.NERThreshold)
	cfg.ReportingThreshold = getEnvFloat("DETECTION_REPORTING_THRESHOLD", cfg.ReportingThreshold)
	cfg.StopPipelineOnHighConfidence = getEnv("DETECTION_STOP_ON_HIGH_CONFIDENCE", "true") == "true"

	qi := &cfg.QuasiIdentifier
	qi.Enabled = getEnv("QI_ENABLED", "true") == "true"
	qi.CorrelationAnalysisEnabled = getEnv("QI_CORRELATION_ANALYSIS_ENABLED", "true") == "true"
	qi.UseMachineLearning = getEnv("QI_USE_MACHINE_LEARNING", "false") == "true"
	qi.MinGroupSize = getEnvInt("QI_MIN_GROUP_SIZE", qi.MinGroupSize)
	qi.MaxGroupSize = getEnvInt("QI_MAX_GROUP_SIZE", qi.MaxGroupSize)
	qi.CorrelationThreshold = getEnvFloat("QI_CORRELATION_THRESHOLD", qi.CorrelationThreshold)
	qi.ClusteringDistanceThreshold = getEnvFloat("QI_CLUSTERING_DISTANCE_THRESHOLD", qi.ClusteringDistanceThreshold)
	qi.MinDistinctValueCount = getEnvInt("QI_MIN_DISTINCT_VALUE_COUNT", qi.MinDistinctValueCount)
	qi.MaxDistinctValueRatio = getEnvFloat("QI_MAX_DISTINCT_VALUE_RATIO", qi.MaxDistinctValueRatio)
	qi.EntropyThreshold = getEnvFloat("QI_ENTROPY_THRESHOLD", qi.EntropyThreshold)
	qi.KAnonymityThreshold = getEnvFloat("QI_K_ANONYMITY_THRESHOLD", qi.KAnonymityThreshold)

	return cfg
}

func samplingConfigFromEnv() piimodel.SamplingConfig {
	cfg := piimodel.DefaultSamplingConfig()
	cfg.DefaultSize = getEnvInt("SAMPLING_DEFAULT_SIZE", cfg.DefaultSize)
	cfg.DefaultMethod = getEnv("SAMPLING_DEFAULT_METHOD", cfg.DefaultMethod)
	cfg.MaxConcurrentDBQueries = getEnvInt("SAMPLING_MAX_CONCURRENT_DB_QUERIES", cfg.MaxConcurrentDBQueries)
	cfg.EntropyCalculationEnabled = getEnv("SAMPLING_ENTROPY_CALCULATION_ENABLED", "true") == "true"
	return cfg
}

/* DSN returns the database connection string */
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
