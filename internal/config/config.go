package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const maxDetailConcurrency = 8

// Config stores runtime configuration for the sync service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	LogLevel                logging.Level
	LogFormat               string
	DBURL                   string
	DBDisablePreparedBinary bool
	StorageDriver           string
	MetricsAddr             string

	GuildAPIBaseURL               string
	GuildAPIKey                   string
	GuildAPITimeout               time.Duration
	GuildAPIMaxRetries            int
	GuildAPIRetryBackoff          time.Duration
	GuildAPIRatePerSecond         float64
	GuildAPIRateBurst             int
	GuildAPICircuitEnabled        bool
	GuildAPICircuitFailureCount   int
	GuildAPICircuitOpenTimeout    time.Duration
	GuildAPICircuitHalfOpenMaxReq int

	SyncRunOnStartup      bool
	SyncInterval          time.Duration
	SyncDetailConcurrency int
	SyncIncludePastRaids  bool
	SyncFallbackSeasonID  int64
	SyncContextCacheTTL   time.Duration

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	storageDriver, err := parseStorageDriver(getEnv("STORAGE_DRIVER", StoragePostgres))
	if err != nil {
		return Config{}, err
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storageDriver == StoragePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
	}

	apiKey := strings.TrimSpace(getEnv("GUILD_API_KEY", ""))
	if apiKey == "" && !(storageDriver == StorageMemory && appEnv == EnvDev) {
		return Config{}, fmt.Errorf("GUILD_API_KEY is required unless STORAGE_DRIVER=%s and APP_ENV=%s", StorageMemory, EnvDev)
	}
	apiTimeout, err := time.ParseDuration(getEnv("GUILD_API_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_TIMEOUT: %w", err)
	}
	if apiTimeout <= 0 {
		return Config{}, fmt.Errorf("GUILD_API_TIMEOUT must be > 0")
	}
	apiMaxRetries, err := getEnvAsInt("GUILD_API_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_MAX_RETRIES: %w", err)
	}
	if apiMaxRetries < 0 {
		return Config{}, fmt.Errorf("GUILD_API_MAX_RETRIES must be >= 0")
	}
	apiRetryBackoff, err := time.ParseDuration(getEnv("GUILD_API_RETRY_BACKOFF", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_RETRY_BACKOFF: %w", err)
	}
	if apiRetryBackoff <= 0 {
		return Config{}, fmt.Errorf("GUILD_API_RETRY_BACKOFF must be > 0")
	}
	apiRatePerSecond, err := strconv.ParseFloat(getEnv("GUILD_API_RATE_PER_SEC", "0"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_RATE_PER_SEC: %w", err)
	}
	if apiRatePerSecond < 0 {
		return Config{}, fmt.Errorf("GUILD_API_RATE_PER_SEC must be >= 0")
	}
	apiRateBurst, err := getEnvAsInt("GUILD_API_RATE_BURST", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_RATE_BURST: %w", err)
	}
	if apiRateBurst < 1 {
		return Config{}, fmt.Errorf("GUILD_API_RATE_BURST must be >= 1")
	}

	apiCircuitEnabled, err := strconv.ParseBool(getEnv("GUILD_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_CIRCUIT_ENABLED: %w", err)
	}
	apiCircuitFailureCount, err := getEnvAsInt("GUILD_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if apiCircuitFailureCount <= 0 {
		return Config{}, fmt.Errorf("GUILD_API_CIRCUIT_FAILURE_COUNT must be > 0")
	}
	apiCircuitOpenTimeout, err := time.ParseDuration(getEnv("GUILD_API_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if apiCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("GUILD_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	apiCircuitHalfOpenMaxReq, err := getEnvAsInt("GUILD_API_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse GUILD_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if apiCircuitHalfOpenMaxReq <= 0 {
		return Config{}, fmt.Errorf("GUILD_API_CIRCUIT_HALF_OPEN_MAX_REQ must be > 0")
	}

	runOnStartup, err := strconv.ParseBool(getEnv("SYNC_RUN_ON_STARTUP", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_RUN_ON_STARTUP: %w", err)
	}
	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	if syncInterval < 0 {
		return Config{}, fmt.Errorf("SYNC_INTERVAL must be >= 0")
	}
	detailConcurrency, err := getEnvAsInt("SYNC_DETAIL_CONCURRENCY", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_DETAIL_CONCURRENCY: %w", err)
	}
	if detailConcurrency < 1 || detailConcurrency > maxDetailConcurrency {
		return Config{}, fmt.Errorf("SYNC_DETAIL_CONCURRENCY must be between 1 and %d", maxDetailConcurrency)
	}
	includePastRaids, err := strconv.ParseBool(getEnv("SYNC_INCLUDE_PAST_RAIDS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INCLUDE_PAST_RAIDS: %w", err)
	}
	fallbackSeasonID, err := strconv.ParseInt(getEnv("SYNC_FALLBACK_SEASON_ID", "0"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_FALLBACK_SEASON_ID: %w", err)
	}
	if fallbackSeasonID < 0 {
		return Config{}, fmt.Errorf("SYNC_FALLBACK_SEASON_ID must be >= 0")
	}
	contextCacheTTL, err := time.ParseDuration(getEnv("SYNC_CONTEXT_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_CONTEXT_CACHE_TTL: %w", err)
	}
	if contextCacheTTL <= 0 {
		return Config{}, fmt.Errorf("SYNC_CONTEXT_CACHE_TTL must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             strings.TrimSpace(getEnv("APP_SERVICE_NAME", "guildsync")),
		ServiceVersion:          strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		LogLevel:                logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:               parseLogFormat(getEnv("APP_LOG_FORMAT", logging.FormatJSON)),
		DBURL:                   dbURL,
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		StorageDriver:           storageDriver,
		MetricsAddr:             strings.TrimSpace(getEnv("METRICS_ADDR", ":9090")),

		GuildAPIBaseURL:               strings.TrimSpace(getEnv("GUILD_API_BASE_URL", "https://wowaudit.com/v1")),
		GuildAPIKey:                   apiKey,
		GuildAPITimeout:               apiTimeout,
		GuildAPIMaxRetries:            apiMaxRetries,
		GuildAPIRetryBackoff:          apiRetryBackoff,
		GuildAPIRatePerSecond:         apiRatePerSecond,
		GuildAPIRateBurst:             apiRateBurst,
		GuildAPICircuitEnabled:        apiCircuitEnabled,
		GuildAPICircuitFailureCount:   apiCircuitFailureCount,
		GuildAPICircuitOpenTimeout:    apiCircuitOpenTimeout,
		GuildAPICircuitHalfOpenMaxReq: apiCircuitHalfOpenMaxReq,

		SyncRunOnStartup:      runOnStartup,
		SyncInterval:          syncInterval,
		SyncDetailConcurrency: detailConcurrency,
		SyncIncludePastRaids:  includePastRaids,
		SyncFallbackSeasonID:  fallbackSeasonID,
		SyncContextCacheTTL:   contextCacheTTL,

		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:    pyroscopeUploadRate,
	}
	if cfg.ServiceName == "" {
		return Config{}, fmt.Errorf("APP_SERVICE_NAME must not be empty")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseStorageDriver(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StoragePostgres, StorageMemory:
		return value, nil
	default:
		return "", fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", v, StoragePostgres, StorageMemory)
	}
}

func parseLogFormat(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), logging.FormatConsole) {
		return logging.FormatConsole
	}
	return logging.FormatJSON
}
