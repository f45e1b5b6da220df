package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App               App               `mapstructure:",squash"`
	Server            Server            `mapstructure:",squash"`
	Database          Database          `mapstructure:",squash"`
	Redis             Redis             `mapstructure:",squash"`
	Meta              Meta              `mapstructure:",squash"`
	Google            Google            `mapstructure:",squash"`
	Currency          Currency          `mapstructure:",squash"`
	Auth              Auth              `mapstructure:",squash"`
	Security          Security          `mapstructure:",squash"`
	RateLimit         RateLimit         `mapstructure:",squash"`
	Queues            Queues            `mapstructure:",squash"`
	EntitySync        EntitySync        `mapstructure:",squash"`
	FullInsightsSync  FullInsightsSync  `mapstructure:",squash"`
	DeltaInsightsSync DeltaInsightsSync `mapstructure:",squash"`
	Recommendations   Recommendations   `mapstructure:",squash"`
}

type App struct {
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`

	MaxOpenConns    int           `mapstructure:"database_max_open_conns"`
	MaxIdleConns    int           `mapstructure:"database_max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"database_conn_max_lifetime"`
}

type Redis struct {
	URL string `mapstructure:"redis_url"`
}

type Meta struct {
	BaseURL        string        `mapstructure:"meta_base_url"`
	URL            string        `mapstructure:"-"`
	Version        string        `mapstructure:"meta_version"`
	AppID          string        `mapstructure:"meta_app_id"`
	AppSecret      string        `mapstructure:"meta_app_secret"`
	PageSize       int           `mapstructure:"meta_page_size"`
	RequestTimeout time.Duration `mapstructure:"meta_request_timeout"`

	// Tokens que expiram antes deste prazo são renovados na sincronização
	TokenRefreshThreshold time.Duration `mapstructure:"meta_token_refresh_threshold"`
}

type Google struct {
	BaseURL        string        `mapstructure:"google_ads_base_url"`
	Version        string        `mapstructure:"google_ads_version"`
	DeveloperToken string        `mapstructure:"google_ads_developer_token"`
	ClientID       string        `mapstructure:"google_client_id"`
	ClientSecret   string        `mapstructure:"google_client_secret"`
	TokenURL       string        `mapstructure:"google_token_url"`
	RequestTimeout time.Duration `mapstructure:"google_ads_request_timeout"`
}

type Currency struct {
	Reporting string `mapstructure:"currency_reporting"`

	// Taxas contra a moeda base no formato "USD:1,BRL:0.18"
	Rates    string             `mapstructure:"currency_rates"`
	RateMap  map[string]float64 `mapstructure:"-"`
	Attempts int                `mapstructure:"currency_convert_attempts"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

type Security struct {
	// Chave de 32 bytes em hexadecimal para cifrar os tokens das conexões
	TokenEncryptionKey string `mapstructure:"token_encryption_key"`
}

type RateLimit struct {
	MetaPerMinute       int `mapstructure:"meta_rate_limit_per_minute"`
	MetaPerHour         int `mapstructure:"meta_rate_limit_per_hour"`
	MetaConcurrentJobs  int `mapstructure:"meta_max_concurrent_jobs"`
	GooglePerMinute     int `mapstructure:"google_rate_limit_per_minute"`
	GooglePerHour       int `mapstructure:"google_rate_limit_per_hour"`
	GoogleConcurrentJob int `mapstructure:"google_max_concurrent_jobs"`

	// Tempo de vida do contador de concorrência, caso um processo morra sem liberar
	ConcurrencyTTL time.Duration `mapstructure:"rate_limit_concurrency_ttl"`
}

// Queue descreve um pool de workers independente
type Queue struct {
	Concurrency     int
	MaxJobs         int
	Per             time.Duration
	Attempts        int
	Backoff         time.Duration
	LeaseDuration   time.Duration
	MaxStalledCount int
}

type Queues struct {
	EntitySyncConcurrency      int           `mapstructure:"queue_entity_sync_concurrency"`
	EntitySyncMaxJobs          int           `mapstructure:"queue_entity_sync_max_jobs"`
	EntitySyncPer              time.Duration `mapstructure:"queue_entity_sync_per"`
	InsightsSyncConcurrency    int           `mapstructure:"queue_insights_sync_concurrency"`
	InsightsSyncMaxJobs        int           `mapstructure:"queue_insights_sync_max_jobs"`
	InsightsSyncPer            time.Duration `mapstructure:"queue_insights_sync_per"`
	RecommendationsConcurrency int           `mapstructure:"queue_recommendations_concurrency"`
	RecommendationsMaxJobs     int           `mapstructure:"queue_recommendations_max_jobs"`
	RecommendationsPer         time.Duration `mapstructure:"queue_recommendations_per"`
	Attempts                   int           `mapstructure:"queue_job_attempts"`
	Backoff                    time.Duration `mapstructure:"queue_job_backoff"`
	LeaseDuration              time.Duration `mapstructure:"queue_lease_duration"`
	StalledInterval            time.Duration `mapstructure:"queue_stalled_interval"`
	MaxStalledCount            int           `mapstructure:"queue_max_stalled_count"`
	PollInterval               time.Duration `mapstructure:"queue_poll_interval"`
	CompletedRetention         time.Duration `mapstructure:"queue_completed_retention"`
	FailedRetention            time.Duration `mapstructure:"queue_failed_retention"`
}

func (q Queues) EntitySync() Queue {
	return q.pool(q.EntitySyncConcurrency, q.EntitySyncMaxJobs, q.EntitySyncPer)
}

func (q Queues) InsightsSync() Queue {
	return q.pool(q.InsightsSyncConcurrency, q.InsightsSyncMaxJobs, q.InsightsSyncPer)
}

func (q Queues) Recommendations() Queue {
	return q.pool(q.RecommendationsConcurrency, q.RecommendationsMaxJobs, q.RecommendationsPer)
}

func (q Queues) pool(concurrency, maxJobs int, per time.Duration) Queue {
	return Queue{
		Concurrency:     concurrency,
		MaxJobs:         maxJobs,
		Per:             per,
		Attempts:        q.Attempts,
		Backoff:         q.Backoff,
		LeaseDuration:   q.LeaseDuration,
		MaxStalledCount: q.MaxStalledCount,
	}
}

type EntitySync struct {
	CronSchedule string `mapstructure:"entity_sync_cron"`
	Enabled      bool   `mapstructure:"entity_sync_enabled"`
}

type FullInsightsSync struct {
	CronSchedule string `mapstructure:"full_insights_sync_cron"`
	LookbackDays int    `mapstructure:"full_insights_sync_lookback_days"`
	Enabled      bool   `mapstructure:"full_insights_sync_enabled"`
}

type DeltaInsightsSync struct {
	CronSchedule  string        `mapstructure:"delta_insights_sync_cron"`
	LookbackHours int           `mapstructure:"delta_insights_sync_lookback_hours"`
	Slot          time.Duration `mapstructure:"delta_insights_sync_slot"`
	Enabled       bool          `mapstructure:"delta_insights_sync_enabled"`
}

type Recommendations struct {
	CronSchedule  string        `mapstructure:"recommendations_cron"`
	Enabled       bool          `mapstructure:"recommendations_enabled"`
	PlaybooksFile string        `mapstructure:"recommendations_playbooks_file"`
	PendingTTL    time.Duration `mapstructure:"recommendations_pending_ttl"`
	LookbackDays  int           `mapstructure:"recommendations_lookback_days"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/ads_sync?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_APP_ID", "")
	viper.SetDefault("META_APP_SECRET", "")
	viper.SetDefault("META_PAGE_SIZE", 100)
	viper.SetDefault("META_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("META_TOKEN_REFRESH_THRESHOLD", "168h") // 7 dias

	viper.SetDefault("GOOGLE_ADS_BASE_URL", "https://googleads.googleapis.com")
	viper.SetDefault("GOOGLE_ADS_VERSION", "v18")
	viper.SetDefault("GOOGLE_ADS_DEVELOPER_TOKEN", "")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	viper.SetDefault("GOOGLE_ADS_PAGE_SIZE", 1000)
	viper.SetDefault("GOOGLE_ADS_REQUEST_TIMEOUT", "30s")

	viper.SetDefault("CURRENCY_REPORTING", "USD")
	viper.SetDefault("CURRENCY_RATES", "USD:1,BRL:0.18,EUR:1.08,GBP:1.27,MXN:0.055")
	viper.SetDefault("CURRENCY_CONVERT_ATTEMPTS", 3)

	viper.SetDefault("AUTH_SECRET", "your_secret_key")
	viper.SetDefault("TOKEN_ENCRYPTION_KEY", "")

	// Limites por (provedor, conta)
	viper.SetDefault("META_RATE_LIMIT_PER_MINUTE", 200)
	viper.SetDefault("META_RATE_LIMIT_PER_HOUR", 4800)
	viper.SetDefault("META_MAX_CONCURRENT_JOBS", 5)
	viper.SetDefault("GOOGLE_RATE_LIMIT_PER_MINUTE", 300)
	viper.SetDefault("GOOGLE_RATE_LIMIT_PER_HOUR", 10000)
	viper.SetDefault("GOOGLE_MAX_CONCURRENT_JOBS", 5)
	viper.SetDefault("RATE_LIMIT_CONCURRENCY_TTL", "30m")

	viper.SetDefault("QUEUE_ENTITY_SYNC_CONCURRENCY", 2)
	viper.SetDefault("QUEUE_ENTITY_SYNC_MAX_JOBS", 10)
	viper.SetDefault("QUEUE_ENTITY_SYNC_PER", "1m")
	viper.SetDefault("QUEUE_INSIGHTS_SYNC_CONCURRENCY", 4)
	viper.SetDefault("QUEUE_INSIGHTS_SYNC_MAX_JOBS", 30)
	viper.SetDefault("QUEUE_INSIGHTS_SYNC_PER", "1m")
	viper.SetDefault("QUEUE_RECOMMENDATIONS_CONCURRENCY", 2)
	viper.SetDefault("QUEUE_RECOMMENDATIONS_MAX_JOBS", 20)
	viper.SetDefault("QUEUE_RECOMMENDATIONS_PER", "1m")
	viper.SetDefault("QUEUE_JOB_ATTEMPTS", 3)
	viper.SetDefault("QUEUE_JOB_BACKOFF", "30s")
	viper.SetDefault("QUEUE_LEASE_DURATION", "5m")
	viper.SetDefault("QUEUE_STALLED_INTERVAL", "30s")
	viper.SetDefault("QUEUE_MAX_STALLED_COUNT", 2)
	viper.SetDefault("QUEUE_POLL_INTERVAL", "1s")
	viper.SetDefault("QUEUE_COMPLETED_RETENTION", "24h")
	viper.SetDefault("QUEUE_FAILED_RETENTION", "168h")

	viper.SetDefault("ENTITY_SYNC_CRON", "0 2 * * *") // Todos os dias às 2h
	viper.SetDefault("ENTITY_SYNC_ENABLED", true)

	viper.SetDefault("FULL_INSIGHTS_SYNC_CRON", "0 3 * * *") // Todos os dias às 3h
	viper.SetDefault("FULL_INSIGHTS_SYNC_LOOKBACK_DAYS", 30)
	viper.SetDefault("FULL_INSIGHTS_SYNC_ENABLED", true)

	viper.SetDefault("DELTA_INSIGHTS_SYNC_CRON", "*/30 * * * *") // A cada 30 minutos
	viper.SetDefault("DELTA_INSIGHTS_SYNC_LOOKBACK_HOURS", 24)
	viper.SetDefault("DELTA_INSIGHTS_SYNC_SLOT", "30m")
	viper.SetDefault("DELTA_INSIGHTS_SYNC_ENABLED", true)

	viper.SetDefault("RECOMMENDATIONS_CRON", "0 4 * * *") // Depois da sincronização completa
	viper.SetDefault("RECOMMENDATIONS_ENABLED", true)
	viper.SetDefault("RECOMMENDATIONS_PLAYBOOKS_FILE", "playbooks/default.yaml")
	viper.SetDefault("RECOMMENDATIONS_PENDING_TTL", "336h") // 14 dias
	viper.SetDefault("RECOMMENDATIONS_LOOKBACK_DAYS", 30)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "30s")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// finalize calcula os campos derivados e valida o que não tem padrão seguro
func (c *Config) finalize() error {
	c.Meta.URL = fmt.Sprintf("%s/%s", c.Meta.BaseURL, c.Meta.Version)

	c.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		c.Database.Driver,
		c.Database.User,
		c.Database.Password,
		c.Database.URL,
	)

	rates, err := ParseRates(c.Currency.Rates)
	if err != nil {
		return err
	}
	if _, ok := rates[strings.ToUpper(c.Currency.Reporting)]; !ok {
		return fmt.Errorf("config: reporting currency %q has no rate", c.Currency.Reporting)
	}
	c.Currency.Reporting = strings.ToUpper(c.Currency.Reporting)
	c.Currency.RateMap = rates

	return nil
}

// ParseRates lê "USD:1,BRL:0.18" em um mapa moeda -> taxa contra a base
func ParseRates(raw string) (map[string]float64, error) {
	rates := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("config: invalid currency rate %q", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("config: invalid currency rate %q", pair)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		logrus.Debug("Tentando carregar .env de:", location)
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
