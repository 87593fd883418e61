package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"equitydesk/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Company       CompanyConfig
	OpenRouter    OpenRouterConfig
	News          NewsConfig
	Fundamentals  FundamentalsConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
	Output        OutputConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"equitydesk"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port       int           `envconfig:"HTTP_PORT" default:"8080"`
	// RunTimeout bounds one API-started run, including every model attempt
	RunTimeout time.Duration `envconfig:"HTTP_RUN_TIMEOUT" default:"15m"`
}

// CompanyConfig holds the raw run inputs; see RunConfig for the normalised form.
// Day counts are kept as strings so junk values fall back to defaults instead of
// failing the whole load.
type CompanyConfig struct {
	Ticker             string `envconfig:"COMPANY_TICKER"`
	Name               string `envconfig:"COMPANY_NAME"`
	Market             string `envconfig:"MARKET" default:"global"`
	ExchangePreference string `envconfig:"EXCHANGE_PREFERENCE" default:"NSE"`
	InvestorProfile    string `envconfig:"INVESTOR_PROFILE" default:"moderate"`
	HorizonDays        string `envconfig:"ANALYSIS_HORIZON_DAYS" default:"365"`
	LookbackDays       string `envconfig:"NEWS_LOOKBACK_DAYS" default:"30"`
}

type OpenRouterConfig struct {
	APIKey         string   `envconfig:"OPENROUTER_API_KEY"`
	Model          string   `envconfig:"OPENROUTER_MODEL"`
	ModelFallbacks []string `envconfig:"OPENROUTER_MODEL_FALLBACKS"`
	BaseURL        string   `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Temperature    float64  `envconfig:"OPENROUTER_TEMPERATURE" default:"0.2"`
	RequestsPerMin int      `envconfig:"OPENROUTER_REQ_PER_MINUTE" default:"20"`
}

// CandidateModels returns the primary model followed by the fallbacks,
// trimmed and de-duplicated with order preserved.
func (c OpenRouterConfig) CandidateModels() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.ModelFallbacks)+1)
	for _, m := range append([]string{c.Model}, c.ModelFallbacks...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

type NewsConfig struct {
	ExaAPIKey          string        `envconfig:"EXA_API_KEY"`
	ExaBaseURL         string        `envconfig:"EXA_BASE_URL" default:"https://api.exa.ai"`
	MinPriorityResults int           `envconfig:"NEWS_MIN_PRIORITY_RESULTS" default:"3"`
	MaxArticles        int           `envconfig:"NEWS_MAX_ARTICLES" default:"15"`
	DockerMCPEnabled   bool          `envconfig:"NEWS_DOCKER_MCP_ENABLED" default:"true"`
	CacheTTL           time.Duration `envconfig:"NEWS_CACHE_TTL" default:"30m"`
}

type FundamentalsConfig struct {
	YahooBaseURL string        `envconfig:"YAHOO_BASE_URL" default:"https://query2.finance.yahoo.com"`
	CacheTTL     time.Duration `envconfig:"FUNDAMENTALS_CACHE_TTL" default:"1h"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"equitydesk"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"equitydesk"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

// Enabled reports whether run history should be persisted
func (c PostgresConfig) Enabled() bool { return c.Host != "" }

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether backend responses should be cached
func (c RedisConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers      []string `envconfig:"KAFKA_BROKERS"`
	ReportTopic  string   `envconfig:"KAFKA_REPORT_TOPIC" default:"reports.completed"`
	TriggerTopic string   `envconfig:"KAFKA_TRIGGER_TOPIC"`
	GroupID      string   `envconfig:"KAFKA_GROUP_ID" default:"equitydesk"`
}

// Enabled reports whether report events should be published
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// TriggersEnabled reports whether runs may be started from a trigger topic
func (c KafkaConfig) TriggersEnabled() bool { return c.Enabled() && c.TriggerTopic != "" }

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains settings for background workers
type WorkerConfig struct {
	ReportRefreshEnabled  bool          `envconfig:"WORKER_REPORT_REFRESH_ENABLED" default:"false"`
	ReportRefreshInterval time.Duration `envconfig:"WORKER_REPORT_REFRESH_INTERVAL" default:"24h"`
}

type OutputConfig struct {
	ReportPath string `envconfig:"REPORT_PATH" default:"report.md"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.News.MinPriorityResults < 1 {
		cfg.News.MinPriorityResults = 1
	}
	if cfg.News.MaxArticles < 1 {
		cfg.News.MaxArticles = 15
	}

	return &cfg, nil
}

// Validate fails with a single error naming every missing required item
// for the given run.
func (c *Config) Validate(run RunConfig) error {
	var missing []string
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		missing = append(missing, "OPENROUTER_API_KEY")
	}
	if strings.TrimSpace(c.OpenRouter.Model) == "" {
		missing = append(missing, "OPENROUTER_MODEL")
	}
	if run.Ticker == "" {
		missing = append(missing, "COMPANY_TICKER (or ticker input)")
	}
	if run.CompanyName == "" {
		missing = append(missing, "COMPANY_NAME (or company_name input)")
	}

	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrMissingConfig, "%s; check your .env file before running", strings.Join(missing, ", "))
	}
	return nil
}
