package bootstrap

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/adapters/dockermcp"
	errnoop "equitydesk/internal/adapters/errors/noop"
	"equitydesk/internal/adapters/errors/sentry"
	"equitydesk/internal/adapters/exa"
	"equitydesk/internal/adapters/kafka"
	pgclient "equitydesk/internal/adapters/postgres"
	redisclient "equitydesk/internal/adapters/redis"
	"equitydesk/internal/adapters/yahoo"
	"equitydesk/internal/agents"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/api"
	"equitydesk/internal/api/health"
	"equitydesk/internal/api/runs"
	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/domain/news"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/metrics"
	"equitydesk/internal/report"
	pgrepo "equitydesk/internal/repository/postgres"
	fundsvc "equitydesk/internal/services/fundamentals"
	newssvc "equitydesk/internal/services/news"
	researchsvc "equitydesk/internal/services/research"
	"equitydesk/internal/tools"
	researchtools "equitydesk/internal/tools/research"
	"equitydesk/internal/tools/shared"
	"equitydesk/internal/workers"
	researchworkers "equitydesk/internal/workers/research"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
	"equitydesk/pkg/templates"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores. A store that is
// configured but unreachable is fatal; an unconfigured one is skipped.
func (c *Container) MustInitInfrastructure() {
	var err error

	if c.Config.Postgres.Enabled() {
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}

		migrateCtx, cancel := context.WithTimeout(c.Context, 30*time.Second)
		err = c.PG.Migrate(migrateCtx)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to migrate postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	} else {
		c.Log.Info("PostgreSQL not configured, run history disabled")
	}

	if c.Config.Redis.Enabled() {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	} else {
		c.Log.Info("Redis not configured, caching disabled")
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories creates repositories over the connected stores
func (c *Container) MustInitRepositories() {
	if c.PG == nil {
		c.Repos.Runs = run.NoopRepository{}
		return
	}
	c.Repos.Runs = pgrepo.NewRunRepository(c.PG.DB())
	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes news, fundamentals, LLM and Kafka adapters
func (c *Container) MustInitAdapters() {
	cfg := c.Config

	c.Adapters.NewsBackend = provideNewsBackend(cfg, c.Redis, c.Log)
	c.Adapters.FundamentalsBackend = provideFundamentalsBackend(cfg, c.Redis, c.Log)

	c.Adapters.ChatProvider = ai.NewOpenRouterProvider(cfg.OpenRouter)
	c.Log.Infow("✓ Chat provider initialized",
		"provider", c.Adapters.ChatProvider.Name(),
		"requests_per_minute", cfg.OpenRouter.RequestsPerMin,
	)

	if cfg.Kafka.Enabled() {
		c.Adapters.KafkaProducer = provideKafkaProducer(cfg, c.Log)
		if cfg.Kafka.TriggersEnabled() {
			c.Adapters.TriggerConsumer = provideKafkaConsumer(cfg, cfg.Kafka.TriggerTopic, c.Log)
		}
	} else {
		c.Log.Info("Kafka not configured, report events disabled")
	}
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices initializes news and fundamentals services
func (c *Container) MustInitServices() {
	if c.Adapters.NewsBackend != nil {
		c.Services.News = newssvc.NewResolver(c.Adapters.NewsBackend, newssvc.Config{
			MinPriorityResults: c.Config.News.MinPriorityResults,
			MaxArticles:        c.Config.News.MaxArticles,
		})
	}
	c.Services.Fundamentals = fundsvc.NewService(c.Adapters.FundamentalsBackend)
	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Business Logic
// ========================================

// MustInitBusiness builds tools, agents and the research workflow
func (c *Container) MustInitBusiness() {
	var err error
	defaults := c.Config.DefaultRun()

	deps := shared.Deps{
		Defaults: shared.Defaults{
			Market:       defaults.Market,
			Exchange:     defaults.ExchangePreference,
			LookbackDays: defaults.LookbackDays,
		},
		Log: c.Log.Named("tools"),
	}
	if c.Services.News != nil {
		deps.News = c.Services.News
	}
	if c.Services.Fundamentals != nil {
		deps.Fundamentals = c.Services.Fundamentals
	}

	c.Business.ToolRegistry = tools.NewRegistry()
	researchtools.RegisterAll(c.Business.ToolRegistry, deps)
	c.Log.Infow("✓ Tools registered", "tools", c.Business.ToolRegistry.List())

	c.Business.Usage = agents.NewUsageTracker()
	c.Business.AgentFactory, err = agents.NewFactory(agents.FactoryDeps{
		Provider:     c.Adapters.ChatProvider,
		ToolRegistry: c.Business.ToolRegistry,
		Templates:    templates.Get(),
		Usage:        c.Business.Usage,
	})
	if err != nil {
		c.Log.Fatalf("failed to create agent factory: %v", err)
	}

	c.Business.WorkflowFactory = workflows.NewFactory(c.Business.AgentFactory)
	c.Business.ResearchWorkflow, err = c.Business.WorkflowFactory.CreateResearchWorkflow()
	if err != nil {
		c.Log.Fatalf("failed to create research workflow: %v", err)
	}

	c.Business.Cascade = ai.NewModelCascade(c.Config.OpenRouter.CandidateModels())
	c.Business.ReportWriter = report.NewWriter(c.Config.Output.ReportPath)

	c.Log.Infow("✓ Research workflow ready",
		"models", c.Business.Cascade.Models(),
		"report_path", c.Config.Output.ReportPath,
	)
}

// MustInitResearch wires the research service that every entry point uses
func (c *Container) MustInitResearch() {
	opts := researchsvc.Options{
		Workflow:    c.Business.ResearchWorkflow,
		Cascade:     c.Business.Cascade,
		Writer:      c.Business.ReportWriter,
		Runs:        c.Repos.Runs,
		ReportTopic: c.Config.Kafka.ReportTopic,
		Validate:    c.Config.Validate,
	}
	if c.Adapters.KafkaProducer != nil {
		opts.Publisher = c.Adapters.KafkaProducer
	}
	if opts.ReportTopic == "" {
		opts.ReportTopic = kafka.TopicReportCompleted
	}
	c.Services.Research = researchsvc.NewService(opts)
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication initializes metrics, health checks and the HTTP server
func (c *Container) MustInitApplication() {
	metrics.Init()

	var db *sqlx.DB
	if c.PG != nil {
		db = c.PG.DB()
	}
	var rdb *goredis.Client
	if c.Redis != nil {
		rdb = c.Redis.Client()
	}
	metrics.RegisterCustomCollector(metrics.NewCustomCollector(c.Log.Named("metrics"), db, rdb))

	c.Application.HealthHandler = health.New(c.Log, c.Config.App.Name, c.Config.App.Version)
	if c.PG != nil {
		c.Application.HealthHandler.Register("postgres", c.PG.Health)
	}
	if c.Redis != nil {
		c.Application.HealthHandler.Register("redis", c.Redis.Health)
	}

	c.Application.RunsHandler = runs.NewHandler(c.Services.Research, c.Config.Company.RunInput, c.Config.HTTP.RunTimeout)

	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, c.Application.HealthHandler, c.Application.RunsHandler, c.Log.Named("http"))

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Phase 8: Background Processing
// ========================================

// MustInitBackground registers the background workers
func (c *Container) MustInitBackground() {
	scheduler := workers.NewScheduler()

	var locker researchworkers.Locker
	if c.Redis != nil {
		locker = c.Redis
	}
	scheduler.RegisterWorker(researchworkers.NewReportRefresh(
		c.Services.Research,
		c.Config.DefaultRun,
		locker,
		c.Config.Workers.ReportRefreshInterval,
		c.Config.Workers.ReportRefreshEnabled,
	))

	if c.Adapters.TriggerConsumer != nil {
		scheduler.RegisterWorker(researchworkers.NewTriggerConsumer(
			c.Services.Research,
			c.Adapters.TriggerConsumer,
			c.Config.Company.RunInput,
			true,
		))
	}

	if c.Application.HealthHandler != nil {
		c.Application.HealthHandler.Attach("workers", func() any { return scheduler.Statuses() })
	}

	c.Background.WorkerScheduler = scheduler
	c.Log.Info("✓ Background workers registered")
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New(log)
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New(log)
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

// provideNewsBackend prefers the direct Exa API, then the Docker MCP tool.
// Returns nil when neither is available; news tools then report the gap.
func provideNewsBackend(cfg *config.Config, cache *redisclient.Client, log *logger.Logger) news.SearchBackend {
	var backend news.SearchBackend
	switch {
	case cfg.News.ExaAPIKey != "":
		backend = exa.NewClient(cfg.News.ExaAPIKey, cfg.News.ExaBaseURL)
	case cfg.News.DockerMCPEnabled:
		backend = dockermcp.NewBackend()
	default:
		log.Warn("No news backend configured (set EXA_API_KEY or enable Docker MCP)")
		return nil
	}

	if cache != nil {
		backend = newssvc.NewCachedBackend(backend, cache, cfg.News.CacheTTL)
	}

	log.Infow("✓ News backend initialized", "backend", backend.Name(), "cached", cache != nil)
	return backend
}

func provideFundamentalsBackend(cfg *config.Config, cache *redisclient.Client, log *logger.Logger) fundamentals.Backend {
	var backend fundamentals.Backend = yahoo.NewClient(cfg.Fundamentals.YahooBaseURL)
	if cache != nil {
		backend = fundsvc.NewCachedBackend(backend, cache, cfg.Fundamentals.CacheTTL)
	}

	log.Infow("✓ Fundamentals backend initialized", "backend", backend.Name(), "cached", cache != nil)
	return backend
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers)
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideKafkaConsumer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Consumer {
	group := cfg.Kafka.GroupID
	if group == "" {
		group = kafka.ConsumerGroup
	}

	log.Infow("Initializing Kafka consumer", "topic", topic, "group", group)
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: group,
		Topic:   topic,
	})
	log.Info("✓ Kafka consumer initialized")
	return consumer
}
