package bootstrap

import (
	"context"
	"sync"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/adapters/kafka"
	pgclient "equitydesk/internal/adapters/postgres"
	redisclient "equitydesk/internal/adapters/redis"
	"equitydesk/internal/agents"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/api"
	"equitydesk/internal/api/health"
	"equitydesk/internal/api/runs"
	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/domain/news"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/report"
	fundsvc "equitydesk/internal/services/fundamentals"
	newssvc "equitydesk/internal/services/news"
	researchsvc "equitydesk/internal/services/research"
	"equitydesk/internal/tools"
	"equitydesk/internal/workers"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
	"equitydesk/pkg/templates"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional data stores, nil when not configured)
	PG    *pgclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Adapters    *Adapters
	Services    *Services
	Business    *Business
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Runs run.Repository
}

// Adapters groups all external adapters
type Adapters struct {
	// News backend actually used by the resolver, nil when none is available
	NewsBackend         news.SearchBackend
	FundamentalsBackend fundamentals.Backend
	ChatProvider        *ai.OpenRouterProvider

	// Kafka, nil when brokers are not configured
	KafkaProducer   *kafka.Producer
	TriggerConsumer *kafka.Consumer
}

// Services groups domain and application services
type Services struct {
	News         *newssvc.Resolver
	Fundamentals *fundsvc.Service
	Research     *researchsvc.Service
}

// Business groups business logic components
type Business struct {
	ToolRegistry     *tools.Registry
	Usage            *agents.UsageTracker
	AgentFactory     *agents.Factory
	WorkflowFactory  *workflows.Factory
	ResearchWorkflow *workflows.ResearchWorkflow
	Cascade          *ai.ModelCascade
	ReportWriter     *report.Writer
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	RunsHandler   *runs.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Adapters:    &Adapters{},
		Services:    &Services{},
		Business:    &Business{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInitCore initializes everything a single run needs: config, stores,
// adapters, services and the agent workflow. CLI runs stop here.
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInitCore() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitBusiness()
	c.MustInitResearch()
}

// MustInit initializes all components for the long-running server
func (c *Container) MustInit() {
	c.MustInitCore()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts the HTTP server and background workers
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Adapters.KafkaProducer,
		c.Adapters.TriggerConsumer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// Close releases what MustInitCore opened, for one-shot CLI runs
func (c *Container) Close() {
	c.Cancel()
	c.Lifecycle.Shutdown(c.WG, nil, nil, c.Adapters.KafkaProducer, nil, c.PG, c.Redis, c.ErrorTracker, c.Log)
}

// GetMetrics returns metrics for observability
func (c *Container) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"tools":         len(c.Business.ToolRegistry.List()),
		"models":        c.Business.Cascade.Models(),
		"total_tokens":  c.Business.Usage.TotalTokens(),
		"history":       c.PG != nil,
		"cache":         c.Redis != nil,
		"kafka_enabled": c.Adapters.KafkaProducer != nil,
	}
}

// TemplateRegistry returns the global template registry
func (c *Container) TemplateRegistry() *templates.Registry {
	return templates.Get()
}
