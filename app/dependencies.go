package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/config"
	"github.com/upb/hybrid-rag/handlers"
	"github.com/upb/hybrid-rag/repositories"
	"github.com/upb/hybrid-rag/repositories/postgres"
	"github.com/upb/hybrid-rag/services/audit"
	"github.com/upb/hybrid-rag/services/hybrid"
	"github.com/upb/hybrid-rag/services/knowledgebase"
	"github.com/upb/hybrid-rag/services/llm"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	AWS    aws.Config

	// Clients
	KnowledgeBase *knowledgebase.Client
	LLM           *llm.Client

	// Audit trail, nil when no database is configured
	RepoFactory *postgres.RepositoryFactory
	DB          *postgres.DB
	QueryLogs   repositories.QueryLogRepository
	Audit       *audit.AuditService

	// Services
	Hybrid *hybrid.Service

	// Handlers
	QueryHandler  *handlers.QueryHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
// opts are forwarded to the hybrid service, e.g. a CLI progress callback.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...hybrid.Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load aws configuration: %w", err)
	}

	if err := deps.initClients(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if cfg.AuditEnabled() {
		if err := deps.initAudit(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		opts = append(opts, hybrid.WithRecorder(deps.Audit))
	} else {
		logger.Info("database not configured, query audit trail disabled")
	}

	deps.Hybrid = hybrid.NewService(deps.KnowledgeBase, deps.LLM, cfg.KnowledgeBase, logger, opts...)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initAWS resolves region, credentials and the shared HTTP client
func (d *Dependencies) initAWS(ctx context.Context, cfg *config.Config) error {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Bedrock.Region),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.Bedrock.Timeout)),
	}
	if cfg.Bedrock.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Bedrock.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return err
	}

	d.AWS = awsCfg
	d.Logger.Info("aws configuration loaded",
		zap.String("region", awsCfg.Region),
		zap.Duration("timeout", cfg.Bedrock.Timeout))
	return nil
}

// initClients creates the knowledge base and model clients. Both make a single attempt per call.
func (d *Dependencies) initClients(cfg *config.Config) error {
	agentRuntime := bedrockagentruntime.NewFromConfig(d.AWS)
	d.KnowledgeBase = knowledgebase.NewClient(agentRuntime, d.Logger, cfg.KnowledgeBase.MaxResults)

	runtime := bedrockruntime.NewFromConfig(d.AWS, func(o *bedrockruntime.Options) {
		o.Retryer = aws.NopRetryer{}
	})
	model, err := llm.NewBedrockModel(runtime, cfg.Model.ID)
	if err != nil {
		return fmt.Errorf("failed to create bedrock model: %w", err)
	}
	d.LLM = llm.NewClient(model, cfg.Model, d.Logger)

	d.Logger.Info("bedrock clients initialized",
		zap.String("vector_kb", cfg.KnowledgeBase.VectorID),
		zap.String("graph_kb", cfg.KnowledgeBase.GraphID),
		zap.String("model", cfg.Model.ID))
	return nil
}

// initAudit connects to PostgreSQL and starts the audit workers
func (d *Dependencies) initAudit(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(ctx, *cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.QueryLogs = factory.NewRepositories().QueryLogs

	d.Audit = audit.NewAuditService(d.QueryLogs, cfg.Model.ID, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	return nil
}

func (d *Dependencies) initHandlers() {
	if d.DB != nil {
		d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
		d.QueryHandler = handlers.NewQueryHandler(d.Hybrid, d.QueryLogs, d.Logger)
		return
	}
	d.HealthHandler = handlers.NewHealthHandler(nil, d.Logger)
	d.QueryHandler = handlers.NewQueryHandler(d.Hybrid, nil, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Flush pending audit entries before the database goes away
	if d.Audit != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
