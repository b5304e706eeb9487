package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SolarpunkList/internal/config"
	"SolarpunkList/internal/images"
	"SolarpunkList/internal/infrastructure/email"
	"SolarpunkList/internal/infrastructure/llm"
	"SolarpunkList/internal/infrastructure/scheduler"
	"SolarpunkList/internal/infrastructure/search"
	"SolarpunkList/internal/infrastructure/storage"
	"SolarpunkList/internal/logging"
	"SolarpunkList/internal/notify"
	"SolarpunkList/internal/profile"
	"SolarpunkList/internal/usecase"
)

// Application wires configs to pipelines and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repo       *storage.PostgresRepository
	discovery  *usecase.Discovery
	refresh    *usecase.Refresh
	submission *usecase.Submission
	imageEng   *images.Engine
	scheduler  *scheduler.CronScheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	searchClient := search.NewExaClient(cfg.Search, logging.Named(baseLogger, "search"))
	llmClient := llm.NewAnthropicClient(cfg.LLM)
	sender := email.NewResendSender(cfg.Email, logging.Named(baseLogger, "email"))

	engine := profile.NewEngine(llmClient, logging.Named(baseLogger, "profile"))
	imageEng := images.NewEngine(searchClient, repo, nil, logging.Named(baseLogger, "images"))
	notifier := notify.New(repo, sender, cfg.Site.BaseURL, logging.Named(baseLogger, "notify"))

	discovery := usecase.NewDiscovery(usecase.DiscoveryDeps{
		Search:   searchClient,
		Engine:   engine,
		Repo:     repo,
		Images:   imageEng,
		Notifier: notifier,
		Logger:   logging.Named(baseLogger, "discovery"),
	})
	refresh := usecase.NewRefresh(usecase.RefreshDeps{
		Search: searchClient,
		Engine: engine,
		Repo:   repo,
		Logger: logging.Named(baseLogger, "refresh"),
	})
	submission := usecase.NewSubmission(usecase.SubmissionDeps{
		Search:   searchClient,
		Engine:   engine,
		Repo:     repo,
		Images:   imageEng,
		Notifier: notifier,
		Logger:   logging.Named(baseLogger, "submission"),
	})

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		repo:       repo,
		discovery:  discovery,
		refresh:    refresh,
		submission: submission,
		imageEng:   imageEng,
	}
	a.scheduler = scheduler.New(cfg.Scheduler,
		func(ctx context.Context) { a.RunDiscovery(ctx) },
		func(ctx context.Context) { a.RunRefresh(ctx) },
		logging.Named(baseLogger, "scheduler"),
	)
	return a, nil
}

// RunDiscovery executes one discovery pass and logs its summary.
func (a *Application) RunDiscovery(ctx context.Context) {
	summary, err := a.discovery.Run(ctx)
	if err != nil {
		a.logger.Error("discovery run failed", "error", err)
		return
	}
	a.logger.Info("discovery run finished",
		"queries", summary.QueriesExecuted,
		"results", summary.ResultsFound,
		"duplicates", summary.DuplicatesSkipped,
		"added", summary.NewCommunitiesAdded,
		"errors", len(summary.Errors),
	)
}

// RunRefresh executes one refresh pass and logs its summary.
func (a *Application) RunRefresh(ctx context.Context) {
	summary, err := a.refresh.Run(ctx)
	if err != nil {
		a.logger.Error("refresh run failed", "error", err)
		return
	}
	a.logger.Info("refresh run finished",
		"checked", summary.CommunitiesChecked,
		"contentChanges", summary.ContentChangesDetected,
		"stageChanges", summary.StageChanges,
		"dormant", summary.DormantFlagged,
		"errors", len(summary.Errors),
	)
}

// RunImageBackfill tops up communities that have too few images.
func (a *Application) RunImageBackfill(ctx context.Context) {
	report, err := a.imageEng.BackfillAll(ctx)
	if err != nil {
		a.logger.Error("image backfill failed", "error", err)
		return
	}
	a.logger.Info("image backfill finished",
		"processed", report.CommunitiesProcessed,
		"imagesAdded", report.TotalImagesAdded,
		"errors", len(report.Errors),
	)
}

// RunHeroAudit validates and repairs every hero image.
func (a *Application) RunHeroAudit(ctx context.Context) {
	report, err := a.imageEng.AuditHeroImages(ctx)
	if err != nil {
		a.logger.Error("hero audit failed", "error", err)
		return
	}
	a.logger.Info("hero audit finished",
		"checked", report.Checked,
		"healthy", report.Healthy,
		"fixed", report.Fixed,
		"errors", len(report.Errors),
	)
}

// SubmitURL researches one submitted website synchronously.
func (a *Application) SubmitURL(ctx context.Context, rawURL string) error {
	if a.cfg.Search.APIKey == "" {
		return usecase.ErrSearchUnavailable
	}
	result, err := a.submission.Run(ctx, rawURL)
	if err != nil {
		return err
	}
	a.logger.Info("submission accepted", "name", result.Name, "slug", result.Slug)
	return nil
}

// Serve starts the scheduler and blocks until an interrupt arrives.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	a.logger.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return a.scheduler.Stop(stopCtx)
}
