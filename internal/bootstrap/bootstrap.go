package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/agreewise/agreewise/internal/config"
	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
	"github.com/agreewise/agreewise/internal/core/usecase"
	"github.com/agreewise/agreewise/internal/infrastructure/backend"
	"github.com/agreewise/agreewise/internal/infrastructure/desktop"
	"github.com/agreewise/agreewise/internal/infrastructure/pagesource"
	"github.com/agreewise/agreewise/internal/infrastructure/queue/nats"
	"github.com/agreewise/agreewise/internal/infrastructure/repository/postgres"
	"github.com/agreewise/agreewise/internal/infrastructure/resilience"
	"github.com/agreewise/agreewise/internal/infrastructure/schema"
	openaispeech "github.com/agreewise/agreewise/internal/infrastructure/speech/openai"
	"github.com/agreewise/agreewise/internal/infrastructure/storage/localfs"
	"github.com/agreewise/agreewise/internal/observability/metrics"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	SpeechBackend = "backend"
	SpeechOpenAI  = "openai"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	HTTPMetrics      *metrics.HTTPServerMetrics
	WorkspaceMetrics *metrics.WorkspaceMetrics

	Backend   *backend.Client
	Loader    *pagesource.Loader
	UIStrings *usecase.UIStrings
	Workspace *usecase.Workspace
	// Progress is nil when NATS_URL is empty.
	Progress *nats.ProgressQueue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	httpMetrics := metrics.NewHTTPServerMetrics(service)
	wsMetrics := metrics.NewWorkspaceMetrics(service, httpMetrics.Registerer())

	resCfg := resilience.DefaultConfig()
	resCfg.RetryMaxAttempts = cfg.BackendRetryMaxAttempts
	resCfg.BreakerEnabled = cfg.BackendBreakerEnabled
	resCfg.OnStateChange = wsMetrics.BreakerStateChanged
	resCfg.Logger = logger
	executor := resilience.NewExecutor(resCfg)

	client := backend.New(cfg.BackendURL, backend.Options{
		Timeout:  cfg.BackendTimeout(),
		Executor: executor,
		Logger:   logger,
	})

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	var progress *nats.ProgressQueue
	var publisher ports.ProgressPublisher
	if cfg.NATSURL != "" {
		progress, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init progress queue: %w", err)
		}
		publisher = progress
		closers = append(closers, progress.Close)
	}

	synth, err := newSynthesizer(cfg, client)
	if err != nil {
		closeAll()
		return nil, err
	}
	player, err := desktop.NewExecPlayer(cfg.AudioPlayerCmd, "", logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init audio player: %w", err)
	}
	var clipboard ports.Clipboard
	if cfg.ClipboardCmd != "" {
		clip, err := desktop.NewExecClipboard(cfg.ClipboardCmd)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init clipboard: %w", err)
		}
		clipboard = clip
	}

	stringsValidator, err := schema.NewStringTableValidator(domain.BaseStrings().Keys())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("compile string table schema: %w", err)
	}
	analysisValidator, err := schema.NewAnalysisValidator()
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("compile analysis schema: %w", err)
	}

	uiCache := usecase.NewTranslationCache(domain.BaseStrings(), client, usecase.TranslationCacheConfig{
		Namespace:      usecase.UIStringsNamespace,
		SourceLanguage: cfg.SourceLanguage,
		Store:          store,
		Validator:      stringsValidator,
		Observer:       wsMetrics,
		Logger:         logger,
	})
	if n, err := uiCache.Warm(ctx); err != nil {
		logger.Warn("translation_warm_failed", "namespace", usecase.UIStringsNamespace, "error", err)
	} else if n > 0 {
		logger.Info("translation_cache_warmed", "namespace", usecase.UIStringsNamespace, "languages", n)
	}
	uiStrings := usecase.NewUIStrings(uiCache)

	limits := domain.PageLimits{MaxPages: cfg.MaxPages, MaxPageBytes: cfg.MaxPageBytes}
	pipeline := usecase.NewSubmissionPipeline(client, usecase.PipelineConfig{
		AnalyzingAfter: cfg.AnalyzingAfter,
		Publisher:      publisher,
		Observer:       wsMetrics,
		Logger:         logger,
	})
	workspace := usecase.NewWorkspace(
		pipeline,
		client,
		usecase.NewNarrator(synth, player, wsMetrics, logger),
		usecase.NewMessageComposer(client, clipboard, wsMetrics, logger),
		usecase.WorkspaceConfig{
			Limits:            limits,
			AnalysisValidator: analysisValidator,
			CacheObserver:     wsMetrics,
			UIStrings:         uiStrings,
			Logger:            logger,
		},
	)

	logger.Info("bootstrap_complete",
		"backend_url", client.BaseURL(),
		"cache_store", cfg.CacheStore,
		"speech_provider", cfg.SpeechProvider,
		"progress_events", progress != nil,
	)

	return &App{
		Config:           cfg,
		Logger:           logger,
		HTTPMetrics:      httpMetrics,
		WorkspaceMetrics: wsMetrics,
		Backend:          client,
		Loader:           pagesource.NewLoader(limits),
		UIStrings:        uiStrings,
		Workspace:        workspace,
		Progress:         progress,
		closeFn:          closeAll,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (ports.TranslationStore, func(), error) {
	switch cfg.CacheStore {
	case "", StoreFile:
		store, err := localfs.New(cfg.CacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("init translation store: %w", err)
		}
		return store, nil, nil
	case StorePostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewTranslationRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, closeDB(db), nil
	case StoreMemory:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_STORE %q", cfg.CacheStore)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func newSynthesizer(cfg config.Config, client *backend.Client) (ports.SpeechSynthesizer, error) {
	switch cfg.SpeechProvider {
	case "", SpeechBackend:
		return client, nil
	case SpeechOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("SPEECH_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return openaispeech.New(openaispeech.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAITTSModel,
			Voice:   cfg.OpenAITTSVoice,
			Timeout: cfg.BackendTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown SPEECH_PROVIDER %q", cfg.SpeechProvider)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
