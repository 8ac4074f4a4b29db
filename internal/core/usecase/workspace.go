package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

const AnalysisNamespace = "analysis"

type WorkspaceConfig struct {
	Limits domain.PageLimits
	// AnalysisValidator checks translated analysis payloads.
	AnalysisValidator ports.PayloadValidator
	CacheObserver     ports.CacheObserver
	// UIStrings localizes risk labels. Optional.
	UIStrings *UIStrings
	Logger    *slog.Logger
}

// Workspace is one user session: the page set being assembled, the last
// completed submission and its per-language analysis cache.
type Workspace struct {
	pipeline   *SubmissionPipeline
	translator ports.Translator
	narrator   *Narrator
	composer   *MessageComposer
	ui         *UIStrings
	validator  ports.PayloadValidator
	observer   ports.CacheObserver
	logger     *slog.Logger

	mu         sync.RWMutex
	pages      *domain.PageSet
	submission *domain.Submission
	analysis   *TranslationCache[domain.AnalysisResult]
}

func NewWorkspace(
	pipeline *SubmissionPipeline,
	translator ports.Translator,
	narrator *Narrator,
	composer *MessageComposer,
	cfg WorkspaceConfig,
) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		pipeline:   pipeline,
		translator: translator,
		narrator:   narrator,
		composer:   composer,
		ui:         cfg.UIStrings,
		validator:  cfg.AnalysisValidator,
		observer:   cfg.CacheObserver,
		logger:     logger,
		pages:      domain.NewPageSet(cfg.Limits),
	}
}

func (w *Workspace) AddPages(pages ...domain.Page) ([]domain.PageInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.pages.Add(pages...); err != nil {
		return w.pages.Infos(), err
	}
	return w.pages.Infos(), nil
}

func (w *Workspace) RemovePage(index int) ([]domain.PageInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.pages.Remove(index); err != nil {
		return w.pages.Infos(), err
	}
	return w.pages.Infos(), nil
}

func (w *Workspace) ReorderPages(from, to int) []domain.PageInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages.Reorder(from, to)
	return w.pages.Infos()
}

func (w *Workspace) ClearPages() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages.Clear()
}

func (w *Workspace) Pages() []domain.PageInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pages.Infos()
}

func (w *Workspace) Limits() domain.PageLimits {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pages.Limits()
}

// Submit starts analysis of the current pages and returns immediately.
func (w *Workspace) Submit(ctx context.Context, documentLanguage string) (domain.ProgressState, error) {
	w.mu.RLock()
	pages := w.pages.Pages()
	w.mu.RUnlock()

	state, results, err := w.pipeline.SubmitAsync(ctx, pages, documentLanguage)
	if err != nil {
		return state, err
	}
	go func() {
		res := <-results
		if res.Err == nil {
			w.adopt(res.Submission)
		}
	}()
	return state, nil
}

// SubmitWait analyzes the current pages and blocks until the call resolves.
func (w *Workspace) SubmitWait(ctx context.Context, documentLanguage string) (*domain.Submission, error) {
	w.mu.RLock()
	pages := w.pages.Pages()
	w.mu.RUnlock()

	submission, err := w.pipeline.Submit(ctx, pages, documentLanguage)
	if err != nil {
		return nil, err
	}
	w.adopt(submission)
	return submission, nil
}

func (w *Workspace) Progress() domain.ProgressState {
	return w.pipeline.State()
}

// Submission returns the last completed submission.
func (w *Workspace) Submission() (*domain.Submission, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.submission == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get submission", errors.New("no completed analysis yet"))
	}
	return w.submission, nil
}

// Analysis returns the last analysis in language with its risk assessment.
// A failed translation is not an error: the English analysis is returned with
// TranslationError set.
func (w *Workspace) Analysis(ctx context.Context, language string) (*domain.LocalizedAnalysis, error) {
	lang, err := domain.ValidateLanguage(language)
	if err != nil {
		return nil, err
	}
	w.mu.RLock()
	cache := w.analysis
	w.mu.RUnlock()
	if cache == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get analysis", errors.New("no completed analysis yet"))
	}

	result, err := cache.Get(ctx, lang)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	failure := cache.FailureReason(lang)
	if err != nil && failure == "" {
		failure = domain.UserMessage(err, translationFailedMessage)
	}

	risk := domain.AssessRisk(result.RiskAnalysis)
	if w.ui != nil {
		risk = risk.Localize(w.localTable(lang))
	}
	return &domain.LocalizedAnalysis{
		Language:         lang,
		Translated:       lang != cache.SourceLanguage() && failure == "",
		Analysis:         result,
		Risk:             risk,
		TranslationError: failure,
	}, nil
}

func (w *Workspace) Narrate(ctx context.Context, language string) (ports.NarrationOutcome, error) {
	lang, err := domain.ValidateLanguage(language)
	if err != nil {
		return "", err
	}
	return w.narrator.Narrate(ctx, lang, func(ctx context.Context) (string, error) {
		localized, err := w.Analysis(ctx, lang)
		if err != nil {
			return "", err
		}
		return BuildNarrationScript(localized.Analysis), nil
	})
}

func (w *Workspace) NarrationStatus() ports.NarrationStatus {
	return w.narrator.Status()
}

func (w *Workspace) ComposeQuestion(ctx context.Context, index int, language string) (*ports.ComposedMessage, error) {
	localized, err := w.Analysis(ctx, language)
	if err != nil {
		return nil, err
	}
	return w.composer.Compose(ctx, localized.Analysis, index, localized.Language)
}

func (w *Workspace) adopt(submission *domain.Submission) {
	cache := NewTranslationCache(submission.Source(), w.translator, TranslationCacheConfig{
		Namespace:      AnalysisNamespace,
		SourceLanguage: domain.SourceLanguage,
		Validator:      w.validator,
		Observer:       w.observer,
		Logger:         w.logger,
	})

	w.mu.Lock()
	w.submission = submission
	w.analysis = cache
	w.pages.Clear()
	w.mu.Unlock()
}

func (w *Workspace) localTable(lang string) domain.StringTable {
	table, ok := w.ui.cache.Peek(lang)
	if !ok {
		return w.ui.cache.Source()
	}
	return table
}
