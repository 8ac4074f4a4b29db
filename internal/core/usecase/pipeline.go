package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

const DefaultAnalyzingAfter = 3 * time.Second

const analyzeFailedMessage = "Analysis failed. Please try again."

type PipelineConfig struct {
	// AnalyzingAfter is the progress estimate delay before Extracting becomes Analyzing.
	AnalyzingAfter time.Duration
	Publisher      ports.ProgressPublisher
	Observer       ports.PipelineObserver
	Logger         *slog.Logger
}

// SubmissionResult is delivered once per submission when the remote call resolves.
type SubmissionResult struct {
	Submission *domain.Submission
	Err        error
}

// SubmissionPipeline sequences one analyze call at a time and tracks its progress.
type SubmissionPipeline struct {
	analyzer       ports.DocumentAnalyzer
	publisher      ports.ProgressPublisher
	observer       ports.PipelineObserver
	logger         *slog.Logger
	analyzingAfter time.Duration
	now            func() time.Time
	newID          func() string

	mu        sync.Mutex
	state     domain.ProgressState
	pageCount int
	timer     *time.Timer
}

func NewSubmissionPipeline(analyzer ports.DocumentAnalyzer, cfg PipelineConfig) *SubmissionPipeline {
	after := cfg.AnalyzingAfter
	if after <= 0 {
		after = DefaultAnalyzingAfter
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionPipeline{
		analyzer:       analyzer,
		publisher:      cfg.Publisher,
		observer:       cfg.Observer,
		logger:         logger,
		analyzingAfter: after,
		now:            time.Now,
		newID:          uuid.NewString,
		state:          domain.ProgressState{Stage: domain.StageIdle},
	}
}

func (p *SubmissionPipeline) State() domain.ProgressState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset returns a finished pipeline to Idle. It is a no-op while a call is in flight.
func (p *SubmissionPipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Stage.InFlight() {
		return
	}
	p.state = domain.ProgressState{Stage: domain.StageIdle}
}

// SubmitAsync reserves the pipeline and dispatches the analyze call in the background.
// The returned channel receives exactly one result. A second call while one is in
// flight fails with ErrConflict and dispatches nothing.
func (p *SubmissionPipeline) SubmitAsync(ctx context.Context, pages []domain.Page, documentLanguage string) (domain.ProgressState, <-chan SubmissionResult, error) {
	if len(pages) == 0 {
		p.rejected("empty")
		return p.State(), nil, domain.WrapError(domain.ErrInvalidInput, "submit", errors.New("select at least one page before analyzing"))
	}
	docLang, err := domain.ValidateLanguage(documentLanguage)
	if err != nil {
		p.rejected("language")
		return p.State(), nil, err
	}

	p.mu.Lock()
	if p.state.Stage.InFlight() {
		state := p.state
		p.mu.Unlock()
		p.rejected("in_flight")
		return state, nil, domain.WrapError(domain.ErrConflict, "submit", errors.New("an analysis is already running"))
	}
	now := p.now()
	id := p.newID()
	p.state = domain.ProgressState{
		Stage:        domain.StageExtracting,
		SubmissionID: id,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	p.pageCount = len(pages)
	p.timer = time.AfterFunc(p.analyzingAfter, func() { p.advance(ctx, id) })
	state := p.state
	p.mu.Unlock()

	p.logger.Info("submission_started", "submission_id", id, "pages", len(pages), "document_language", docLang)
	if p.observer != nil {
		p.observer.SubmissionStarted(len(pages))
	}
	p.publish(ctx, state, "")

	owned := make([]domain.Page, len(pages))
	copy(owned, pages)
	results := make(chan SubmissionResult, 1)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		results <- p.run(runCtx, id, owned, docLang)
		close(results)
	}()
	return state, results, nil
}

// Submit is the blocking form of SubmitAsync.
func (p *SubmissionPipeline) Submit(ctx context.Context, pages []domain.Page, documentLanguage string) (*domain.Submission, error) {
	_, results, err := p.SubmitAsync(ctx, pages, documentLanguage)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-results:
		return res.Submission, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *SubmissionPipeline) run(ctx context.Context, id string, pages []domain.Page, docLang string) SubmissionResult {
	resp, err := p.analyzer.Analyze(ctx, pages, docLang)
	if err == nil && resp == nil {
		err = domain.WrapError(domain.ErrMalformedResponse, "analyze", errors.New("empty analysis response"))
	}
	if err != nil {
		reason := domain.UserMessage(err, analyzeFailedMessage)
		state := p.finish(id, domain.StageFailed, reason)
		p.logger.Warn("submission_failed", "submission_id", id, "error", err, "reason", reason)
		p.publish(ctx, state, reason)
		return SubmissionResult{Err: err}
	}

	infos := make([]domain.PageInfo, 0, len(pages))
	for i, page := range pages {
		infos = append(infos, page.Info(i))
	}
	state := p.finish(id, domain.StageComplete, "")
	submission := &domain.Submission{
		ID:               id,
		DocumentLanguage: docLang,
		Pages:            infos,
		ExtractedText:    resp.ExtractedText,
		TotalPages:       resp.TotalPages,
		PageReports:      resp.Pages,
		Metadata:         resp.Metadata,
		Analysis:         map[string]domain.AnalysisResult{domain.SourceLanguage: resp.Analysis},
		StartedAt:        state.StartedAt,
		CompletedAt:      state.UpdatedAt,
	}
	p.logger.Info("submission_completed", "submission_id", id, "total_pages", resp.TotalPages,
		"duration_ms", state.UpdatedAt.Sub(state.StartedAt).Milliseconds())
	p.publish(ctx, state, "")
	return SubmissionResult{Submission: submission}
}

// advance moves Extracting to Analyzing. It never touches a newer submission or a
// submission whose call already resolved.
func (p *SubmissionPipeline) advance(ctx context.Context, id string) {
	p.mu.Lock()
	if p.state.SubmissionID != id || p.state.Stage != domain.StageExtracting {
		p.mu.Unlock()
		return
	}
	p.state.Stage = domain.StageAnalyzing
	p.state.UpdatedAt = p.now()
	state := p.state
	p.mu.Unlock()

	p.publish(context.WithoutCancel(ctx), state, "")
}

func (p *SubmissionPipeline) finish(id string, stage domain.ProgressStage, reason string) domain.ProgressState {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.state.SubmissionID == id {
		p.state.Stage = stage
		p.state.Error = reason
		p.state.UpdatedAt = p.now()
	}
	state := p.state
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.SubmissionFinished(stage, state.UpdatedAt.Sub(state.StartedAt))
	}
	return state
}

func (p *SubmissionPipeline) publish(ctx context.Context, state domain.ProgressState, reason string) {
	if p.publisher == nil {
		return
	}
	p.mu.Lock()
	pages := p.pageCount
	p.mu.Unlock()
	event := domain.ProgressEvent{
		SubmissionID: state.SubmissionID,
		Stage:        state.Stage,
		Reason:       reason,
		PageCount:    pages,
		Elapsed:      state.UpdatedAt.Sub(state.StartedAt),
		At:           state.UpdatedAt,
	}
	if err := p.publisher.PublishProgress(ctx, event); err != nil {
		p.logger.Warn("progress_publish_failed", "submission_id", state.SubmissionID, "stage", state.Stage, "error", err)
	}
}

func (p *SubmissionPipeline) rejected(reason string) {
	if p.observer != nil {
		p.observer.SubmissionRejected(reason)
	}
}
