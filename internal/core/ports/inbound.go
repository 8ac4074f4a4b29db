package ports

import (
	"context"

	"github.com/agreewise/agreewise/internal/core/domain"
)

// PageManager is the inbound contract for editing the ordered page set.
type PageManager interface {
	AddPages(pages ...domain.Page) ([]domain.PageInfo, error)
	RemovePage(index int) ([]domain.PageInfo, error)
	ReorderPages(from, to int) []domain.PageInfo
	ClearPages()
	Pages() []domain.PageInfo
}

// AnalysisService submits pages and serves the localized result.
type AnalysisService interface {
	Submit(ctx context.Context, documentLanguage string) (domain.ProgressState, error)
	Progress() domain.ProgressState
	Analysis(ctx context.Context, language string) (*domain.LocalizedAnalysis, error)
}

// NarrationOutcome reports what a narrate toggle did.
type NarrationOutcome string

const (
	NarrationStarted NarrationOutcome = "started"
	NarrationStopped NarrationOutcome = "stopped"
)

type NarrationStatus struct {
	Generating bool   `json:"generating"`
	Playing    bool   `json:"playing"`
	Language   string `json:"language,omitempty"`
	Error      string `json:"error,omitempty"`
}

type NarrationService interface {
	Narrate(ctx context.Context, language string) (NarrationOutcome, error)
	NarrationStatus() NarrationStatus
}

type ComposedMessage struct {
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question"`
	Message       string `json:"message"`
	Copied        bool   `json:"copied"`
	// Error is set when the message was generated but could not be copied.
	Error string `json:"error,omitempty"`
}

type QuestionComposer interface {
	ComposeQuestion(ctx context.Context, index int, language string) (*ComposedMessage, error)
}

// UIStringService serves the UI string table per language.
type UIStringService interface {
	Table(ctx context.Context, language string) (domain.StringTable, error)
	FailureReason(language string) string
}
