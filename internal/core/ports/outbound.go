package ports

import (
	"context"
	"encoding/json"

	"github.com/agreewise/agreewise/internal/core/domain"
)

// DocumentAnalyzer runs the combined extraction and analysis call.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, pages []domain.Page, documentLanguage string) (*domain.AnalysisResponse, error)
}

// Translator translates a JSON-shaped payload. The returned payload mirrors the input shape.
type Translator interface {
	Translate(ctx context.Context, content any, sourceLocale, targetLocale string) (json.RawMessage, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) (*domain.Audio, error)
}

type MessageGenerator interface {
	GenerateQuestionMessage(ctx context.Context, question, documentType, language string) (string, error)
}

// Playback is one running audio session.
type Playback interface {
	// Wait blocks until playback ends and reports decode or device failures.
	Wait() error
	Stop() error
}

type AudioPlayer interface {
	Play(ctx context.Context, audio *domain.Audio) (Playback, error)
}

type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// TranslationStore persists translated payloads per namespace and language.
// Save replaces the whole entry.
type TranslationStore interface {
	Load(ctx context.Context, namespace string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, namespace, language string, payload json.RawMessage) error
}

// PayloadValidator checks a translated payload before it is cached.
type PayloadValidator interface {
	Validate(payload json.RawMessage) error
}

type ProgressPublisher interface {
	PublishProgress(ctx context.Context, event domain.ProgressEvent) error
}

type ProgressSubscriber interface {
	SubscribeProgress(ctx context.Context, handler func(context.Context, domain.ProgressEvent) error) error
}

// PageLoader builds a Page from raw upload bytes.
type PageLoader interface {
	Load(ctx context.Context, name string, data []byte) (domain.Page, error)
}
