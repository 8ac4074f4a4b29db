package ports

import (
	"time"

	"github.com/agreewise/agreewise/internal/core/domain"
)

// PipelineObserver receives submission outcomes. Implementations must not block.
type PipelineObserver interface {
	SubmissionStarted(pages int)
	SubmissionFinished(stage domain.ProgressStage, elapsed time.Duration)
	SubmissionRejected(reason string)
}

// CacheObserver receives localization cache outcomes per namespace.
type CacheObserver interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
	TranslationFinished(namespace string, ok bool, elapsed time.Duration)
}

// NarrationObserver receives narration outcomes.
type NarrationObserver interface {
	NarrationFinished(outcome string)
}

// ComposerObserver receives the outcome of each compose request.
type ComposerObserver interface {
	MessageComposed(ok bool)
}
