package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

// MessageComposer turns a question into a formal message and copies it to the
// clipboard. Each question index has at most one call in flight; failures are not retried.
type MessageComposer struct {
	generator ports.MessageGenerator
	clipboard ports.Clipboard
	observer  ports.ComposerObserver
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[int]struct{}
}

func NewMessageComposer(generator ports.MessageGenerator, clipboard ports.Clipboard, observer ports.ComposerObserver, logger *slog.Logger) *MessageComposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageComposer{
		generator: generator,
		clipboard: clipboard,
		observer:  observer,
		logger:    logger,
		inFlight:  make(map[int]struct{}),
	}
}

// Compose generates the message for questions[index]. A nil clipboard leaves
// Copied false without failing. A failed clipboard write returns the message
// together with an ErrClipboard error.
func (c *MessageComposer) Compose(ctx context.Context, analysis domain.AnalysisResult, index int, language string) (*ports.ComposedMessage, error) {
	if index < 0 || index >= len(analysis.QuestionsToAsk) {
		return nil, domain.WrapError(domain.ErrNotFound, "compose message",
			fmt.Errorf("question %d does not exist", index))
	}
	question := strings.TrimSpace(analysis.QuestionsToAsk[index])
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compose message", errors.New("question is empty"))
	}

	if !c.acquire(index) {
		return nil, domain.WrapError(domain.ErrConflict, "compose message",
			fmt.Errorf("a message for question %d is already being generated", index))
	}
	defer c.release(index)

	message, err := c.generator.GenerateQuestionMessage(ctx, question, analysis.DocumentType(), domain.NormalizeLanguage(language))
	if err != nil {
		c.logger.Warn("compose_failed", "question_index", index, "error", err)
		c.observe(false)
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		c.observe(false)
		return nil, domain.WrapError(domain.ErrMalformedResponse, "compose message", errors.New("empty message returned"))
	}

	out := &ports.ComposedMessage{QuestionIndex: index, Question: question, Message: message}
	if c.clipboard != nil {
		if err := c.clipboard.WriteText(ctx, message); err != nil {
			c.logger.Warn("clipboard_write_failed", "question_index", index, "error", err)
			c.observe(false)
			err = domain.WrapError(domain.ErrClipboard, "copy message", err)
			out.Error = domain.UserMessage(err, "")
			return out, err
		}
		out.Copied = true
	}
	c.observe(true)
	return out, nil
}

func (c *MessageComposer) acquire(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[index]; busy {
		return false
	}
	c.inFlight[index] = struct{}{}
	return true
}

func (c *MessageComposer) release(index int) {
	c.mu.Lock()
	delete(c.inFlight, index)
	c.mu.Unlock()
}

func (c *MessageComposer) observe(ok bool) {
	if c.observer != nil {
		c.observer.MessageComposed(ok)
	}
}
