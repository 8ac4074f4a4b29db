package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

const translationFailedMessage = "Translation failed"

type TranslationCacheConfig struct {
	Namespace      string
	SourceLanguage string
	// Store is optional. Without it entries live for the lifetime of the cache.
	Store     ports.TranslationStore
	Validator ports.PayloadValidator
	Observer  ports.CacheObserver
	Logger    *slog.Logger
}

// TranslationCache serves a source value in any language, translating each
// language at most once. Failed languages hold the source value so later lookups
// return content without another network call.
//
// Values are shared between callers and must be treated as read-only.
type TranslationCache[T any] struct {
	namespace  string
	source     string
	value      T
	translator ports.Translator
	store      ports.TranslationStore
	validator  ports.PayloadValidator
	observer   ports.CacheObserver
	logger     *slog.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	entries  map[string]T
	failures map[string]string
}

func NewTranslationCache[T any](source T, translator ports.Translator, cfg TranslationCacheConfig) *TranslationCache[T] {
	sourceLang := domain.NormalizeLanguage(cfg.SourceLanguage)
	if sourceLang == "" {
		sourceLang = domain.SourceLanguage
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslationCache[T]{
		namespace:  cfg.Namespace,
		source:     sourceLang,
		value:      source,
		translator: translator,
		store:      cfg.Store,
		validator:  cfg.Validator,
		observer:   cfg.Observer,
		logger:     logger,
		entries:    make(map[string]T),
		failures:   make(map[string]string),
	}
}

func (c *TranslationCache[T]) Namespace() string {
	return c.namespace
}

func (c *TranslationCache[T]) SourceLanguage() string {
	return c.source
}

// Source returns the untranslated value.
func (c *TranslationCache[T]) Source() T {
	return c.value
}

// Get returns value for language. On a failed translation the source value is
// returned together with the error; the fallback is cached so the next Get for
// the same language returns it with a nil error. When ctx ends first, Get returns
// the source value and ctx.Err() and caches nothing.
func (c *TranslationCache[T]) Get(ctx context.Context, language string) (T, error) {
	lang := domain.NormalizeLanguage(language)
	if lang == "" || lang == c.source {
		return c.value, nil
	}
	if v, ok := c.Peek(lang); ok {
		c.hit()
		return v, nil
	}

	// The shared call outlives any single caller; a caller whose ctx ends stops
	// waiting without affecting the others or the cached result.
	calls := c.group.DoChan(lang, func() (any, error) {
		if cached, ok := c.Peek(lang); ok {
			return cached, nil
		}
		c.miss()
		return c.translate(context.WithoutCancel(ctx), lang)
	})
	select {
	case res := <-calls:
		out, _ := res.Val.(T)
		return out, res.Err
	case <-ctx.Done():
		return c.value, ctx.Err()
	}
}

// Peek returns a cached entry without translating.
func (c *TranslationCache[T]) Peek(language string) (T, bool) {
	lang := domain.NormalizeLanguage(language)
	if lang == c.source {
		return c.value, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[lang]
	return v, ok
}

// FailureReason returns the user-visible reason the language fell back to source.
func (c *TranslationCache[T]) FailureReason(language string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures[domain.NormalizeLanguage(language)]
}

// Languages lists cached languages, excluding the source.
func (c *TranslationCache[T]) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for lang := range c.entries {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Warm loads persisted translations. Payloads that no longer validate are skipped.
func (c *TranslationCache[T]) Warm(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	stored, err := c.store.Load(ctx, c.namespace)
	if err != nil {
		return 0, fmt.Errorf("load %s translations: %w", c.namespace, err)
	}
	loaded := 0
	for lang, raw := range stored {
		lang = domain.NormalizeLanguage(lang)
		if lang == c.source {
			continue
		}
		v, err := c.decode(raw)
		if err != nil {
			c.logger.Warn("translation_cache_skip", "namespace", c.namespace, "language", lang, "error", err)
			continue
		}
		c.mu.Lock()
		c.entries[lang] = v
		c.mu.Unlock()
		loaded++
	}
	return loaded, nil
}

func (c *TranslationCache[T]) translate(ctx context.Context, lang string) (T, error) {
	started := time.Now()
	raw, err := c.translator.Translate(ctx, c.value, c.source, lang)
	var v T
	if err == nil {
		v, err = c.decode(raw)
	}
	if errors.Is(err, context.Canceled) {
		// not a translation outcome; the next Get tries again
		c.logger.Info("translation_cancelled", "namespace", c.namespace, "language", lang)
		return c.value, err
	}
	if err != nil {
		reason := domain.UserMessage(err, translationFailedMessage)
		c.mu.Lock()
		c.entries[lang] = c.value
		c.failures[lang] = reason
		c.mu.Unlock()
		c.logger.Warn("translation_fallback", "namespace", c.namespace, "language", lang, "error", err)
		c.finished(false, time.Since(started))
		return c.value, err
	}

	c.mu.Lock()
	c.entries[lang] = v
	delete(c.failures, lang)
	c.mu.Unlock()
	c.finished(true, time.Since(started))

	if c.store != nil {
		if err := c.store.Save(ctx, c.namespace, lang, raw); err != nil {
			c.logger.Warn("translation_persist_failed", "namespace", c.namespace, "language", lang, "error", err)
		}
	}
	return v, nil
}

func (c *TranslationCache[T]) decode(raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, domain.WrapError(domain.ErrMalformedResponse, "decode translation", errors.New("empty payload"))
	}
	if c.validator != nil {
		if err := c.validator.Validate(raw); err != nil {
			return v, domain.WrapError(domain.ErrMalformedResponse, "validate translation", err)
		}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, domain.WrapError(domain.ErrMalformedResponse, "decode translation", err)
	}
	return v, nil
}

func (c *TranslationCache[T]) hit() {
	if c.observer != nil {
		c.observer.CacheHit(c.namespace)
	}
}

func (c *TranslationCache[T]) miss() {
	if c.observer != nil {
		c.observer.CacheMiss(c.namespace)
	}
}

func (c *TranslationCache[T]) finished(ok bool, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.TranslationFinished(c.namespace, ok, elapsed)
	}
}
