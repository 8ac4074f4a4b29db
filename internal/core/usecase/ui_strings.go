package usecase

import (
	"context"
	"sync"

	"github.com/agreewise/agreewise/internal/core/domain"
)

const UIStringsNamespace = "ui_strings"

// UIStrings holds the current interface language and its translated string table.
type UIStrings struct {
	cache *TranslationCache[domain.StringTable]

	mu       sync.RWMutex
	language string
}

func NewUIStrings(cache *TranslationCache[domain.StringTable]) *UIStrings {
	return &UIStrings{cache: cache, language: cache.SourceLanguage()}
}

// Table returns the string table for language, translating on first use.
// On translation failure the English table is returned with the error.
func (u *UIStrings) Table(ctx context.Context, language string) (domain.StringTable, error) {
	lang, err := domain.ValidateLanguage(language)
	if err != nil {
		return u.cache.Source(), err
	}
	return u.cache.Get(ctx, lang)
}

// SetLanguage switches the current language and loads its table.
func (u *UIStrings) SetLanguage(ctx context.Context, language string) (domain.StringTable, error) {
	lang, err := domain.ValidateLanguage(language)
	if err != nil {
		return u.cache.Source(), err
	}
	u.mu.Lock()
	u.language = lang
	u.mu.Unlock()
	return u.cache.Get(ctx, lang)
}

func (u *UIStrings) Language() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.language
}

// T resolves key in language without translating: cached table, then English, then key.
func (u *UIStrings) T(language, key string) string {
	table, ok := u.cache.Peek(language)
	if !ok {
		table = u.cache.Source()
	}
	return table.Lookup(key)
}

// Current returns the cached table for the current language.
func (u *UIStrings) Current() domain.StringTable {
	table, ok := u.cache.Peek(u.Language())
	if !ok {
		return u.cache.Source()
	}
	return table
}

// FailureReason returns why language fell back to English, if it did.
func (u *UIStrings) FailureReason(language string) string {
	return u.cache.FailureReason(language)
}
