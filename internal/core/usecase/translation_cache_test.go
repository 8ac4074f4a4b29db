package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agreewise/agreewise/internal/core/domain"
)

func newStringCache(tr *translatorFake, store *storeFake) *TranslationCache[domain.StringTable] {
	cfg := TranslationCacheConfig{Namespace: UIStringsNamespace, SourceLanguage: "en"}
	if store != nil {
		cfg.Store = store
	}
	return NewTranslationCache(domain.StringTable{"hello": "Hello", "bye": "Bye"}, tr, cfg)
}

func TestTranslationCacheSourceLanguageSkipsNetwork(t *testing.T) {
	tr := &translatorFake{}
	cache := newStringCache(tr, nil)

	got, err := cache.Get(context.Background(), "en")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got["hello"] != "Hello" {
		t.Fatalf("expected source table, got %v", got)
	}
	if tr.calls.Load() != 0 {
		t.Fatalf("expected no translate calls, got %d", tr.calls.Load())
	}
}

func TestTranslationCacheSingleFlightPerLanguage(t *testing.T) {
	tr := &translatorFake{
		release: make(chan struct{}),
		byLang: map[string]string{
			"es": `{"hello":"Hola","bye":"Adiós"}`,
			"fr": `{"hello":"Bonjour","bye":"Au revoir"}`,
		},
	}
	cache := newStringCache(tr, nil)

	var wg sync.WaitGroup
	results := make([]domain.StringTable, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cache.Get(context.Background(), "es")
		}(i)
	}
	eventually(t, func() bool { return tr.calls.Load() == 1 }, "first translate call")
	close(tr.release)
	wg.Wait()

	if tr.calls.Load() != 1 {
		t.Fatalf("expected one translate call for es, got %d", tr.calls.Load())
	}
	for i, r := range results {
		if r["hello"] != "Hola" {
			t.Fatalf("result %d: expected Hola, got %v", i, r)
		}
	}

	if _, err := cache.Get(context.Background(), "fr"); err != nil {
		t.Fatalf("Get(fr) error = %v", err)
	}
	if tr.calls.Load() != 2 {
		t.Fatalf("expected independent call for fr, got %d calls", tr.calls.Load())
	}
}

func TestTranslationCacheFailureFallsBackOnce(t *testing.T) {
	tr := &translatorFake{err: domain.WrapError(domain.ErrTransport, "translate", errors.New("timeout"))}
	cache := newStringCache(tr, newStoreFake())

	got, err := cache.Get(context.Background(), "de")
	if err == nil {
		t.Fatalf("expected first Get to surface the failure")
	}
	if got["hello"] != "Hello" {
		t.Fatalf("expected source fallback, got %v", got)
	}
	if cache.FailureReason("de") != domain.GenericTransportMessage {
		t.Fatalf("expected transport reason, got %q", cache.FailureReason("de"))
	}

	got, err = cache.Get(context.Background(), "de")
	if err != nil {
		t.Fatalf("expected cached fallback without error, got %v", err)
	}
	if got["hello"] != "Hello" {
		t.Fatalf("expected source fallback, got %v", got)
	}
	if tr.calls.Load() != 1 {
		t.Fatalf("expected no second network call, got %d", tr.calls.Load())
	}
}

func TestTranslationCacheRejectsInvalidPayload(t *testing.T) {
	tr := &translatorFake{byLang: map[string]string{"es": `{"hello":"Hola"}`}}
	store := newStoreFake()
	cache := NewTranslationCache(domain.StringTable{"hello": "Hello"}, tr, TranslationCacheConfig{
		Namespace: UIStringsNamespace,
		Store:     store,
		Validator: validatorFake{err: errors.New("missing property bye")},
	})

	got, err := cache.Get(context.Background(), "es")
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
	if got["hello"] != "Hello" {
		t.Fatalf("expected source fallback, got %v", got)
	}
	if store.saves != 0 {
		t.Fatalf("expected nothing persisted, got %d saves", store.saves)
	}
}

func TestTranslationCachePersistsAndWarms(t *testing.T) {
	store := newStoreFake()
	tr := &translatorFake{byLang: map[string]string{"es": `{"hello":"Hola","bye":"Adiós"}`}}
	first := newStringCache(tr, store)
	if _, err := first.Get(context.Background(), "es"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected write-through save, got %d", store.saves)
	}

	// a fresh process loads the stored entry and never calls the translator
	tr2 := &translatorFake{err: errors.New("should not be called")}
	second := newStringCache(tr2, store)
	loaded, err := second.Warm(context.Background())
	if err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected 1 warmed language, got %d", loaded)
	}
	got, err := second.Get(context.Background(), "es")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got["bye"] != "Adiós" {
		t.Fatalf("expected persisted translation, got %v", got)
	}
	if tr2.calls.Load() != 0 {
		t.Fatalf("expected no translate call after warm, got %d", tr2.calls.Load())
	}
}

func TestUIStringsLookupFallsBack(t *testing.T) {
	tr := &translatorFake{byLang: map[string]string{"es": `{"appName":"AgreeWise","lowRisk":"RIESGO BAJO"}`}}
	cache := NewTranslationCache(domain.BaseStrings(), tr, TranslationCacheConfig{Namespace: UIStringsNamespace})
	ui := NewUIStrings(cache)

	if _, err := ui.SetLanguage(context.Background(), "es"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if ui.Language() != "es" {
		t.Fatalf("expected es, got %s", ui.Language())
	}
	if got := ui.T("es", "lowRisk"); got != "RIESGO BAJO" {
		t.Fatalf("expected translated value, got %q", got)
	}
	if got := ui.T("es", "highRisk"); got != "HIGH RISK" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := ui.T("es", "unknownKey"); got != "unknownKey" {
		t.Fatalf("expected key fallback, got %q", got)
	}
	if _, err := ui.SetLanguage(context.Background(), "klingon"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid language error, got %v", err)
	}
}

func TestTranslationCacheCallerCancelDoesNotPoisonLanguage(t *testing.T) {
	tr := &translatorFake{
		release: make(chan struct{}),
		byLang:  map[string]string{"es": `{"hello":"Hola","bye":"Adiós"}`},
	}
	cache := newStringCache(tr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		table domain.StringTable
		err   error
	}
	first := make(chan result, 1)
	go func() {
		table, err := cache.Get(ctx, "es")
		first <- result{table, err}
	}()
	eventually(t, func() bool { return tr.calls.Load() == 1 }, "translate call started")

	// a second caller with its own context joins the same call
	second := make(chan result, 1)
	go func() {
		table, err := cache.Get(context.Background(), "es")
		second <- result{table, err}
	}()

	cancel()
	got := <-first
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("expected cancelled caller to get context.Canceled, got %v", got.err)
	}
	if got.table["hello"] != "Hello" {
		t.Fatalf("expected source table for cancelled caller, got %v", got.table)
	}

	close(tr.release)
	waiter := <-second
	if waiter.err != nil || waiter.table["hello"] != "Hola" {
		t.Fatalf("expected waiting caller to get the translation, got %v, %v", waiter.table, waiter.err)
	}
	again, err := cache.Get(context.Background(), "es")
	if err != nil || again["bye"] != "Adiós" {
		t.Fatalf("expected cached translation, got %v, %v", again, err)
	}
	if reason := cache.FailureReason("es"); reason != "" {
		t.Fatalf("expected no failure recorded, got %q", reason)
	}
	if tr.calls.Load() != 1 {
		t.Fatalf("expected a single translate call, got %d", tr.calls.Load())
	}
}

func TestTranslationCacheCancelledTranslationIsRetried(t *testing.T) {
	tr := &translatorFake{err: domain.WrapError(domain.ErrTransport, "translate", context.Canceled)}
	cache := newStringCache(tr, newStoreFake())

	if _, err := cache.Get(context.Background(), "fr"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation surfaced, got %v", err)
	}
	if _, ok := cache.Peek("fr"); ok {
		t.Fatalf("expected no fallback cached for a cancelled translation")
	}

	tr.err = nil
	tr.byLang = map[string]string{"fr": `{"hello":"Bonjour","bye":"Au revoir"}`}
	got, err := cache.Get(context.Background(), "fr")
	if err != nil || got["hello"] != "Bonjour" {
		t.Fatalf("expected retry to translate, got %v, %v", got, err)
	}
	if tr.calls.Load() != 2 {
		t.Fatalf("expected 2 translate calls, got %d", tr.calls.Load())
	}
}
