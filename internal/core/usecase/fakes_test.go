package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

type analyzerFake struct {
	calls   atomic.Int32
	release chan struct{}
	resp    *domain.AnalysisResponse
	err     error
}

func (f *analyzerFake) Analyze(ctx context.Context, _ []domain.Page, _ string) (*domain.AnalysisResponse, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

type translatorFake struct {
	calls   atomic.Int32
	release chan struct{}
	mu      sync.Mutex
	byLang  map[string]string
	err     error
}

func (f *translatorFake) Translate(_ context.Context, _ any, _, target string) (json.RawMessage, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return json.RawMessage(f.byLang[target]), nil
}

type storeFake struct {
	mu    sync.Mutex
	data  map[string]map[string]json.RawMessage
	saves int
}

func newStoreFake() *storeFake {
	return &storeFake{data: make(map[string]map[string]json.RawMessage)}
}

func (f *storeFake) Load(_ context.Context, namespace string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]json.RawMessage)
	for k, v := range f.data[namespace] {
		out[k] = v
	}
	return out, nil
}

func (f *storeFake) Save(_ context.Context, namespace, language string, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[namespace] == nil {
		f.data[namespace] = make(map[string]json.RawMessage)
	}
	f.data[namespace][language] = payload
	f.saves++
	return nil
}

type validatorFake struct {
	err error
}

func (f validatorFake) Validate(json.RawMessage) error { return f.err }

type synthFake struct {
	calls   atomic.Int32
	release chan struct{}
	lang    atomic.Value
	text    atomic.Value
	err     error
}

func (f *synthFake) Synthesize(ctx context.Context, text, language string) (*domain.Audio, error) {
	f.calls.Add(1)
	f.text.Store(text)
	f.lang.Store(language)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

type playbackFake struct {
	done    chan error
	stopped atomic.Bool
	once    sync.Once
}

func newPlaybackFake() *playbackFake {
	return &playbackFake{done: make(chan error, 1)}
}

func (p *playbackFake) Wait() error { return <-p.done }

func (p *playbackFake) Stop() error {
	p.stopped.Store(true)
	p.once.Do(func() { p.done <- errors.New("signal: killed") })
	return nil
}

type playerFake struct {
	mu        sync.Mutex
	playbacks []*playbackFake
	err       error
}

func (f *playerFake) Play(context.Context, *domain.Audio) (ports.Playback, error) {
	if f.err != nil {
		return nil, f.err
	}
	pb := newPlaybackFake()
	f.mu.Lock()
	f.playbacks = append(f.playbacks, pb)
	f.mu.Unlock()
	return pb, nil
}

func (f *playerFake) last() *playbackFake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.playbacks) == 0 {
		return nil
	}
	return f.playbacks[len(f.playbacks)-1]
}

type generatorFake struct {
	calls   atomic.Int32
	release chan struct{}
	message string
	err     error
}

func (f *generatorFake) GenerateQuestionMessage(context.Context, string, string, string) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.message, f.err
}

type clipboardFake struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *clipboardFake) WriteText(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
	return nil
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (f *publisherFake) PublishProgress(_ context.Context, event domain.ProgressEvent) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	return nil
}

func (f *publisherFake) stages() []domain.ProgressStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ProgressStage, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Stage)
	}
	return out
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func samplePages(n int) []domain.Page {
	out := make([]domain.Page, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Page{
			Name:     string(rune('a'+i)) + ".png",
			Size:     3,
			MIMEType: "image/png",
			Kind:     domain.PageKindImage,
			Data:     []byte("png"),
		})
	}
	return out
}

func leaseAnalysis() domain.AnalysisResult {
	return domain.AnalysisResult{
		DocumentSummary: domain.DocumentSummary{DocumentType: "Lease", Purpose: "renting an apartment"},
		RiskAnalysis: domain.RiskAnalysis{
			RedFlags: []domain.Flag{{Issue: "a"}, {Issue: "b"}, {Issue: "c"}},
		},
		YourObligations: []domain.Obligation{{Obligation: "Pay rent"}},
		QuestionsToAsk:  []string{"Can I sublet?", "Who pays for repairs?"},
	}
}
