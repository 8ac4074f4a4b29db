package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/agreewise/agreewise/internal/core/domain"
)

func TestComposerCopiesMessage(t *testing.T) {
	gen := &generatorFake{message: "Dear landlord, can I sublet?"}
	clip := &clipboardFake{}
	c := NewMessageComposer(gen, clip, nil, nil)

	out, err := c.Compose(context.Background(), leaseAnalysis(), 0, "en")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !out.Copied || clip.text != gen.message {
		t.Fatalf("expected message on clipboard, got %+v / %q", out, clip.text)
	}
	if out.Question != "Can I sublet?" {
		t.Fatalf("expected question 0, got %q", out.Question)
	}
}

func TestComposerIsSingleFlightPerQuestion(t *testing.T) {
	gen := &generatorFake{release: make(chan struct{}), message: "ok"}
	c := NewMessageComposer(gen, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Compose(context.Background(), leaseAnalysis(), 1, "en")
		done <- err
	}()
	eventually(t, func() bool { return gen.calls.Load() == 1 }, "first compose call")

	if _, err := c.Compose(context.Background(), leaseAnalysis(), 1, "en"); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for same question, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first compose error = %v", err)
	}
	if _, err := c.Compose(context.Background(), leaseAnalysis(), 0, "en"); err != nil {
		t.Fatalf("expected other question to proceed, got %v", err)
	}
	if gen.calls.Load() != 2 {
		t.Fatalf("expected 2 generate calls, got %d", gen.calls.Load())
	}
}

func TestComposerFailureIsNotRetried(t *testing.T) {
	gen := &generatorFake{err: errors.New("model overloaded")}
	c := NewMessageComposer(gen, &clipboardFake{}, nil, nil)

	if _, err := c.Compose(context.Background(), leaseAnalysis(), 0, "en"); err == nil {
		t.Fatalf("expected error")
	}
	if gen.calls.Load() != 1 {
		t.Fatalf("expected one attempt, got %d", gen.calls.Load())
	}
}

func TestComposerUnknownQuestion(t *testing.T) {
	c := NewMessageComposer(&generatorFake{}, nil, nil, nil)
	if _, err := c.Compose(context.Background(), leaseAnalysis(), 9, "en"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComposerClipboardFailureKeepsMessage(t *testing.T) {
	gen := &generatorFake{message: "Dear landlord"}
	c := NewMessageComposer(gen, &clipboardFake{err: errors.New("no display")}, nil, nil)

	out, err := c.Compose(context.Background(), leaseAnalysis(), 0, "en")
	if !domain.IsKind(err, domain.ErrClipboard) {
		t.Fatalf("expected clipboard error, got %v", err)
	}
	if out == nil || out.Message != "Dear landlord" || out.Copied {
		t.Fatalf("expected uncopied message, got %+v", out)
	}
	if out.Error != domain.ClipboardFailureMessage {
		t.Fatalf("expected clipboard notice, got %q", out.Error)
	}
}

type composeOutcomes struct{ got []bool }

func (o *composeOutcomes) MessageComposed(ok bool) { o.got = append(o.got, ok) }

func TestComposerReportsOutcomes(t *testing.T) {
	obs := &composeOutcomes{}
	gen := &generatorFake{message: "Dear landlord"}
	if _, err := NewMessageComposer(gen, &clipboardFake{}, obs, nil).Compose(context.Background(), leaseAnalysis(), 0, "en"); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	_, _ = NewMessageComposer(gen, &clipboardFake{err: errors.New("no display")}, obs, nil).Compose(context.Background(), leaseAnalysis(), 0, "en")
	if len(obs.got) != 2 || !obs.got[0] || obs.got[1] {
		t.Fatalf("expected [true false], got %v", obs.got)
	}
}
