package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

func staticScript(text string) ScriptSource {
	return func(context.Context) (string, error) { return text, nil }
}

func TestBuildNarrationScriptLease(t *testing.T) {
	script := BuildNarrationScript(leaseAnalysis())

	if !strings.HasPrefix(script, "This document is a Lease, and its purpose is: renting an apartment.") {
		t.Fatalf("unexpected opening sentence: %q", script)
	}
	if !strings.Contains(script, "Caution: we found 3 serious concerns.") {
		t.Fatalf("expected caution clause naming 3, got %q", script)
	}
	if !strings.Contains(script, "Obligation 1: Pay rent.") {
		t.Fatalf("expected first obligation, got %q", script)
	}
}

func TestBuildNarrationScriptRiskSentences(t *testing.T) {
	cases := []struct {
		red, yellow int
		want        string
	}{
		{0, 0, "This contract looks fair and balanced."},
		{1, 0, "We found 1 red flag."},
		{2, 1, "We found 2 red flags. There is 1 item to review."},
		{4, 2, "Caution: we found 4 serious concerns. There are 2 items to review."},
		{0, 5, "There are 5 items to review."},
	}
	for _, tc := range cases {
		a := domain.AnalysisResult{RiskAnalysis: domain.RiskAnalysis{
			RedFlags:    make([]domain.Flag, tc.red),
			YellowFlags: make([]domain.Flag, tc.yellow),
		}}
		script := BuildNarrationScript(a)
		if !strings.Contains(script, tc.want) {
			t.Fatalf("red=%d yellow=%d: expected %q in %q", tc.red, tc.yellow, tc.want, script)
		}
	}
}

func TestBuildNarrationScriptCapsObligations(t *testing.T) {
	a := domain.AnalysisResult{YourObligations: []domain.Obligation{
		{Obligation: "One"}, {Obligation: "Two"}, {Obligation: "Three"}, {Obligation: "Four"},
	}}
	script := BuildNarrationScript(a)
	if !strings.Contains(script, "This document is an agreement.") {
		t.Fatalf("expected generic document type, got %q", script)
	}
	if !strings.Contains(script, "Obligation 3: Three.") || strings.Contains(script, "Four") {
		t.Fatalf("expected three obligations, got %q", script)
	}
}

func TestNarratorToggleStopsPlayback(t *testing.T) {
	synth := &synthFake{}
	player := &playerFake{}
	n := NewNarrator(synth, player, nil, nil)

	outcome, err := n.Narrate(context.Background(), "zh", staticScript("hello"))
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if outcome != ports.NarrationStarted {
		t.Fatalf("expected started, got %s", outcome)
	}
	if got := synth.lang.Load(); got != "zh-CN" {
		t.Fatalf("expected zh-CN speech locale, got %v", got)
	}
	if !n.Status().Playing {
		t.Fatalf("expected playing status")
	}

	outcome, err = n.Narrate(context.Background(), "zh", staticScript("hello"))
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if outcome != ports.NarrationStopped {
		t.Fatalf("expected stopped, got %s", outcome)
	}
	if !player.last().stopped.Load() {
		t.Fatalf("expected playback stopped")
	}
	if synth.calls.Load() != 1 {
		t.Fatalf("expected a single synthesis, got %d", synth.calls.Load())
	}
	status := n.Status()
	if status.Playing || status.Error != "" {
		t.Fatalf("expected clean idle status after stop, got %+v", status)
	}
}

func TestNarratorToggleCancelsGeneration(t *testing.T) {
	synth := &synthFake{release: make(chan struct{})}
	player := &playerFake{}
	n := NewNarrator(synth, player, nil, nil)

	done := make(chan ports.NarrationOutcome, 1)
	go func() {
		outcome, _ := n.Narrate(context.Background(), "en", staticScript("hello"))
		done <- outcome
	}()
	eventually(t, func() bool { return n.Status().Generating }, "generating status")

	outcome, err := n.Narrate(context.Background(), "en", staticScript("hello"))
	if err != nil || outcome != ports.NarrationStopped {
		t.Fatalf("expected stop while generating, got %s, %v", outcome, err)
	}
	if first := <-done; first != ports.NarrationStopped {
		t.Fatalf("expected cancelled session to report stopped, got %s", first)
	}
	if player.last() != nil {
		t.Fatalf("expected no playback after cancel")
	}
}

func TestNarratorPlaybackFailureResetsFlag(t *testing.T) {
	player := &playerFake{}
	n := NewNarrator(&synthFake{}, player, nil, nil)

	if _, err := n.Narrate(context.Background(), "en", staticScript("hello")); err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	player.last().done <- errors.New("decode failed")

	eventually(t, func() bool { return !n.Status().Playing }, "playing reset")
	if got := n.Status().Error; got != "decode failed" {
		t.Fatalf("expected playback error surfaced, got %q", got)
	}

	outcome, err := n.Narrate(context.Background(), "en", staticScript("again"))
	if err != nil || outcome != ports.NarrationStarted {
		t.Fatalf("expected a new session after failure, got %s, %v", outcome, err)
	}
}

func TestNarratorPlayerErrorIsPlaybackKind(t *testing.T) {
	n := NewNarrator(&synthFake{}, &playerFake{err: errors.New("no audio device")}, nil, nil)

	_, err := n.Narrate(context.Background(), "en", staticScript("hello"))
	if !domain.IsKind(err, domain.ErrPlayback) {
		t.Fatalf("expected playback error, got %v", err)
	}
	status := n.Status()
	if status.Playing || status.Generating || status.Error == "" {
		t.Fatalf("expected reset status with error, got %+v", status)
	}
}

func TestBuildNarrationScriptNumbersRenderedObligations(t *testing.T) {
	a := domain.AnalysisResult{
		DocumentSummary: domain.DocumentSummary{DocumentType: "Employment Contract"},
		YourObligations: []domain.Obligation{
			{Obligation: "Work full time"}, {Obligation: "  "}, {Obligation: "Keep secrets"}, {Obligation: "Give notice"}, {Obligation: "Return laptop"},
		},
	}
	script := BuildNarrationScript(a)
	if !strings.HasPrefix(script, "This document is an Employment Contract.") {
		t.Fatalf("expected article chosen from the type, got %q", script)
	}
	for _, want := range []string{"Obligation 1: Work full time.", "Obligation 2: Keep secrets.", "Obligation 3: Give notice."} {
		if !strings.Contains(script, want) {
			t.Fatalf("expected %q in %q", want, script)
		}
	}
	if strings.Contains(script, "Return laptop") {
		t.Fatalf("expected three rendered obligations, got %q", script)
	}
}
