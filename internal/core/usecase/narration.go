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

const (
	narrationObligationLimit = 3
	narrationFailedMessage   = "Could not generate audio. Please try again."
)

// BuildNarrationScript compresses an analysis into a short spoken summary:
// document type and purpose, risk counts, then up to three obligations.
func BuildNarrationScript(a domain.AnalysisResult) string {
	var b strings.Builder

	docType := withArticle(a.DocumentType())
	purpose := strings.TrimRight(strings.TrimSpace(a.DocumentSummary.Purpose), ".")
	if purpose == "" {
		fmt.Fprintf(&b, "This document is %s.", docType)
	} else {
		fmt.Fprintf(&b, "This document is %s, and its purpose is: %s.", docType, purpose)
	}

	b.WriteString(" ")
	b.WriteString(riskSentence(len(a.RiskAnalysis.RedFlags), len(a.RiskAnalysis.YellowFlags)))

	rendered := 0
	for _, o := range a.YourObligations {
		if rendered == narrationObligationLimit {
			break
		}
		text := strings.TrimRight(strings.TrimSpace(o.Obligation), ".")
		if text == "" {
			continue
		}
		rendered++
		fmt.Fprintf(&b, " Obligation %d: %s.", rendered, text)
	}
	return b.String()
}

// withArticle prefixes an English indefinite article chosen by the first letter.
func withArticle(noun string) string {
	if noun == "" {
		return noun
	}
	if strings.ContainsRune("aeiouAEIOU", []rune(noun)[0]) {
		return "an " + noun
	}
	return "a " + noun
}

func riskSentence(red, yellow int) string {
	var parts []string
	switch {
	case red >= 3:
		parts = append(parts, fmt.Sprintf("Caution: we found %d serious concerns.", red))
	case red > 0:
		parts = append(parts, fmt.Sprintf("We found %d %s.", red, plural(red, "red flag", "red flags")))
	}
	if yellow > 0 {
		parts = append(parts, fmt.Sprintf("There %s %d %s to review.",
			plural(yellow, "is", "are"), yellow, plural(yellow, "item", "items")))
	}
	if len(parts) == 0 {
		return "This contract looks fair and balanced."
	}
	return strings.Join(parts, " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ScriptSource produces the narration text. It runs only when a session starts.
type ScriptSource func(ctx context.Context) (string, error)

// Narrator runs at most one narration session. Calling Narrate while audio is
// being generated or played stops the session instead of starting another.
type Narrator struct {
	synth    ports.SpeechSynthesizer
	player   ports.AudioPlayer
	observer ports.NarrationObserver
	logger   *slog.Logger

	mu         sync.Mutex
	session    uint64
	generating bool
	cancel     context.CancelFunc
	playback   ports.Playback
	language   string
	lastErr    string
}

func NewNarrator(synth ports.SpeechSynthesizer, player ports.AudioPlayer, observer ports.NarrationObserver, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{synth: synth, player: player, observer: observer, logger: logger}
}

func (n *Narrator) Narrate(ctx context.Context, language string, script ScriptSource) (ports.NarrationOutcome, error) {
	if stopped := n.stop(); stopped {
		n.observe("stopped")
		return ports.NarrationStopped, nil
	}

	n.mu.Lock()
	n.session++
	id := n.session
	genCtx, cancel := context.WithCancel(ctx)
	n.generating = true
	n.cancel = cancel
	n.language = language
	n.lastErr = ""
	n.mu.Unlock()
	defer cancel()

	text, err := script(genCtx)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.WrapError(domain.ErrInvalidInput, "narrate", errors.New("nothing to narrate"))
	}
	var audio *domain.Audio
	if err == nil {
		audio, err = n.synth.Synthesize(genCtx, text, domain.SpeechLocale(language))
	}
	if err == nil && audio.Empty() {
		err = domain.WrapError(domain.ErrPlayback, "narrate", errors.New("no audio returned"))
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.session != id {
		// stopped while generating
		return ports.NarrationStopped, nil
	}
	n.generating = false
	n.cancel = nil
	if err != nil {
		return "", n.failLocked(err)
	}

	pb, err := n.player.Play(context.WithoutCancel(ctx), audio)
	if err != nil {
		return "", n.failLocked(domain.WrapError(domain.ErrPlayback, "play narration", err))
	}
	n.playback = pb
	go n.wait(id, pb)

	n.logger.Info("narration_started", "language", language, "bytes", len(audio.Data))
	n.observe("started")
	return ports.NarrationStarted, nil
}

// Stop ends the current session, if any.
func (n *Narrator) Stop() bool {
	stopped := n.stop()
	if stopped {
		n.observe("stopped")
	}
	return stopped
}

func (n *Narrator) Status() ports.NarrationStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return ports.NarrationStatus{
		Generating: n.generating,
		Playing:    n.playback != nil,
		Language:   n.language,
		Error:      n.lastErr,
	}
}

func (n *Narrator) stop() bool {
	n.mu.Lock()
	switch {
	case n.generating:
		n.session++
		n.generating = false
		if n.cancel != nil {
			n.cancel()
			n.cancel = nil
		}
		n.mu.Unlock()
		return true
	case n.playback != nil:
		n.session++
		pb := n.playback
		n.playback = nil
		n.mu.Unlock()
		if err := pb.Stop(); err != nil {
			n.logger.Warn("narration_stop_failed", "error", err)
		}
		return true
	default:
		n.mu.Unlock()
		return false
	}
}

func (n *Narrator) wait(id uint64, pb ports.Playback) {
	err := pb.Wait()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.session != id {
		return
	}
	n.playback = nil
	if err != nil {
		n.failLocked(domain.WrapError(domain.ErrPlayback, "play narration", err))
		return
	}
	n.observe("finished")
}

func (n *Narrator) failLocked(err error) error {
	n.lastErr = domain.UserMessage(err, narrationFailedMessage)
	n.logger.Warn("narration_failed", "language", n.language, "error", err)
	n.observe("failed")
	return err
}

func (n *Narrator) observe(outcome string) {
	if n.observer != nil {
		n.observer.NarrationFinished(outcome)
	}
}
