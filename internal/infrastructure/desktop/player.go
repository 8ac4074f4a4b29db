package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
)

const DefaultPlayerCommand = "ffplay -nodisp -autoexit -loglevel quiet"

// ExecPlayer plays audio by handing a temp file to an external command.
type ExecPlayer struct {
	argv    []string
	tempDir string
	logger  *slog.Logger
}

func NewExecPlayer(command, tempDir string, logger *slog.Logger) (*ExecPlayer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new_exec_player", errors.New("player command is empty"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecPlayer{argv: argv, tempDir: tempDir, logger: logger}, nil
}

func (p *ExecPlayer) Play(ctx context.Context, audio *domain.Audio) (ports.Playback, error) {
	if audio.Empty() {
		return nil, domain.WrapError(domain.ErrPlayback, "play", errors.New("no audio to play"))
	}

	f, err := os.CreateTemp(p.tempDir, "agreewise-*"+extensionFor(audio.ContentType))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPlayback, "play", fmt.Errorf("create temp audio: %w", err))
	}
	path := f.Name()
	if _, err := f.Write(audio.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, domain.WrapError(domain.ErrPlayback, "play", fmt.Errorf("write temp audio: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, domain.WrapError(domain.ErrPlayback, "play", fmt.Errorf("close temp audio: %w", err))
	}

	args := append(append([]string{}, p.argv[1:]...), path)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return nil, domain.WrapError(domain.ErrPlayback, "play", fmt.Errorf("start player: %w", err))
	}
	p.logger.Debug("playback_started", "command", p.argv[0], "bytes", len(audio.Data))

	pb := &execPlayback{cmd: cmd, path: path, done: make(chan struct{})}
	go pb.run()
	return pb, nil
}

type execPlayback struct {
	cmd  *exec.Cmd
	path string
	done chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
}

func (p *execPlayback) run() {
	err := p.cmd.Wait()
	_ = os.Remove(p.path)

	p.mu.Lock()
	if p.stopped {
		err = nil
	}
	if err != nil {
		p.err = domain.WrapError(domain.ErrPlayback, "play", err)
	}
	p.mu.Unlock()
	close(p.done)
}

// Wait blocks until the player exits. A stopped playback ends without error.
func (p *execPlayback) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *execPlayback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return domain.WrapError(domain.ErrPlayback, "stop", err)
	}
	<-p.done
	return nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".mp3"
	}
}
