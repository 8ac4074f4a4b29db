package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/agreewise/agreewise/internal/core/domain"
)

// ExecClipboard writes text to the stdin of a clipboard command such as pbcopy or wl-copy.
type ExecClipboard struct {
	argv []string
}

func NewExecClipboard(command string) (*ExecClipboard, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new_exec_clipboard", errors.New("clipboard command is empty"))
	}
	return &ExecClipboard{argv: argv}, nil
}

func (c *ExecClipboard) WriteText(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("clipboard command failed: %w: %s", err, msg)
		}
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}
