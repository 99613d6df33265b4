// Package provision creates spaces from generated JSON templates by running
// an external bootstrap tool.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultCommand is the bootstrap tool invoked when none is configured.
const DefaultCommand = "contentful_bootstrap"

// CommandProvisioner runs "<Command> <Args...> create_space <space>
// --json-template <path>".
type CommandProvisioner struct {
	Command string
	Args    []string
	Logger  *zap.Logger
}

// NewCommandProvisioner parses a command line such as
// "contentful_bootstrap --config ~/.contentfulrc". An empty line selects
// DefaultCommand.
func NewCommandProvisioner(commandLine string, logger *zap.Logger) *CommandProvisioner {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandProvisioner{Command: fields[0], Args: fields[1:], Logger: logger}
}

// CreateSpace runs the bootstrap tool and fails with its output when it
// exits non-zero.
func (p *CommandProvisioner) CreateSpace(ctx context.Context, spaceID, templatePath string) error {
	args := append(append([]string{}, p.Args...), "create_space", spaceID, "--json-template", templatePath)

	cmd := exec.CommandContext(ctx, p.Command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("running bootstrap", zap.String("command", p.Command), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return fmt.Errorf("%s create_space %s: %w", p.Command, spaceID, err)
		}
		return fmt.Errorf("%s create_space %s: %w: %s", p.Command, spaceID, err, msg)
	}

	logger.Debug("bootstrap finished", zap.String("output", strings.TrimSpace(out.String())))
	return nil
}
