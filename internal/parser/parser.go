// Package parser obtains syntax trees from an external parser command, which
// reads Robot Framework source on stdin and writes the model as JSON.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// Environment variables passed to the parser command.
const (
	EnvDocumentType = "ROBOT_LSP_DOCUMENT_TYPE"
	EnvDocumentURI  = "ROBOT_LSP_DOCUMENT_URI"
)

// Parser turns source text into a syntax tree.
type Parser interface {
	Parse(ctx context.Context, uri, text string) (*ast.Node, error)
}

// Command runs an external program per parse. Argv[0] is the program.
type Command struct {
	Argv   []string
	Logger zerolog.Logger
}

// NewCommand splits a command line on whitespace. An empty line yields a
// Command whose Parse always fails with ast.ErrParseUnavailable.
func NewCommand(commandLine string, logger zerolog.Logger) *Command {
	return &Command{Argv: strings.Fields(commandLine), Logger: logger}
}

// Parse runs the command with text on stdin.
func (c *Command) Parse(ctx context.Context, uri, text string) (*ast.Node, error) {
	if len(c.Argv) == 0 {
		return nil, fmt.Errorf("%w: no parser command configured", ast.ErrParseUnavailable)
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = append(os.Environ(),
		EnvDocumentType+"="+util.DocumentTypeOf(uri).String(),
		EnvDocumentURI+"="+uri,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ast.ErrCancelled, ctx.Err())
		}
		c.Logger.Warn().Err(err).Str("uri", uri).Str("stderr", strings.TrimSpace(stderr.String())).Msg("parser command failed")
		return nil, fmt.Errorf("%w: parser command failed: %w", ast.ErrParseUnavailable, err)
	}

	root, err := ast.Decode(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ast.ErrParseUnavailable, err)
	}
	c.Logger.Debug().Str("uri", uri).Int("bytes", len(text)).Msg("parsed document")
	return root, nil
}

// Func adapts an ordinary function to the Parser interface.
type Func func(ctx context.Context, uri, text string) (*ast.Node, error)

// Parse calls f.
func (f Func) Parse(ctx context.Context, uri, text string) (*ast.Node, error) {
	return f(ctx, uri, text)
}

// JSON treats the source text as an already dumped syntax tree. It serves
// offline checks of files produced by the parser command.
var JSON Parser = Func(func(ctx context.Context, uri, text string) (*ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ast.ErrCancelled, err)
	}
	root, err := ast.Decode([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ast.ErrParseUnavailable, err)
	}
	return root, nil
})
