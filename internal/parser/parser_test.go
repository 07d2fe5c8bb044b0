package parser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// writeScript creates an executable shell script acting as parser.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), "parser.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestCommandParse(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
printf '{"type": "File", "body": [{"type": "KeywordSection", "lineno": 1, "end_lineno": 1, "tokens": [{"type": "NAME", "value": "%s", "lineno": 1}]}]}' "$ROBOT_LSP_DOCUMENT_TYPE"
`)

	cmd := NewCommand(script, zerolog.Nop())
	root, err := cmd.Parse(context.Background(), "file:///ws/common.resource", "*** Keywords ***\n")
	require.NoError(t, err)

	require.Len(t, root.Body, 1)
	assert.Equal(t, ast.KindKeywordSection, root.Body[0].Kind)
	assert.Equal(t, "resource", root.Body[0].Value(ast.TokenName))
}

func TestCommandReceivesSource(t *testing.T) {
	script := writeScript(t, `text=$(cat)
printf '{"type": "File", "body": [{"type": "Comment", "lineno": 1, "tokens": [{"type": "COMMENT", "value": "%s", "lineno": 1}]}]}' "$text"
`)

	root, err := NewCommand(script, zerolog.Nop()).Parse(context.Background(), "file:///ws/a.robot", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", root.Body[0].Value(ast.TokenComment))
}

func TestCommandFailures(t *testing.T) {
	_, err := NewCommand("", zerolog.Nop()).Parse(context.Background(), "file:///a.robot", "")
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)

	failing := writeScript(t, "echo boom >&2\nexit 3\n")
	_, err = NewCommand(failing, zerolog.Nop()).Parse(context.Background(), "file:///a.robot", "")
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)

	garbage := writeScript(t, "cat > /dev/null\necho not json\n")
	_, err = NewCommand(garbage, zerolog.Nop()).Parse(context.Background(), "file:///a.robot", "")
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)
}

func TestCommandCancelled(t *testing.T) {
	slow := writeScript(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCommand(slow, zerolog.Nop()).Parse(ctx, "file:///a.robot", "")
	assert.ErrorIs(t, err, ast.ErrCancelled)
}

func TestJSONParser(t *testing.T) {
	root, err := JSON.Parse(context.Background(), "file:///a.robot", `{"type": "File", "body": [{"type": "KeywordSection", "lineno": 1, "end_lineno": 3}]}`)
	require.NoError(t, err)
	require.Len(t, root.Body, 1)
	assert.Equal(t, ast.KindKeywordSection, root.Body[0].Kind)

	_, err = JSON.Parse(context.Background(), "file:///a.robot", "*** Test Cases ***")
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = JSON.Parse(ctx, "file:///a.robot", "{}")
	assert.ErrorIs(t, err, ast.ErrCancelled)
}
