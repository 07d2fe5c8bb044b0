//go:build integration

// Package integration drives the language server through the protocol
// handler with JSON-encoded messages, the way a client does.
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/ast/asttest"
	"github.com/CWBudde/go-robot-lsp/internal/lsp"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/server"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

const (
	suiteText = "*** Settings ***\n" +
		"Resource    common.resource\n" +
		"*** Test Cases ***\n" +
		"Valid Login\n" +
		"    Open Login Page\n" +
		"    Submit Credentials\n"

	resourceText = "*** Keywords ***\n" +
		"Open Login Page\n" +
		"    [Documentation]    Opens the login page.\n" +
		"    Log    opening\n"
)

func suiteTree(withSubmit bool) *ast.Node {
	body := []*ast.Node{asttest.KeywordCall(5, "Open Login Page")}
	if withSubmit {
		body = append(body, asttest.KeywordCall(6, "Submit Credentials"))
	}
	return asttest.File(
		asttest.Section(ast.KindSettingSection, 1, "*** Settings ***",
			asttest.ResourceImport(2, "common.resource")),
		asttest.Section(ast.KindTestCaseSection, 3, "*** Test Cases ***",
			asttest.TestCase(4, "Valid Login", body...)),
	)
}

func resourceTree() *ast.Node {
	return asttest.File(
		asttest.Section(ast.KindKeywordSection, 1, "*** Keywords ***",
			asttest.Keyword(2, "Open Login Page",
				asttest.Documentation(3, "Opens the login page."),
				asttest.KeywordCall(4, "Log", "opening"))),
	)
}

// client sends messages to the handler and records its notifications.
type client struct {
	t       *testing.T
	handler *protocol.Handler

	mu    sync.Mutex
	notes map[string][]*protocol.PublishDiagnosticsParams
}

func newClient(t *testing.T) (*client, *server.Server) {
	t.Helper()

	p := parser.Func(func(ctx context.Context, uri, text string) (*ast.Node, error) {
		switch {
		case strings.HasSuffix(uri, ".resource"):
			return resourceTree(), nil
		case strings.Contains(text, "Submit Credentials"):
			return suiteTree(true), nil
		default:
			return suiteTree(false), nil
		}
	})
	cfg := server.DefaultConfig()
	cfg.DiagnosticsDelayMs = 0
	srv := server.New(cfg, zerolog.Nop(), server.WithParser(p))
	lsp.SetServer(srv)
	t.Cleanup(func() { lsp.SetServer(nil) })

	return &client{
		t:       t,
		handler: lsp.NewHandler(),
		notes:   map[string][]*protocol.PublishDiagnosticsParams{},
	}, srv
}

func (c *client) send(method string, params any) any {
	c.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(c.t, err)

	ctx := &glsp.Context{
		Method: method,
		Params: raw,
		Notify: func(method string, params any) {
			if method != protocol.ServerTextDocumentPublishDiagnostics {
				return
			}
			p := params.(*protocol.PublishDiagnosticsParams)
			c.mu.Lock()
			defer c.mu.Unlock()
			c.notes[p.URI] = append(c.notes[p.URI], p)
		},
	}
	result, validMethod, validParams, err := c.handler.Handle(ctx)
	require.True(c.t, validMethod, method)
	require.True(c.t, validParams, method)
	require.NoError(c.t, err, method)
	return result
}

// waitDiagnostics waits for the diagnostics of uri published for version.
func (c *client) waitDiagnostics(uri string, version int32) []protocol.Diagnostic {
	c.t.Helper()
	var diags []protocol.Diagnostic
	require.Eventually(c.t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, p := range c.notes[uri] {
			if p.Version != nil && int32(*p.Version) == version {
				diags = p.Diagnostics
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return diags
}

func setupWorkspace(t *testing.T) (root, suiteURI, resourceURI string) {
	t.Helper()
	root = t.TempDir()
	suite := filepath.Join(root, "login.robot")
	resource := filepath.Join(root, "common.resource")
	require.NoError(t, os.WriteFile(suite, []byte(suiteText), 0o644))
	require.NoError(t, os.WriteFile(resource, []byte(resourceText), 0o644))
	return root, util.PathToURI(suite), util.PathToURI(resource)
}

func TestEditingSession(t *testing.T) {
	root, suiteURI, resourceURI := setupWorkspace(t)
	c, srv := newClient(t)

	result := c.send(protocol.MethodInitialize, protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: util.PathToURI(root), Name: "project"}},
	})
	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, lsp.ServerName, initResult.ServerInfo.Name)

	c.send(protocol.MethodInitialized, protocol.InitializedParams{})
	require.Eventually(t, func() bool {
		return len(srv.WorkspaceIndex().FindSymbol("open login page")) == 1
	}, 5*time.Second, 10*time.Millisecond, "workspace indexed")

	// The suite as opened calls an undefined keyword.
	c.send(protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI: suiteURI, LanguageID: "robotframework", Version: 1, Text: suiteText,
		},
	})
	diags := c.waitDiagnostics(suiteURI, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, "Undefined keyword: Submit Credentials.", diags[0].Message)
	assert.Equal(t, protocol.UInteger(5), diags[0].Range.Start.Line)

	// Removing the call clears the problem.
	c.send(protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: suiteURI},
			Version:                2,
		},
		ContentChanges: []any{map[string]any{
			"range": protocol.Range{
				Start: protocol.Position{Line: 5, Character: 0},
				End:   protocol.Position{Line: 6, Character: 0},
			},
			"text": "",
		}},
	})
	assert.Empty(t, c.waitDiagnostics(suiteURI, 2))

	doc, ok := srv.Documents().Get(suiteURI)
	require.True(t, ok)
	assert.NotContains(t, doc.Text(), "Submit Credentials")

	at := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: suiteURI},
		Position:     protocol.Position{Line: 4, Character: 6},
	}

	hover, ok := c.send(protocol.MethodTextDocumentHover, protocol.HoverParams{TextDocumentPositionParams: at}).(*protocol.Hover)
	require.True(t, ok)
	markup, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, markup.Value, "**common.Open Login Page**")
	assert.Contains(t, markup.Value, "Opens the login page.")

	location, ok := c.send(protocol.MethodTextDocumentDefinition, protocol.DefinitionParams{TextDocumentPositionParams: at}).(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, resourceURI, location.URI)
	assert.Equal(t, protocol.UInteger(1), location.Range.Start.Line)

	symbols, ok := c.send(protocol.MethodWorkspaceSymbol, protocol.WorkspaceSymbolParams{Query: "login"}).([]protocol.SymbolInformation)
	require.True(t, ok)
	var names []string
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Valid Login", "Open Login Page"}, names)

	c.send(protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: suiteURI},
	})
	assert.False(t, srv.Documents().IsOpen(suiteURI))

	c.send(protocol.MethodShutdown, nil)
	assert.True(t, srv.IsShuttingDown())
}

func TestRequestsBeforeInitialize(t *testing.T) {
	c, _ := newClient(t)
	raw, err := json.Marshal(protocol.HoverParams{})
	require.NoError(t, err)

	_, _, _, err = c.handler.Handle(&glsp.Context{Method: protocol.MethodTextDocumentHover, Params: raw})
	assert.Error(t, err)
}
