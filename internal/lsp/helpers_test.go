package lsp

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/ast/asttest"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/server"
)

const (
	testDocumentURI = "file:///project/login.robot"

	testSuiteText = "*** Test Cases ***\n" +
		"Valid Login\n" +
		"    Log    hello\n" +
		"    Greet\n" +
		"    Missing\n" +
		"*** Keywords ***\n" +
		"Greet\n" +
		"    [Documentation]    Says hello.\n" +
		"    Log    hi\n"
)

// testSuiteTree is the syntax tree of testSuiteText.
func testSuiteTree() *ast.Node {
	return asttest.File(
		asttest.Section(ast.KindTestCaseSection, 1, "*** Test Cases ***",
			asttest.TestCase(2, "Valid Login",
				asttest.KeywordCall(3, "Log", "hello"),
				asttest.KeywordCall(4, "Greet"),
				asttest.KeywordCall(5, "Missing"),
			),
		),
		asttest.Section(ast.KindKeywordSection, 6, "*** Keywords ***",
			asttest.Keyword(7, "Greet",
				asttest.Documentation(8, "Says hello."),
				asttest.KeywordCall(9, "Log", "hi"),
			),
		),
	)
}

// setupServer installs a server whose parser returns tree for every
// document and runs background work synchronously.
func setupServer(t *testing.T, tree *ast.Node) *server.Server {
	t.Helper()

	cfg := server.DefaultConfig()
	cfg.DiagnosticsDelayMs = 0
	p := parser.Func(func(ctx context.Context, uri, text string) (*ast.Node, error) {
		if tree == nil {
			return nil, ast.ErrParseUnavailable
		}
		return tree, nil
	})
	srv := server.New(cfg, zerolog.Nop(), server.WithParser(p))

	prev := runBackground
	runBackground = func(f func()) { f() }
	SetServer(srv)
	t.Cleanup(func() {
		runBackground = prev
		SetServer(nil)
	})
	return srv
}

// recorder captures the notifications sent through its context.
type recorder struct {
	mu    sync.Mutex
	notes []notification
}

type notification struct {
	method string
	params any
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{Notify: func(method string, params any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.notes = append(r.notes, notification{method: method, params: params})
	}}
}

// published returns the diagnostics notifications sent for uri, oldest first.
func (r *recorder) published(uri string) []*protocol.PublishDiagnosticsParams {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*protocol.PublishDiagnosticsParams
	for _, n := range r.notes {
		if n.method != protocol.ServerTextDocumentPublishDiagnostics {
			continue
		}
		if p, ok := n.params.(*protocol.PublishDiagnosticsParams); ok && p.URI == uri {
			out = append(out, p)
		}
	}
	return out
}

func (r *recorder) lastPublished(t *testing.T, uri string) *protocol.PublishDiagnosticsParams {
	t.Helper()
	all := r.published(uri)
	require.NotEmpty(t, all, "no diagnostics published for %s", uri)
	return all[len(all)-1]
}

func openTestDocument(t *testing.T, ctx *glsp.Context, uri, text string, version int32) {
	t.Helper()
	err := DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "robotframework",
			Version:    version,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func position(line, character int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testDocumentURI},
		Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
	}
}
