package server

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/ast/asttest"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
)

const suiteURI = "file:///project/login.robot"

// treeParser returns a fixed tree and counts its calls.
type treeParser struct {
	tree  *ast.Node
	calls atomic.Int32
}

func (p *treeParser) Parse(ctx context.Context, uri, text string) (*ast.Node, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ast.ErrCancelled, err)
	}
	return p.tree, nil
}

func suiteTree(calls ...string) *ast.Node {
	var body []*ast.Node
	for i, name := range calls {
		body = append(body, asttest.KeywordCall(3+i, name))
	}
	return asttest.File(
		asttest.Section(ast.KindTestCaseSection, 1, "*** Test Cases ***",
			asttest.TestCase(2, "Valid Login", body...)),
	)
}

func TestDocumentParsesOncePerVersion(t *testing.T) {
	p := &treeParser{tree: suiteTree("Log")}
	doc := NewDocument(suiteURI, "robotframework", 1, "text", p)

	first, err := doc.AST()
	require.NoError(t, err)
	second, err := doc.Parse(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), p.calls.Load())

	next := doc.WithText(2, "new text")
	_, err = next.AST()
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, "new text", next.Text())
	assert.Equal(t, int32(2), next.Version())
	assert.Equal(t, "text", doc.Text())
}

func TestDocumentCancelledParseIsRetried(t *testing.T) {
	p := &treeParser{tree: suiteTree("Log")}
	doc := NewDocument(suiteURI, "robotframework", 1, "text", p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := doc.Parse(ctx)
	assert.ErrorIs(t, err, ast.ErrCancelled)

	root, err := doc.AST()
	require.NoError(t, err)
	assert.NotNil(t, root)
}

func TestDocumentParseFailureIsRemembered(t *testing.T) {
	var calls int
	failing := parser.Func(func(ctx context.Context, uri, text string) (*ast.Node, error) {
		calls++
		return nil, ast.ErrParseUnavailable
	})
	doc := NewDocument(suiteURI, "robotframework", 1, "text", failing)

	_, err := doc.AST()
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)
	_, err = doc.AST()
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)
	assert.Equal(t, 1, calls)

	_, err = NewDocument(suiteURI, "robotframework", 1, "text", nil).AST()
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	doc := NewDocument(suiteURI, "robotframework", 1, "text", nil)
	store.Set(doc)

	got, ok := store.Get(suiteURI)
	require.True(t, ok)
	assert.Same(t, doc, got)
	assert.True(t, store.IsOpen(suiteURI))
	assert.Equal(t, []string{suiteURI}, store.List())

	open, ok := store.OpenDocument(suiteURI)
	require.True(t, ok)
	assert.Equal(t, suiteURI, open.URI())

	_, ok = store.OpenDocument("file:///other.robot")
	assert.False(t, ok)

	p := &treeParser{tree: suiteTree()}
	store.Reparse(p)
	reparsed, _ := store.Get(suiteURI)
	assert.NotSame(t, doc, reparsed)
	_, err := reparsed.AST()
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.calls.Load())

	store.Delete(suiteURI)
	assert.False(t, store.IsOpen(suiteURI))
}

func TestInflightCancelsSupersededPass(t *testing.T) {
	inflight := NewInflight()

	first, doneFirst := inflight.Begin(context.Background(), suiteURI)
	second, doneSecond := inflight.Begin(context.Background(), suiteURI)

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.Equal(t, 1, inflight.Len())

	// The superseded pass finishing must not unregister the newer one.
	doneFirst()
	assert.Equal(t, 1, inflight.Len())

	doneSecond()
	assert.Equal(t, 0, inflight.Len())
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestInflightCancel(t *testing.T) {
	inflight := NewInflight()
	a, doneA := inflight.Begin(context.Background(), "file:///a.robot")
	defer doneA()
	b, doneB := inflight.Begin(context.Background(), "file:///b.robot")
	defer doneB()

	inflight.Cancel("file:///a.robot")
	assert.Error(t, a.Err())
	assert.NoError(t, b.Err())

	inflight.CancelAll()
	assert.Error(t, b.Err())
	assert.Zero(t, inflight.Len())
}

func TestDebouncerImmediate(t *testing.T) {
	d := NewDebouncer(0)
	ran := false
	d.Do(suiteURI, func() { ran = true })
	assert.True(t, ran)
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var runs []int
	done := make(chan struct{})
	for i := range 5 {
		d.Do(suiteURI, func() {
			mu.Lock()
			runs = append(runs, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function did not run")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4}, runs)
}

func TestDebouncerForget(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var ran atomic.Bool
	d.Do(suiteURI, func() { ran.Store(true) })
	d.Forget(suiteURI)

	time.Sleep(80 * time.Millisecond)
	assert.False(t, ran.Load())
}

func newTestServer(t *testing.T, p parser.Parser) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DiagnosticsDelayMs = 0
	return New(cfg, zerolog.Nop(), WithParser(p))
}

func TestDiagnose(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree("Log", "Missing Keyword")})
	srv.OpenDocument(suiteURI, "robotframework", 3, "ignored")

	doc, diags, err := srv.Diagnose(context.Background(), suiteURI)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int32(3), doc.Version())

	require.Len(t, diags, 1)
	assert.Equal(t, "Undefined keyword: Missing Keyword.", diags[0].Message)

	// The open document is indexed for workspace/symbol.
	locations := srv.WorkspaceIndex().FindSymbol("valid login")
	require.Len(t, locations, 1)
	version, ok := srv.WorkspaceIndex().FileVersion(suiteURI)
	require.True(t, ok)
	assert.Equal(t, int32(3), version)
	assert.Zero(t, srv.Inflight().Len())
}

func TestDiagnoseUnknownDocument(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree()})
	doc, diags, err := srv.Diagnose(context.Background(), "file:///nope.robot")
	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.Nil(t, diags)
}

func TestDiagnoseParseUnavailable(t *testing.T) {
	srv := newTestServer(t, parser.Func(func(ctx context.Context, uri, text string) (*ast.Node, error) {
		return nil, ast.ErrParseUnavailable
	}))
	srv.OpenDocument(suiteURI, "robotframework", 1, "text")

	_, _, err := srv.Diagnose(context.Background(), suiteURI)
	assert.ErrorIs(t, err, ast.ErrParseUnavailable)
}

func TestDiagnoseHonoursMaxProblems(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree("A", "B", "C")})
	srv.OpenDocument(suiteURI, "robotframework", 1, "text")

	_, err := srv.UpdateConfig(func(c *Config) { c.MaxProblems = 2 })
	require.NoError(t, err)

	_, diags, err := srv.Diagnose(context.Background(), suiteURI)
	require.NoError(t, err)
	assert.Len(t, diags, 2)
}

func TestUpdateConfig(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree()})

	changed, err := srv.UpdateConfig(func(c *Config) { c.LibspecDirs = []string{t.TempDir()} })
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = srv.UpdateConfig(func(c *Config) { c.Trace = "verbose" })
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "verbose", srv.Config().Trace)

	_, err = srv.UpdateConfig(func(c *Config) { c.MaxProblems = -3 })
	assert.Error(t, err)
	assert.Equal(t, 100, srv.Config().MaxProblems)
}

func TestUpdateConfigParserCommandReparses(t *testing.T) {
	p := &treeParser{tree: suiteTree()}
	srv := newTestServer(t, p)
	srv.OpenDocument(suiteURI, "robotframework", 1, "text")

	_, err := srv.UpdateConfig(func(c *Config) { c.ParserCommand = "dump-model" })
	require.NoError(t, err)

	_, ok := srv.Parser().(*parser.Command)
	assert.True(t, ok)

	doc, _ := srv.Documents().Get(suiteURI)
	_, err = doc.AST()
	assert.ErrorIs(t, err, ast.ErrParseUnavailable, "dump-model is not installed")
	assert.Zero(t, p.calls.Load())
}

func TestCloseDocument(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree()})
	srv.OpenDocument(suiteURI, "robotframework", 1, "text")
	_, _, err := srv.Diagnose(context.Background(), suiteURI)
	require.NoError(t, err)
	require.Equal(t, 1, srv.WorkspaceIndex().GetFileCount())

	srv.CloseDocument(context.Background(), suiteURI, "")

	assert.False(t, srv.Documents().IsOpen(suiteURI))
	assert.Zero(t, srv.WorkspaceIndex().GetFileCount())
}

func TestShutdownCancelsPasses(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree()})
	ctx, done := srv.Inflight().Begin(context.Background(), suiteURI)
	defer done()

	srv.SetShuttingDown()

	assert.True(t, srv.IsShuttingDown())
	assert.Error(t, ctx.Err())
}

func TestLogger(t *testing.T) {
	var out bytes.Buffer
	srv := New(DefaultConfig(), zerolog.New(&out), WithParser(&treeParser{tree: suiteTree()}))

	srv.Logger().Info().Str("uri", suiteURI).Msg("document opened")

	assert.Contains(t, out.String(), `"message":"document opened"`)
	assert.Contains(t, out.String(), suiteURI)
}

func TestWorkspaceFoldersAreCopied(t *testing.T) {
	srv := newTestServer(t, &treeParser{tree: suiteTree()})
	folders := []string{"/a"}
	srv.SetWorkspaceFolders(folders)
	folders[0] = "/b"

	got := srv.GetWorkspaceFolders()
	assert.Equal(t, []string{"/a"}, got)
}
