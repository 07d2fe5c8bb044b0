package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/server"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

func TestInitialize(t *testing.T) {
	srv := setupServer(t, testSuiteTree())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, server.ConfigFileName), []byte("max_problems = 1\n"), 0o644))

	params := &protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: util.PathToURI(root), Name: "project"}},
		InitializationOptions: map[string]any{
			"robot": map[string]any{"trace": "messages"},
		},
	}

	result, err := Initialize(&glsp.Context{}, params)
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok, "got %T", result)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, ServerName, initResult.ServerInfo.Name)

	caps := initResult.Capabilities
	sync, ok := caps.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	require.NotNil(t, sync.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, *sync.Change)
	assert.Equal(t, true, caps.HoverProvider)
	assert.Equal(t, true, caps.DefinitionProvider)
	assert.Equal(t, true, caps.DocumentSymbolProvider)
	assert.Equal(t, true, caps.WorkspaceSymbolProvider)
	assert.Equal(t, true, caps.FoldingRangeProvider)
	assert.NotNil(t, caps.CodeLensProvider)
	assert.Nil(t, caps.CompletionProvider)

	assert.Equal(t, []string{root}, srv.GetWorkspaceFolders())
	assert.Equal(t, 1, srv.Config().MaxProblems, "config file")
	assert.Equal(t, "messages", srv.Config().Trace, "initialization options")
	assert.NotNil(t, srv.GetClientCapabilities())
}

func TestInitializeInvalidConfigFile(t *testing.T) {
	srv := setupServer(t, testSuiteTree())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, server.ConfigFileName), []byte("max_problems = -4\n"), 0o644))

	_, err := Initialize(&glsp.Context{}, &protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: util.PathToURI(root)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, srv.Config().MaxProblems)
}

func TestInitialFolders(t *testing.T) {
	rootURI := "file:///work/suite"
	rootPath := "/legacy"

	assert.Equal(t, []string{"/work/suite"}, initialFolders(&protocol.InitializeParams{RootURI: &rootURI}))
	assert.Equal(t, []string{"/legacy"}, initialFolders(&protocol.InitializeParams{RootPath: &rootPath}))
	assert.Nil(t, initialFolders(&protocol.InitializeParams{}))
	assert.Equal(t, []string{"/a", "/b"}, initialFolders(&protocol.InitializeParams{
		RootURI: &rootURI,
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: "file:///a"},
			{URI: "https://example.com/x"},
			{URI: "file:///b"},
		},
	}))
}

func TestInitializedIndexesWorkspace(t *testing.T) {
	srv := setupServer(t, testSuiteTree())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "login.robot"), []byte(testSuiteText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	srv.SetWorkspaceFolders([]string{root})

	rec := &recorder{}
	openTestDocument(t, rec.context(), testDocumentURI, testSuiteText, 1)

	require.NoError(t, Initialized(rec.context(), &protocol.InitializedParams{}))

	locations := srv.WorkspaceIndex().FindSymbol("Greet")
	assert.Len(t, locations, 2, "the file on disk and the open document")
	assert.Len(t, rec.published(testDocumentURI), 2, "open documents are re-analyzed")
}

func TestShutdown(t *testing.T) {
	srv := setupServer(t, testSuiteTree())
	rec := &recorder{}
	openTestDocument(t, rec.context(), testDocumentURI, testSuiteText, 1)

	require.NoError(t, Shutdown(&glsp.Context{}))
	assert.True(t, srv.IsShuttingDown())

	rediagnoseOpenDocuments(rec.context(), srv)
	assert.Len(t, rec.published(testDocumentURI), 1, "nothing is published after shutdown")
}

func TestSetTrace(t *testing.T) {
	srv := setupServer(t, testSuiteTree())

	require.NoError(t, SetTrace(nil, &protocol.SetTraceParams{Value: protocol.TraceValueVerbose}))
	assert.Equal(t, "verbose", srv.Config().Trace)

	require.NoError(t, SetTrace(nil, &protocol.SetTraceParams{Value: "chatty"}))
	assert.Equal(t, "verbose", srv.Config().Trace)
}
