// Package server provides the core LSP server state and management.
package server

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/libspec"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/util"
	"github.com/CWBudde/go-robot-lsp/internal/workspace"
)

// Server holds the state of the LSP server.
type Server struct {
	documents *DocumentStore

	// libraries resolves Library imports from libspec files.
	libraries *libspec.Manager

	// workspaceIndex stores keyword and test case definitions of the
	// workspace for workspace/symbol.
	workspaceIndex *workspace.SymbolIndex
	indexer        *workspace.Indexer
	loader         *workspace.FileLoader
	resources      *workspace.ResourceResolver

	inflight  *Inflight
	debouncer *Debouncer
	logger    zerolog.Logger

	// mu protects the fields below.
	mu                 sync.RWMutex
	config             *Config
	parser             parser.Parser
	workspaceFolders   []string
	clientCapabilities *protocol.ClientCapabilities
	shuttingDown       bool
}

// Option customizes a Server.
type Option func(*Server)

// WithParser replaces the parser built from Config.ParserCommand.
func WithParser(p parser.Parser) Option {
	return func(s *Server) { s.parser = p }
}

// WithLibraries replaces the libspec manager built from the configuration.
func WithLibraries(m *libspec.Manager) Option {
	return func(s *Server) { s.libraries = m }
}

// New creates a new LSP server instance. A nil cfg means DefaultConfig.
func New(cfg *Config, logger zerolog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		documents: NewDocumentStore(),
		inflight:  NewInflight(),
		debouncer: NewDebouncer(cfg.DiagnosticsDelay()),
		logger:    logger,
		config:    cfg.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.parser == nil {
		s.parser = parser.NewCommand(cfg.ParserCommand, logger.With().Str("component", "parser").Logger())
	}
	if s.libraries == nil {
		s.libraries = libspec.NewManager(libspec.Options{
			Dirs:     cfg.LibspecDirs,
			CacheDir: cfg.CacheDir,
			Logger:   logger,
		})
	}

	wsLogger := logger.With().Str("component", "workspace").Logger()
	s.workspaceIndex = workspace.NewSymbolIndex(wsLogger)
	s.loader = workspace.NewFileLoader(s.parser, wsLogger)
	s.indexer = workspace.NewIndexer(s.workspaceIndex, s.loader, wsLogger)
	s.indexer.Skip = s.documents.IsOpen
	s.resources = workspace.NewResourceResolver(s.documents, s.loader, s.GetWorkspaceFolders, wsLogger)

	return s
}

// Logger returns the server logger.
func (s *Server) Logger() *zerolog.Logger {
	return &s.logger
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down and cancels running
// analysis passes.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()

	s.inflight.CancelAll()
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// WorkspaceIndex returns the workspace-wide symbol index.
func (s *Server) WorkspaceIndex() *workspace.SymbolIndex {
	return s.workspaceIndex
}

// Libraries returns the libspec manager.
func (s *Server) Libraries() *libspec.Manager {
	return s.libraries
}

// Inflight returns the registry of running analysis passes.
func (s *Server) Inflight() *Inflight {
	return s.inflight
}

// Debouncer returns the per-document diagnostics debouncer.
func (s *Server) Debouncer() *Debouncer {
	return s.debouncer
}

// Parser returns the parser used for new documents.
func (s *Server) Parser() parser.Parser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parser
}

// Analyzer returns an analyzer set up with the current configuration.
func (s *Server) Analyzer() *analysis.Analyzer {
	return &analysis.Analyzer{
		Libraries:   s.libraries,
		Resources:   s.resources,
		MaxProblems: s.Config().MaxProblems,
		Logger:      s.logger,
	}
}

// Config returns a copy of the server configuration.
func (s *Server) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// UpdateConfig applies update to a copy of the configuration and, if the
// result is valid, installs it and reconfigures the components it affects.
// It reports whether the libspec directories changed, in which case the
// caller should refresh the libraries.
func (s *Server) UpdateConfig(update func(*Config)) (librariesChanged bool, err error) {
	s.mu.Lock()
	next := s.config.Clone()
	update(next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	prev := s.config
	s.config = next
	parserChanged := next.ParserCommand != prev.ParserCommand
	if parserChanged {
		s.parser = parser.NewCommand(next.ParserCommand, s.logger.With().Str("component", "parser").Logger())
	}
	p := s.parser
	s.mu.Unlock()

	if parserChanged {
		s.loader.SetParser(p)
		s.documents.Reparse(p)
	}
	s.debouncer.SetDelay(next.DiagnosticsDelay())

	librariesChanged = !slices.Equal(prev.LibspecDirs, next.LibspecDirs)
	if librariesChanged {
		s.libraries.SetDirs(next.LibspecDirs)
	}

	s.logger.Info().
		Int("maxProblems", next.MaxProblems).
		Str("trace", next.Trace).
		Strs("libspecDirs", next.LibspecDirs).
		Bool("parserChanged", parserChanged).
		Msg("configuration updated")
	return librariesChanged, nil
}

// RefreshLibraries re-indexes the libspec directories.
func (s *Server) RefreshLibraries(ctx context.Context) error {
	return s.libraries.Refresh(ctx)
}

// IndexWorkspace indexes the Robot Framework files of the workspace folders.
func (s *Server) IndexWorkspace(ctx context.Context) (int, error) {
	return s.indexer.BuildWorkspaceIndex(ctx, s.GetWorkspaceFolders())
}

// ReindexWorkspace drops the workspace index and the cached resource files
// and indexes the workspace folders again. Open documents are re-indexed by
// their next analysis.
func (s *Server) ReindexWorkspace(ctx context.Context) (int, error) {
	s.workspaceIndex.Clear()
	s.loader.Clear()
	return s.IndexWorkspace(ctx)
}

// FileChanged refreshes a file created, changed or deleted outside the
// editor. Open documents are left alone.
func (s *Server) FileChanged(ctx context.Context, uri string, deleted bool) {
	s.loader.Invalidate(uri)
	if s.documents.IsOpen(uri) {
		return
	}
	if deleted {
		s.workspaceIndex.RemoveFile(uri)
		return
	}

	path, err := util.URIToPath(uri)
	if err != nil || !workspace.IsRobotFile(path) {
		return
	}
	if _, err := s.indexer.IndexFile(ctx, path); err != nil {
		s.logger.Debug().Err(err).Str("uri", uri).Msg("re-indexing changed file failed")
	}
}

// SetWorkspaceFolders sets the workspace folder paths.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceFolders = slices.Clone(folders)
}

// GetWorkspaceFolders returns the workspace folder paths.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.workspaceFolders)
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// SupportsHierarchicalSymbols reports whether the client accepts
// DocumentSymbol results.
func (s *Server) SupportsHierarchicalSymbols() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.clientCapabilities
	if c == nil || c.TextDocument == nil || c.TextDocument.DocumentSymbol == nil {
		return false
	}
	support := c.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport
	return support != nil && *support
}

// OpenDocument stores a newly opened document.
func (s *Server) OpenDocument(uri, languageID string, version int32, text string) *Document {
	doc := NewDocument(uri, languageID, version, text, s.Parser())
	s.documents.Set(doc)
	s.loader.Invalidate(uri)
	return doc
}

// CloseDocument forgets an open document and any pending work for it. The
// file's definitions stay indexed from disk.
func (s *Server) CloseDocument(ctx context.Context, uri string, path string) {
	s.debouncer.Forget(uri)
	s.inflight.Cancel(uri)
	s.documents.Delete(uri)
	if path != "" {
		if _, err := s.indexer.IndexFile(ctx, path); err != nil {
			s.logger.Debug().Err(err).Str("uri", uri).Msg("re-indexing closed document failed")
		}
	} else {
		s.workspaceIndex.RemoveFile(uri)
	}
}

// Diagnose analyzes the current version of uri, cancelling a pass still
// running for an older version, and refreshes the document's entries in
// the workspace index. The returned document is the analyzed version.
func (s *Server) Diagnose(ctx context.Context, uri string) (*Document, []analysis.Diagnostic, error) {
	doc, ok := s.documents.Get(uri)
	if !ok {
		return nil, nil, nil
	}

	ctx, done := s.inflight.Begin(ctx, uri)
	defer done()

	root, err := doc.Parse(ctx)
	if err != nil {
		return doc, nil, err
	}
	if err := s.indexer.IndexDocument(ctx, uri, doc.Version(), root); err != nil {
		return doc, nil, err
	}

	diagnostics, err := s.Analyzer().Analyze(ctx, doc)
	return doc, diagnostics, err
}
