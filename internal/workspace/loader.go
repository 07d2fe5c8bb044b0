package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// FileDocument is a document read from disk. It implements
// analysis.Document.
type FileDocument struct {
	uri     string
	modTime time.Time
	size    int64
	root    *ast.Node
	err     error
}

// URI returns the document URI.
func (d *FileDocument) URI() string { return d.uri }

// AST returns the syntax tree parsed when the file was loaded.
func (d *FileDocument) AST() (*ast.Node, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.root, nil
}

// FileLoader parses files that are not open in the editor. Parsed files are
// kept until their modification time or size changes.
type FileLoader struct {
	mu     sync.RWMutex
	parser parser.Parser
	cache  cmap.ConcurrentMap[string, *FileDocument]
	logger zerolog.Logger
}

// NewFileLoader creates a loader parsing with p.
func NewFileLoader(p parser.Parser, logger zerolog.Logger) *FileLoader {
	return &FileLoader{
		parser: p,
		cache:  cmap.New[*FileDocument](),
		logger: logger,
	}
}

// Load returns the document at path. A file that exists but fails to parse
// still yields a document, whose AST reports the failure. The error result is
// reserved for unreadable files and cancellation.
func (l *FileLoader) Load(ctx context.Context, path string) (*FileDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	uri := util.PathToURI(path)
	if cached, ok := l.cache.Get(uri); ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	l.mu.RLock()
	p := l.parser
	l.mu.RUnlock()

	doc := &FileDocument{uri: uri, modTime: info.ModTime(), size: info.Size()}
	doc.root, doc.err = p.Parse(ctx, uri, string(content))
	if errors.Is(doc.err, ast.ErrCancelled) {
		return nil, doc.err
	}
	if doc.err != nil {
		l.logger.Debug().Err(doc.err).Str("uri", uri).Msg("file has no syntax tree")
	}

	l.cache.Set(uri, doc)
	return doc, nil
}

// Invalidate drops the cached parse of uri.
func (l *FileLoader) Invalidate(uri string) {
	l.cache.Remove(uri)
}

// Clear drops every cached parse, for instance after the parser changed.
func (l *FileLoader) Clear() {
	l.cache.Clear()
}

// SetParser replaces the parser and clears the cache.
func (l *FileLoader) SetParser(p parser.Parser) {
	l.mu.Lock()
	l.parser = p
	l.mu.Unlock()
	l.Clear()
}

// Len returns the number of cached documents.
func (l *FileLoader) Len() int {
	return l.cache.Count()
}
