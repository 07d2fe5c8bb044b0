package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// Document is one version of an open document. Its text never changes; an
// edit produces a new Document. The syntax tree is parsed on first use and
// kept for the lifetime of the version.
type Document struct {
	uri        string
	text       string
	version    int32
	languageID string
	parser     parser.Parser

	mu     sync.Mutex
	parsed bool
	root   *ast.Node
	err    error
}

// NewDocument creates a document parsed with p.
func NewDocument(uri, languageID string, version int32, text string, p parser.Parser) *Document {
	return &Document{uri: uri, languageID: languageID, version: version, text: text, parser: p}
}

// WithText returns the next version of d.
func (d *Document) WithText(version int32, text string) *Document {
	return NewDocument(d.uri, d.languageID, version, text, d.parser)
}

// URI returns the document URI.
func (d *Document) URI() string { return d.uri }

// Text returns the full content of this version.
func (d *Document) Text() string { return d.text }

// Version returns the version number assigned by the client.
func (d *Document) Version() int32 { return d.version }

// LanguageID returns the language identifier sent by the client.
func (d *Document) LanguageID() string { return d.languageID }

// Type derives the document type from the file name.
func (d *Document) Type() util.DocumentType { return util.DocumentTypeOf(d.uri) }

// Parse returns the syntax tree of this version, parsing it on first call.
// A cancelled parse is not remembered.
func (d *Document) Parse(ctx context.Context) (*ast.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.parsed {
		return d.root, d.err
	}
	if d.parser == nil {
		return nil, fmt.Errorf("%w: no parser", ast.ErrParseUnavailable)
	}

	root, err := d.parser.Parse(ctx, d.uri, d.text)
	if errors.Is(err, ast.ErrCancelled) {
		return nil, err
	}
	d.root, d.err, d.parsed = root, err, true
	return root, err
}

// AST implements analysis.Document.
func (d *Document) AST() (*ast.Node, error) {
	return d.Parse(context.Background())
}

// DocumentStore manages all open documents.
type DocumentStore struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Set stores or replaces a document.
func (ds *DocumentStore) Set(doc *Document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[doc.uri] = doc
}

// Get retrieves a document by URI.
func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc, ok
}

// OpenDocument returns the open document for uri as an analysis.Document.
func (ds *DocumentStore) OpenDocument(uri string) (analysis.Document, bool) {
	doc, ok := ds.Get(uri)
	if !ok {
		return nil, false
	}
	return doc, true
}

// IsOpen reports whether uri is open in the editor.
func (ds *DocumentStore) IsOpen(uri string) bool {
	_, ok := ds.Get(uri)
	return ok
}

// Delete removes a document from the store.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// List returns all document URIs.
func (ds *DocumentStore) List() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	uris := make([]string, 0, len(ds.documents))
	for uri := range ds.documents {
		uris = append(uris, uri)
	}

	return uris
}

// Reparse replaces every document by an unparsed copy using p, for instance
// after the parser command changed.
func (ds *DocumentStore) Reparse(p parser.Parser) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for uri, doc := range ds.documents {
		ds.documents[uri] = NewDocument(doc.uri, doc.languageID, doc.version, doc.text, p)
	}
}

// Clear removes all documents from the store.
func (ds *DocumentStore) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents = make(map[string]*Document)
}
