// Package analysis implements the semantic checks of Robot Framework
// documents: keyword resolution across imports, block structure validation
// and the AST-derived editor features.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/libspec"
)

var (
	// ErrCancelled is returned when the context of an operation is cancelled.
	ErrCancelled = ast.ErrCancelled
	// ErrParseUnavailable is returned when a document has no syntax tree.
	ErrParseUnavailable = ast.ErrParseUnavailable
)

// Document is a parsed source file.
type Document interface {
	URI() string
	// AST returns the current syntax tree or an error wrapping
	// ErrParseUnavailable.
	AST() (*ast.Node, error)
}

// LibraryResolver provides library documentation for Library imports.
type LibraryResolver interface {
	ResolveLibrary(name string, args []string, alias, referencingURI string) (*libspec.LibraryDoc, bool)
	// LibraryError and LibraryWarning return resolver messages recorded for
	// the named library, or "".
	LibraryError(name string) string
	LibraryWarning(name string) string
}

// ResourceResolver locates the document a Resource import refers to.
type ResourceResolver interface {
	ResolveResource(ctx context.Context, from Document, imp *ast.Node) (Document, bool)
}

// Analyzer runs the checks over documents. Its zero value analyzes documents
// without any imports resolved except the built-in library.
// An Analyzer holds no per-document state and may be used concurrently.
type Analyzer struct {
	Libraries   LibraryResolver
	Resources   ResourceResolver
	MaxProblems int
	Logger      zerolog.Logger
}

// Analyze checks doc and returns its diagnostics: structural and import
// problems in tree order, followed by keyword reference problems in source
// order. At most MaxProblems diagnostics are returned.
func (a *Analyzer) Analyze(ctx context.Context, doc Document) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	root, err := documentAST(doc)
	if err != nil {
		return nil, err
	}

	problems := newBag(a.MaxProblems)
	if err := a.checkStructure(ctx, doc, root, problems); err != nil {
		return nil, err
	}

	if !problems.full() {
		catalog, err := a.buildCatalog(ctx, doc, root)
		if err != nil {
			return nil, err
		}
		if err := checkKeywordUsages(ctx, root, catalog, problems); err != nil {
			return nil, err
		}
	}

	a.Logger.Debug().Str("uri", doc.URI()).Int("count", len(problems.items)).Msg("analyzed document")
	return problems.items, nil
}

// ResolveKeyword returns the definition the usage refers to, or nil when it
// is undefined or a reserved word.
func (a *Analyzer) ResolveKeyword(ctx context.Context, doc Document, usage KeywordUsage) (*KeywordDescriptor, error) {
	if usage.IsReserved() {
		return nil, nil
	}
	catalog, err := a.BuildCatalog(ctx, doc)
	if err != nil {
		return nil, err
	}
	return catalog.Find(usage.Name), nil
}

func documentAST(doc Document) (*ast.Node, error) {
	root, err := doc.AST()
	if err != nil {
		if errors.Is(err, ErrParseUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrParseUnavailable, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s has no syntax tree", ErrParseUnavailable, doc.URI())
	}
	return root, nil
}
