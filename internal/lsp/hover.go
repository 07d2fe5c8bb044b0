package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/document"
	"github.com/CWBudde/go-robot-lsp/internal/server"
)

// Hover handles the textDocument/hover request.
// Hovering a keyword name shows the documentation of its definition.
func Hover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	srv := currentServer(protocol.MethodTextDocumentHover)
	if srv == nil {
		return nil, nil
	}

	target, ok := keywordAt(srv, params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}

	r := toProtocolRange(target.lines, target.usage.Range())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: keywordMarkdown(target.keyword),
		},
		Range: &r,
	}, nil
}

// keywordTarget is a resolved keyword reference under the cursor.
type keywordTarget struct {
	doc     *server.Document
	lines   *document.Lines
	usage   analysis.KeywordUsage
	keyword *analysis.KeywordDescriptor
}

// keywordAt resolves the keyword reference at pos in an open document.
func keywordAt(srv *server.Server, uri string, pos protocol.Position) (keywordTarget, bool) {
	logger := srv.Logger().With().Str("uri", uri).Uint32("line", pos.Line).Uint32("character", pos.Character).Logger()

	doc, root, ok := openAST(srv, uri)
	if !ok {
		return keywordTarget{}, false
	}
	lines := document.NewLines(doc.Text())

	ctx := context.Background()
	usage, found, err := analysis.KeywordUsageAt(ctx, root, fromProtocolPosition(lines, pos))
	if err != nil || !found {
		return keywordTarget{}, false
	}

	keyword, err := srv.Analyzer().ResolveKeyword(ctx, doc, usage)
	if err != nil {
		logger.Debug().Err(err).Msg("resolving keyword failed")
		return keywordTarget{}, false
	}
	if keyword == nil {
		logger.Trace().Str("keyword", usage.Name).Msg("keyword not found")
		return keywordTarget{}, false
	}
	return keywordTarget{doc: doc, lines: lines, usage: usage, keyword: keyword}, true
}

// openAST returns an open document with its syntax tree.
func openAST(srv *server.Server, uri string) (*server.Document, *ast.Node, bool) {
	doc, exists := srv.Documents().Get(uri)
	if !exists {
		srv.Logger().Debug().Str("uri", uri).Msg("document not open")
		return nil, nil, false
	}
	root, err := doc.AST()
	if err != nil {
		srv.Logger().Debug().Err(err).Str("uri", uri).Msg("no syntax tree")
		return nil, nil, false
	}
	return doc, root, true
}

func keywordMarkdown(kw *analysis.KeywordDescriptor) string {
	args := make([]string, len(kw.Args))
	for i, arg := range kw.Args {
		args[i] = arg.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", kw.FullName())
	if len(args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}
	if doc := strings.TrimSpace(kw.Doc); doc != "" {
		b.WriteString("\n\n")
		b.WriteString(doc)
	}
	return b.String()
}
