package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/document"
	"github.com/CWBudde/go-robot-lsp/internal/workspace"
)

// DocumentSymbol handles the textDocument/documentSymbol request.
// It lists the test cases and keywords of the document for the outline
// view, as DocumentSymbol when the client supports them and as
// SymbolInformation otherwise.
func DocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	srv := currentServer(protocol.MethodTextDocumentDocumentSymbol)
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	doc, root, ok := openAST(srv, uri)
	if !ok {
		return nil, nil
	}

	symbols, err := definedSymbols(root)
	if err != nil {
		srv.Logger().Debug().Err(err).Str("uri", uri).Msg("collecting document symbols failed")
		return nil, nil
	}
	lines := document.NewLines(doc.Text())

	if srv.SupportsHierarchicalSymbols() {
		out := make([]protocol.DocumentSymbol, len(symbols))
		for i, s := range symbols {
			out[i] = protocol.DocumentSymbol{
				Name:           s.Name,
				Kind:           workspace.SymbolKindOf(s.Kind),
				Range:          toProtocolRange(lines, s.Range),
				SelectionRange: toProtocolRange(lines, s.SelectionRange),
			}
		}
		return out, nil
	}

	out := make([]protocol.SymbolInformation, len(symbols))
	for i, s := range symbols {
		out[i] = protocol.SymbolInformation{
			Name: s.Name,
			Kind: workspace.SymbolKindOf(s.Kind),
			Location: protocol.Location{
				URI:   uri,
				Range: toProtocolRange(lines, s.Range),
			},
		}
	}
	return out, nil
}

func definedSymbols(root *ast.Node) ([]analysis.Symbol, error) {
	return analysis.DefinedSymbols(context.Background(), root)
}
