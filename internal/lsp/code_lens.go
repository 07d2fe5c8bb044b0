package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/document"
)

// CodeLens handles the textDocument/codeLens request with Run and Debug
// lenses for the suite and each of its test cases.
func CodeLens(context *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	srv := currentServer(protocol.MethodTextDocumentCodeLens)
	if srv == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	doc, root, ok := openAST(srv, uri)
	if !ok {
		return nil, nil
	}
	lenses, err := codeLenses(root, uri)
	if err != nil {
		return nil, nil
	}

	lines := document.NewLines(doc.Text())
	out := make([]protocol.CodeLens, len(lenses))
	for i, l := range lenses {
		out[i] = protocol.CodeLens{
			Range: toProtocolRange(lines, l.Range),
			Command: &protocol.Command{
				Title:     l.Title,
				Command:   l.Command,
				Arguments: l.Arguments,
			},
		}
	}
	return out, nil
}

func codeLenses(root *ast.Node, uri string) ([]analysis.CodeLens, error) {
	return analysis.CodeLenses(context.Background(), root, uri)
}
