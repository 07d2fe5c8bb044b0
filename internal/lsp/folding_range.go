package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/document"
)

// FoldingRange handles the textDocument/foldingRange request: sections,
// test cases, keywords, FOR loops and IF blocks fold.
func FoldingRange(context *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	srv := currentServer(protocol.MethodTextDocumentFoldingRange)
	if srv == nil {
		return nil, nil
	}

	doc, root, ok := openAST(srv, params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	ranges, err := foldingRanges(root)
	if err != nil {
		return nil, nil
	}

	lines := document.NewLines(doc.Text())
	out := make([]protocol.FoldingRange, len(ranges))
	for i, r := range ranges {
		start := toProtocolPosition(lines, analysis.Position{Line: r.StartLine, Character: r.StartCharacter})
		end := toProtocolPosition(lines, analysis.Position{Line: r.EndLine, Character: r.EndCharacter})
		kind := r.Kind
		out[i] = protocol.FoldingRange{
			StartLine:      start.Line,
			StartCharacter: &start.Character,
			EndLine:        end.Line,
			EndCharacter:   &end.Character,
			Kind:           &kind,
		}
	}
	return out, nil
}

func foldingRanges(root *ast.Node) ([]analysis.FoldingRange, error) {
	return analysis.FoldingRanges(context.Background(), root)
}
