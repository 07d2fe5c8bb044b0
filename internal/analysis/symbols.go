package analysis

import (
	"context"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// SymbolKind tells test cases and keywords apart.
type SymbolKind int

const (
	SymbolTestCase SymbolKind = iota
	SymbolKeyword
)

// Symbol is a test case or keyword definition.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Range covers the whole definition, SelectionRange its name.
	Range          Range
	SelectionRange Range
}

// DefinedSymbols lists the test cases and keywords of root in source order.
func DefinedSymbols(ctx context.Context, root *ast.Node) ([]Symbol, error) {
	var symbols []Symbol

	add := func(kind SymbolKind) ast.Handler {
		return func(v *ast.Visitor, n *ast.Node) {
			name := n.Name()
			if name == "" || n.Header == nil {
				return
			}
			symbols = append(symbols, Symbol{
				Name: name,
				Kind: kind,
				Range: Range{
					Start: Position{Line: n.Line - 1, Character: n.Col},
					End:   Position{Line: n.EndLine - 1, Character: n.EndCol},
				},
				SelectionRange: nodeRange(n.Header),
			})
		}
	}

	err := ast.NewVisitor(ctx).
		On(ast.KindSettingSection, ast.Skip).
		On(ast.KindVariableSection, ast.Skip).
		On(ast.KindCommentSection, ast.Skip).
		On(ast.KindTestCase, add(SymbolTestCase)).
		On(ast.KindKeyword, add(SymbolKeyword)).
		Walk(root)
	if err != nil {
		return nil, err
	}
	return symbols, nil
}
