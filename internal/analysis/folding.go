package analysis

import (
	"context"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// Folding range kinds.
const (
	FoldSection  = "section"
	FoldComment  = "comment"
	FoldTestCase = "testcase"
	FoldKeyword  = "keyword"
	FoldForLoop  = "for_loop"
	FoldIfBlock  = "if_block"
)

// FoldingRange is a foldable region. Lines and columns are 0-based.
type FoldingRange struct {
	StartLine      int
	StartCharacter int
	EndLine        int
	EndCharacter   int
	Kind           string
}

// FoldingRanges returns a range for every section, test case, keyword, FOR
// loop and IF block of root, outermost first.
func FoldingRanges(ctx context.Context, root *ast.Node) ([]FoldingRange, error) {
	ranges := []FoldingRange{}

	fold := func(kind string) ast.Handler {
		return func(v *ast.Visitor, n *ast.Node) {
			ranges = append(ranges, FoldingRange{
				StartLine:      n.Line - 1,
				StartCharacter: n.Col,
				EndLine:        n.EndLine - 1,
				EndCharacter:   n.EndCol,
				Kind:           kind,
			})
			v.Generic(n)
		}
	}

	err := ast.NewVisitor(ctx).
		On(ast.KindSection, fold(FoldSection)).
		On(ast.KindCommentSection, fold(FoldComment)).
		On(ast.KindTestCase, fold(FoldTestCase)).
		On(ast.KindKeyword, fold(FoldKeyword)).
		On(ast.KindForLoop, fold(FoldForLoop)).
		On(ast.KindIf, fold(FoldIfBlock)).
		Walk(root)
	if err != nil {
		return nil, err
	}
	return ranges, nil
}
