package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// KeywordUsage is a reference to a keyword: a keyword call, a fixture or a
// template.
type KeywordUsage struct {
	Name  string
	Token ast.Token
	Node  *ast.Node
}

// IsReserved reports whether the usage names a control structure marker
// instead of a keyword.
func (u KeywordUsage) IsReserved() bool {
	return util.IsReserved(u.Name)
}

// Range is the position of the keyword name.
func (u KeywordUsage) Range() Range {
	return tokenRange(u.Token, u.Token)
}

// KeywordUsages lists the keyword references in root in source order.
// Fixtures and templates set to NONE and names that are a single variable
// are not references.
func KeywordUsages(ctx context.Context, root *ast.Node) ([]KeywordUsage, error) {
	var usages []KeywordUsage

	addNamed := func(n *ast.Node, typ ast.TokenType) {
		tok, ok := n.FirstToken(typ)
		if !ok || tok.Value == "" || util.IsVariable(tok.Value) {
			return
		}
		usages = append(usages, KeywordUsage{Name: tok.Value, Token: tok, Node: n})
	}
	fixture := func(v *ast.Visitor, n *ast.Node) {
		if strings.EqualFold(n.Value(ast.TokenName), "NONE") {
			return
		}
		addNamed(n, ast.TokenName)
	}

	err := ast.NewVisitor(ctx).
		On(ast.KindCommentSection, ast.Skip).
		On(ast.KindKeywordCall, func(v *ast.Visitor, n *ast.Node) { addNamed(n, ast.TokenKeyword) }).
		On(ast.KindFixture, fixture).
		On(ast.KindTemplate, fixture).
		On(ast.KindTestTemplate, fixture).
		Walk(root)
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// KeywordUsageAt returns the keyword reference covering the 0-based
// position, if any.
func KeywordUsageAt(ctx context.Context, root *ast.Node, pos Position) (KeywordUsage, bool, error) {
	usages, err := KeywordUsages(ctx, root)
	if err != nil {
		return KeywordUsage{}, false, err
	}
	for _, u := range usages {
		if u.Token.Contains(pos.Line+1, pos.Character) {
			return u, true, nil
		}
	}
	return KeywordUsage{}, false, nil
}

// checkKeywordUsages reports reserved words used as keywords, undefined
// keywords and ambiguous keywords.
func checkKeywordUsages(ctx context.Context, root *ast.Node, catalog *Catalog, problems *bag) error {
	usages, err := KeywordUsages(ctx, root)
	if err != nil {
		return err
	}

	for _, u := range usages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		var msg string
		switch {
		case u.IsReserved():
			msg = fmt.Sprintf("'%s' is a reserved keyword.", u.Name)
		case !catalog.Contains(u.Name):
			msg = fmt.Sprintf("Undefined keyword: %s.", u.Name)
		default:
			multi := catalog.MultipleDefinitions(u.Name)
			if multi == nil {
				continue
			}
			msg = ambiguityMessage(u.Name, multi)
		}

		if !problems.errorAt(u.Range(), msg) {
			break
		}
	}
	return nil
}

func ambiguityMessage(name string, candidates []*KeywordDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple keywords with name '%s' found. Give the full name of the keyword you want to use:", name)
	for _, kw := range candidates {
		b.WriteString("\n    ")
		b.WriteString(kw.FullName())
	}
	return b.String()
}
