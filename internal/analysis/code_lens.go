package analysis

import (
	"context"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// Client commands the code lenses invoke.
const (
	CommandRunTestCase    = "robot.runTestcase"
	CommandDebugTestCase  = "robot.debugTestcase"
	CommandRunTestSuite   = "robot.runTestsuite"
	CommandDebugTestSuite = "robot.debugTestsuite"
)

// CodeLens is a command shown above a line.
type CodeLens struct {
	Range     Range
	Title     string
	Command   string
	Arguments []any
}

// CodeLenses returns Run and Debug lenses for the test case section (the
// whole suite) and for each test case.
func CodeLenses(ctx context.Context, root *ast.Node, uri string) ([]CodeLens, error) {
	lenses := []CodeLens{}

	add := func(header *ast.Node, run, debug string, args ...any) {
		at := Position{Line: header.Line - 1, Character: header.Col}
		r := Range{Start: at, End: at}
		lenses = append(lenses,
			CodeLens{Range: r, Title: "Run", Command: run, Arguments: args},
			CodeLens{Range: r, Title: "Debug", Command: debug, Arguments: args},
		)
	}

	err := ast.NewVisitor(ctx).
		On(ast.KindTestCaseSection, func(v *ast.Visitor, n *ast.Node) {
			if n.Header != nil {
				add(n.Header, CommandRunTestSuite, CommandDebugTestSuite, uri)
			}
			v.Generic(n)
		}).
		On(ast.KindTestCase, func(v *ast.Visitor, n *ast.Node) {
			if n.Header != nil {
				add(n.Header, CommandRunTestCase, CommandDebugTestCase, uri, n.Name())
			}
		}).
		On(ast.KindKeywordSection, ast.Skip).
		Walk(root)
	if err != nil {
		return nil, err
	}
	return lenses, nil
}
