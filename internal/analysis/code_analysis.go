package analysis

import (
	"context"
	"fmt"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// structureChecker validates FOR and IF blocks and the Library and Resource
// imports of a document.
type structureChecker struct {
	analyzer *Analyzer
	ctx      context.Context
	doc      Document
	problems *bag
}

func (a *Analyzer) checkStructure(ctx context.Context, doc Document, root *ast.Node, problems *bag) error {
	c := &structureChecker{analyzer: a, ctx: ctx, doc: doc, problems: problems}

	v := ast.NewVisitor(ctx).
		On(ast.KindForHeader, c.visitForHeader).
		On(ast.KindForLoop, c.visitForLoop).
		On(ast.KindIf, c.visitIf).
		On(ast.KindIfHeader, c.visitIfHeader).
		On(ast.KindElseIfHeader, c.visitElseIfHeader).
		On(ast.KindElseHeader, c.visitElseHeader).
		On(ast.KindLibraryImport, c.visitLibraryImport).
		On(ast.KindResourceImport, c.visitResourceImport)

	return v.Walk(root)
}

// report records a problem and stops the walk once the limit is reached.
func (c *structureChecker) report(v *ast.Visitor, d Diagnostic) {
	if !c.problems.add(d) {
		v.Stop()
	}
}

func (c *structureChecker) errorAt(v *ast.Visitor, r Range, msg string) {
	c.report(v, Diagnostic{Message: msg, Severity: SeverityError, Range: r})
}

func (c *structureChecker) visitForHeader(v *ast.Visitor, n *ast.Node) {
	variables := n.TokensOf(ast.TokenVariable)
	if len(variables) == 0 {
		c.errorAt(v, nodeRange(n), "FOR loop has no loop variables.")
	}
	for _, tok := range variables {
		if !util.IsScalarAssign(tok.Value) {
			c.errorAt(v, tokenRange(tok, tok), fmt.Sprintf("Invalid loop variable %s.", tok.Value))
		}
	}

	if _, ok := n.FirstToken(ast.TokenForSeparator); !ok {
		c.errorAt(v, nodeRange(n), "FOR loop has no 'IN' or other valid separator.")
	} else if len(n.TokensOf(ast.TokenArgument)) == 0 {
		c.errorAt(v, nodeRange(n), "FOR loop has no loop values.")
	}
}

func (c *structureChecker) visitForLoop(v *ast.Visitor, n *ast.Node) {
	anchor := headerOrSelf(n)
	if isEmptyBody(n.Body) {
		c.errorAt(v, nodeRange(anchor), "FOR loop has empty body.")
	}
	if n.End == nil {
		c.errorAt(v, nodeRange(anchor), "FOR loop has no closing 'END'.")
	}
	v.Generic(n)
}

func (c *structureChecker) visitIfHeader(v *ast.Visitor, n *ast.Node) {
	if n.Condition() == "" {
		c.errorAt(v, nodeRange(n), "IF has no condition.")
	}
}

func (c *structureChecker) visitElseIfHeader(v *ast.Visitor, n *ast.Node) {
	if n.Condition() == "" {
		c.errorAt(v, nodeRange(n), "ELSE IF has no condition.")
	}
}

func (c *structureChecker) visitElseHeader(v *ast.Visitor, n *ast.Node) {
	if n.Condition() != "" {
		c.errorAt(v, nodeRange(n), "ELSE has condition.")
	}
}

func (c *structureChecker) visitLibraryImport(v *ast.Visitor, n *ast.Node) {
	name := n.LibraryName()
	if name == "" {
		c.errorAt(v, nodeRange(n), "Library setting requires value.")
		return
	}

	nameRange := nameTokenRange(n)
	resolver := c.analyzer.Libraries
	if resolver == nil {
		return
	}

	lib, ok := resolver.ResolveLibrary(name, n.LibraryArgs(), n.LibraryAlias(), c.doc.URI())
	if !ok {
		c.errorAt(v, nameRange, fmt.Sprintf("Importing test library '%s' failed.", name))
		if msg := resolver.LibraryError(name); msg != "" {
			c.report(v, Diagnostic{Message: msg, Severity: SeverityError, Range: nameRange, Source: SourceLibspec})
		}
		return
	}

	if len(lib.Keywords) == 0 {
		c.report(v, Diagnostic{
			Message:  fmt.Sprintf("Imported library '%s' contains no keywords.", name),
			Severity: SeverityWarning,
			Range:    nameRange,
		})
	}
	if msg := resolver.LibraryWarning(name); msg != "" {
		c.report(v, Diagnostic{Message: msg, Severity: SeverityHint, Range: nameRange, Source: SourceLibspec})
	}
}

func (c *structureChecker) visitResourceImport(v *ast.Visitor, n *ast.Node) {
	name := n.ResourceName()
	if name == "" {
		c.errorAt(v, nodeRange(n), "Resource setting requires value.")
		return
	}

	resolver := c.analyzer.Resources
	if resolver == nil {
		return
	}
	if _, ok := resolver.ResolveResource(c.ctx, c.doc, n); !ok {
		c.errorAt(v, nameTokenRange(n), fmt.Sprintf("Resource file '%s' does not exist.", name))
	}
}

func nameTokenRange(n *ast.Node) Range {
	if tok, ok := n.FirstToken(ast.TokenName); ok {
		return tokenRange(tok, tok)
	}
	return nodeRange(n)
}

func headerOrSelf(n *ast.Node) *ast.Node {
	if n.Header != nil {
		return n.Header
	}
	return n
}

// isEmptyBody reports whether body holds nothing but blank lines, comments
// and placeholders.
func isEmptyBody(body []*ast.Node) bool {
	for _, child := range body {
		if child == nil || child.IsPlaceholder() {
			continue
		}
		switch child.Kind {
		case ast.KindEmptyLine, ast.KindComment:
			continue
		}
		return false
	}
	return true
}
