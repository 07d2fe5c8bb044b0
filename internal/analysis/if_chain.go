package analysis

import (
	"fmt"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// ifBranch is one IF, ELSE IF or ELSE branch with its statements.
type ifBranch struct {
	header *ast.Node
	body   []*ast.Node
}

func (b ifBranch) kind() ast.Kind {
	if b.header == nil {
		return ast.KindIfHeader
	}
	return b.header.Kind
}

func (b ifBranch) label() string {
	switch b.kind() {
	case ast.KindElseIfHeader:
		return "ELSE IF"
	case ast.KindElseHeader:
		return "ELSE"
	}
	return "IF"
}

// ifBranches flattens an IF block into its branches in source order. The
// ELSE IF and ELSE branches are either nested through OrElse or, with older
// parsers, appear as headers inside the body of the IF.
func ifBranches(n *ast.Node) []ifBranch {
	var branches []ifBranch
	for block := n; block != nil; block = block.OrElse {
		current := ifBranch{header: block.Header}
		for _, child := range block.Body {
			if child.Kind == ast.KindElseIfHeader || child.Kind == ast.KindElseHeader {
				branches = append(branches, current)
				current = ifBranch{header: child}
				continue
			}
			current.body = append(current.body, child)
		}
		branches = append(branches, current)
	}
	return branches
}

func (c *structureChecker) visitIf(v *ast.Visitor, n *ast.Node) {
	anchor := headerOrSelf(n)
	branches := ifBranches(n)

	var elses []ifBranch
	for _, b := range branches {
		at := anchor
		if b.header != nil {
			at = b.header
		}
		if isEmptyBody(b.body) {
			c.errorAt(v, nodeRange(at), fmt.Sprintf("%s has empty branch.", b.label()))
		}
		switch b.kind() {
		case ast.KindElseIfHeader:
			if len(elses) > 0 {
				c.errorAt(v, nodeRange(at), "'ELSE IF' after 'ELSE'.")
			}
		case ast.KindElseHeader:
			elses = append(elses, b)
		}
	}
	if len(elses) > 1 {
		for _, b := range elses {
			c.errorAt(v, nodeRange(b.header), "Multiple 'ELSE' branches.")
		}
	}

	if n.End == nil {
		c.errorAt(v, nodeRange(anchor), "IF has no closing 'END'.")
	}

	c.visitIfChildren(v, n)
}

// visitIfChildren visits the headers and statements of every branch without
// running the chain checks again for the nested ELSE IF / ELSE blocks.
func (c *structureChecker) visitIfChildren(v *ast.Visitor, n *ast.Node) {
	for block := n; block != nil; block = block.OrElse {
		v.Visit(block.Header)
		for _, child := range block.Body {
			v.Visit(child)
		}
		v.Visit(block.End)
	}
}
