package ast

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// The external parser dumps the model as JSON, mirroring the attribute names
// of the parser's own node classes.
type rawToken struct {
	Type         string `json:"type"`
	Value        string `json:"value"`
	Lineno       int    `json:"lineno"`
	ColOffset    int    `json:"col_offset"`
	EndColOffset *int   `json:"end_col_offset"`
}

type rawNode struct {
	Type         string     `json:"type"`
	Lineno       int        `json:"lineno"`
	ColOffset    int        `json:"col_offset"`
	EndLineno    int        `json:"end_lineno"`
	EndColOffset int        `json:"end_col_offset"`
	Tokens       []rawToken `json:"tokens"`
	Header       *rawNode   `json:"header"`
	Body         []*rawNode `json:"body"`
	OrElse       *rawNode   `json:"orelse"`
	End          *rawNode   `json:"end"`
	Error        string     `json:"error"`
}

// Decode builds a tree from the parser's JSON output.
func Decode(data []byte) (*Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode syntax tree: %w", err)
	}
	return convert(&raw, 0)
}

// DecodeReader is Decode for a stream.
func DecodeReader(r io.Reader) (*Node, error) {
	var raw rawNode
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode syntax tree: %w", err)
	}
	return convert(&raw, 0)
}

const maxDepth = 512

func convert(raw *rawNode, depth int) (*Node, error) {
	if raw == nil {
		return nil, nil
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("syntax tree nested deeper than %d levels", maxDepth)
	}

	kind, ok := KindOf(raw.Type)
	if !ok {
		// Unknown node classes still take part in traversal.
		kind = KindStatement
		if raw.Header != nil || len(raw.Body) > 0 {
			kind = KindBlock
		}
	}

	node := &Node{
		Kind:    kind,
		Line:    raw.Lineno,
		Col:     raw.ColOffset,
		EndLine: raw.EndLineno,
		EndCol:  raw.EndColOffset,
		Error:   raw.Error,
	}

	if len(raw.Tokens) > 0 {
		node.Tokens = make([]Token, len(raw.Tokens))
		for i, rt := range raw.Tokens {
			endCol := rt.ColOffset + utf8.RuneCountInString(rt.Value)
			if rt.EndColOffset != nil {
				endCol = *rt.EndColOffset
			}
			node.Tokens[i] = Token{
				Type:   TokenType(rt.Type),
				Value:  rt.Value,
				Line:   rt.Lineno,
				Col:    rt.ColOffset,
				EndCol: endCol,
			}
		}
	}

	var err error
	if node.Header, err = convert(raw.Header, depth+1); err != nil {
		return nil, err
	}
	if len(raw.Body) > 0 {
		node.Body = make([]*Node, 0, len(raw.Body))
		for _, rc := range raw.Body {
			child, err := convert(rc, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				node.Body = append(node.Body, child)
			}
		}
	}
	if node.OrElse, err = convert(raw.OrElse, depth+1); err != nil {
		return nil, err
	}
	if node.End, err = convert(raw.End, depth+1); err != nil {
		return nil, err
	}

	if node.Line == 0 {
		fillPosition(node)
	}

	return node, nil
}

// fillPosition derives a missing position from the node's tokens or children.
func fillPosition(n *Node) {
	if len(n.Tokens) > 0 {
		first, last := n.Tokens[0], n.Tokens[len(n.Tokens)-1]
		n.Line, n.Col = first.Line, first.Col
		n.EndLine, n.EndCol = last.Line, last.EndCol
		return
	}

	var first, last *Node
	n.EachChild(func(child *Node) {
		if first == nil {
			first = child
		}
		last = child
	})
	if first == nil {
		return
	}
	n.Line, n.Col = first.Line, first.Col
	n.EndLine, n.EndCol = last.EndLine, last.EndCol
}
