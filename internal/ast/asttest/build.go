// Package asttest builds syntax trees for tests, laying tokens out the way the
// parser would for a file using four-space separators.
package asttest

import (
	"unicode/utf8"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// Tok is a token type and value pair, positioned by Stmt.
type Tok struct {
	Type  ast.TokenType
	Value string
}

// T is shorthand for a Tok literal.
func T(typ ast.TokenType, value string) Tok {
	return Tok{Type: typ, Value: value}
}

const separator = 4

// Stmt builds a statement on the given 1-based line whose first token starts
// at column indent.
func Stmt(kind ast.Kind, line, indent int, toks ...Tok) *ast.Node {
	n := &ast.Node{Kind: kind, Line: line, Col: indent, EndLine: line, EndCol: indent}
	col := indent
	for i, tok := range toks {
		if i > 0 {
			n.Tokens = append(n.Tokens, ast.Token{
				Type: ast.TokenSeparator, Value: "    ", Line: line, Col: col, EndCol: col + separator,
			})
			col += separator
		}
		end := col + utf8.RuneCountInString(tok.Value)
		n.Tokens = append(n.Tokens, ast.Token{Type: tok.Type, Value: tok.Value, Line: line, Col: col, EndCol: end})
		col = end
	}
	n.Tokens = append(n.Tokens, ast.Token{Type: ast.TokenEOL, Value: "\n", Line: line, Col: col, EndCol: col + 1})
	n.EndCol = col
	return n
}

// KeywordCall builds an indented keyword call.
func KeywordCall(line int, name string, args ...string) *ast.Node {
	toks := []Tok{T(ast.TokenKeyword, name)}
	for _, a := range args {
		toks = append(toks, T(ast.TokenArgument, a))
	}
	return Stmt(ast.KindKeywordCall, line, 4, toks...)
}

// Fixture builds an indented [Setup]-style fixture of the given kind.
func Fixture(kind ast.Kind, line int, name string) *ast.Node {
	return Stmt(kind, line, 4, T(ast.TokenName, name))
}

// LibraryImport builds a Library setting. A non-empty alias adds WITH NAME.
func LibraryImport(line int, name, alias string, args ...string) *ast.Node {
	toks := []Tok{T(ast.TokenLibrary, "Library")}
	if name != "" {
		toks = append(toks, T(ast.TokenName, name))
	}
	for _, a := range args {
		toks = append(toks, T(ast.TokenArgument, a))
	}
	if alias != "" {
		toks = append(toks, T(ast.TokenWithName, "WITH NAME"), T(ast.TokenName, alias))
	}
	return Stmt(ast.KindLibraryImport, line, 0, toks...)
}

// ResourceImport builds a Resource setting.
func ResourceImport(line int, name string) *ast.Node {
	toks := []Tok{T(ast.TokenResource, "Resource")}
	if name != "" {
		toks = append(toks, T(ast.TokenName, name))
	}
	return Stmt(ast.KindResourceImport, line, 0, toks...)
}

// EmptyLine builds a blank line.
func EmptyLine(line int) *ast.Node {
	return &ast.Node{
		Kind: ast.KindEmptyLine, Line: line, EndLine: line,
		Tokens: []ast.Token{{Type: ast.TokenEOL, Value: "\n", Line: line}},
	}
}

// Comment builds an indented comment line.
func Comment(line int, text string) *ast.Node {
	return Stmt(ast.KindComment, line, 4, T(ast.TokenComment, text))
}

// ForHeader builds a FOR header. An empty flavor omits the separator.
func ForHeader(line int, vars []string, flavor string, values ...string) *ast.Node {
	toks := []Tok{T(ast.TokenFor, "FOR")}
	for _, v := range vars {
		toks = append(toks, T(ast.TokenVariable, v))
	}
	if flavor != "" {
		toks = append(toks, T(ast.TokenForSeparator, flavor))
	}
	for _, v := range values {
		toks = append(toks, T(ast.TokenArgument, v))
	}
	return Stmt(ast.KindForHeader, line, 4, toks...)
}

// IfHeader builds an IF header with an optional condition.
func IfHeader(line int, condition ...string) *ast.Node {
	return Stmt(ast.KindIfHeader, line, 4, withArgs(T(ast.TokenIf, "IF"), condition)...)
}

// ElseIfHeader builds an ELSE IF header with an optional condition.
func ElseIfHeader(line int, condition ...string) *ast.Node {
	return Stmt(ast.KindElseIfHeader, line, 4, withArgs(T(ast.TokenElseIf, "ELSE IF"), condition)...)
}

// ElseHeader builds an ELSE header; any condition given is invalid.
func ElseHeader(line int, condition ...string) *ast.Node {
	return Stmt(ast.KindElseHeader, line, 4, withArgs(T(ast.TokenElse, "ELSE"), condition)...)
}

// End builds an END marker.
func End(line int) *ast.Node {
	return Stmt(ast.KindEnd, line, 4, T(ast.TokenEnd, "END"))
}

// Block builds a block of the given kind and fills in its position.
func Block(kind ast.Kind, header *ast.Node, body []*ast.Node, orElse, end *ast.Node) *ast.Node {
	n := &ast.Node{Kind: kind, Header: header, Body: body, OrElse: orElse, End: end}
	span(n)
	return n
}

// Section builds a section with a header line.
func Section(kind ast.Kind, line int, title string, body ...*ast.Node) *ast.Node {
	header := Stmt(ast.KindSectionHeader, line, 0, T(ast.TokenType("HEADER"), title))
	return Block(kind, header, body, nil, nil)
}

// TestCase builds a test case block.
func TestCase(line int, name string, body ...*ast.Node) *ast.Node {
	header := Stmt(ast.KindTestCaseName, line, 0, T(ast.TokenTestCaseName, name))
	return Block(ast.KindTestCase, header, body, nil, nil)
}

// Keyword builds a user keyword block.
func Keyword(line int, name string, body ...*ast.Node) *ast.Node {
	header := Stmt(ast.KindKeywordName, line, 0, T(ast.TokenKeywordName, name))
	return Block(ast.KindKeyword, header, body, nil, nil)
}

// Arguments builds an [Arguments] setting of a user keyword.
func Arguments(line int, args ...string) *ast.Node {
	return Stmt(ast.KindArguments, line, 4, withArgs(T(ast.TokenArguments, "[Arguments]"), args)...)
}

// Documentation builds a [Documentation] setting.
func Documentation(line int, text string) *ast.Node {
	return Stmt(ast.KindDocumentation, line, 4, T(ast.TokenDocumentation, "[Documentation]"), T(ast.TokenArgument, text))
}

// File wraps sections into a file node.
func File(sections ...*ast.Node) *ast.Node {
	return Block(ast.KindFile, nil, sections, nil, nil)
}

func withArgs(first Tok, args []string) []Tok {
	toks := []Tok{first}
	for _, a := range args {
		toks = append(toks, T(ast.TokenArgument, a))
	}
	return toks
}

func span(n *ast.Node) {
	var first, last *ast.Node
	n.EachChild(func(child *ast.Node) {
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
