package ast

import "strings"

// TokenType is the lexical category the parser assigned to a token.
type TokenType string

const (
	TokenSeparator    TokenType = "SEPARATOR"
	TokenEOL          TokenType = "EOL"
	TokenEOS          TokenType = "EOS"
	TokenContinuation TokenType = "CONTINUATION"
	TokenComment      TokenType = "COMMENT"

	TokenName          TokenType = "NAME"
	TokenArgument      TokenType = "ARGUMENT"
	TokenAssign        TokenType = "ASSIGN"
	TokenKeyword       TokenType = "KEYWORD"
	TokenVariable      TokenType = "VARIABLE"
	TokenWithName      TokenType = "WITH_NAME"
	TokenFor           TokenType = "FOR"
	TokenForSeparator  TokenType = "FOR_SEPARATOR"
	TokenEnd           TokenType = "END"
	TokenIf            TokenType = "IF"
	TokenElseIf        TokenType = "ELSE_IF"
	TokenElse          TokenType = "ELSE"
	TokenLibrary       TokenType = "LIBRARY"
	TokenResource      TokenType = "RESOURCE"
	TokenVariables     TokenType = "VARIABLES"
	TokenTestCaseName  TokenType = "TESTCASE_NAME"
	TokenKeywordName   TokenType = "KEYWORD_NAME"
	TokenArguments     TokenType = "ARGUMENTS"
	TokenDocumentation TokenType = "DOCUMENTATION"
	TokenError         TokenType = "ERROR"
)

var nonDataTokens = map[TokenType]bool{
	TokenSeparator:    true,
	TokenEOL:          true,
	TokenEOS:          true,
	TokenContinuation: true,
	TokenComment:      true,
}

// Token is a single lexical token. Lines are 1-based, columns 0-based, which
// is what the parser emits.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Col    int
	EndCol int
}

// IsData reports whether the token carries data, as opposed to separators,
// line ends and comments.
func (t Token) IsData() bool {
	return !nonDataTokens[t.Type]
}

// Contains reports whether the 1-based line and 0-based column fall on the token.
func (t Token) Contains(line, col int) bool {
	return t.Line == line && col >= t.Col && col <= t.EndCol
}

// Node is an immutable syntax tree node. Blocks carry Body and the optional
// Header/OrElse/End children; statements carry Tokens.
type Node struct {
	Kind    Kind
	Line    int
	Col     int
	EndLine int
	EndCol  int
	Tokens  []Token
	Header  *Node
	Body    []*Node
	OrElse  *Node
	End     *Node
	// Error is the message the parser attached to an invalid statement.
	Error string
}

// IsPlaceholder reports whether the node carries neither tokens nor children.
func (n *Node) IsPlaceholder() bool {
	return len(n.Tokens) == 0 && n.Header == nil && len(n.Body) == 0 && n.OrElse == nil && n.End == nil
}

// EachChild calls fn for each child in declaration order: Header, Body,
// OrElse, End.
func (n *Node) EachChild(fn func(child *Node)) {
	if n.Header != nil {
		fn(n.Header)
	}
	for _, child := range n.Body {
		if child != nil {
			fn(child)
		}
	}
	if n.OrElse != nil {
		fn(n.OrElse)
	}
	if n.End != nil {
		fn(n.End)
	}
}

// FirstToken returns the first token of the given type.
func (n *Node) FirstToken(typ TokenType) (Token, bool) {
	for _, t := range n.Tokens {
		if t.Type == typ {
			return t, true
		}
	}
	return Token{}, false
}

// TokensOf returns every token of the given type, in order.
func (n *Node) TokensOf(typ TokenType) []Token {
	var out []Token
	for _, t := range n.Tokens {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Value returns the value of the first token of the given type, or "".
func (n *Node) Value(typ TokenType) string {
	t, _ := n.FirstToken(typ)
	return t.Value
}

// Values returns the values of all tokens of the given type.
func (n *Node) Values(typ TokenType) []string {
	tokens := n.TokensOf(typ)
	if len(tokens) == 0 {
		return nil
	}
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return values
}

// DataTokens returns the tokens that are not separators, line ends or comments.
func (n *Node) DataTokens() []Token {
	var out []Token
	for _, t := range n.Tokens {
		if t.IsData() {
			out = append(out, t)
		}
	}
	return out
}

// LibraryName is the imported library of a LibraryImport.
func (n *Node) LibraryName() string {
	return n.Value(TokenName)
}

// LibraryArgs are the import arguments of a LibraryImport.
func (n *Node) LibraryArgs() []string {
	return n.Values(TokenArgument)
}

// LibraryAlias is the name given after WITH NAME, or "".
func (n *Node) LibraryAlias() string {
	seenWithName := false
	for _, t := range n.Tokens {
		switch {
		case t.Type == TokenWithName:
			seenWithName = true
		case seenWithName && t.Type == TokenName:
			return t.Value
		}
	}
	return ""
}

// ResourceName is the path given to a ResourceImport.
func (n *Node) ResourceName() string {
	return n.Value(TokenName)
}

// Condition is the expression of an IF / ELSE IF header, or whatever
// arguments an ELSE header was (invalidly) given.
func (n *Node) Condition() string {
	return strings.Join(n.Values(TokenArgument), "    ")
}

// Name returns the name of a test case or keyword block, taken from its header.
func (n *Node) Name() string {
	header := n.Header
	if header == nil {
		return ""
	}
	switch header.Kind {
	case KindTestCaseName:
		return header.Value(TokenTestCaseName)
	case KindKeywordName:
		return header.Value(TokenKeywordName)
	}
	return ""
}
