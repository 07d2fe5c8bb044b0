package analysis

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
)

// DefaultMaxProblems bounds the number of diagnostics reported for one document.
const DefaultMaxProblems = 100

// Source tags attached to diagnostics.
const (
	SourceAnalysis = "robot-lsp"
	SourceLibspec  = "libspec"
)

// Severity uses the LSP numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Position is a 0-based line and column.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic is a problem found in a document.
type Diagnostic struct {
	Message  string
	Severity Severity
	Range    Range
	Source   string
}

// ToProtocol converts the diagnostic to its LSP representation.
func (d Diagnostic) ToProtocol() protocol.Diagnostic {
	severity := protocol.DiagnosticSeverity(d.Severity)
	source := d.Source
	if source == "" {
		source = SourceAnalysis
	}
	return protocol.Diagnostic{
		Range:    d.Range.ToProtocol(),
		Severity: &severity,
		Source:   &source,
		Message:  d.Message,
	}
}

// ToProtocol converts the range to its LSP representation.
func (r Range) ToProtocol() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: clampUInt(r.Start.Line), Character: clampUInt(r.Start.Character)},
		End:   protocol.Position{Line: clampUInt(r.End.Line), Character: clampUInt(r.End.Character)},
	}
}

func clampUInt(v int) protocol.UInteger {
	if v < 0 {
		return 0
	}
	return protocol.UInteger(v)
}

// ToProtocolDiagnostics converts a slice of diagnostics. The result is never nil.
func ToProtocolDiagnostics(diagnostics []Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.ToProtocol()
	}
	return out
}

// bag collects diagnostics up to a fixed limit.
type bag struct {
	items []Diagnostic
	limit int
}

func newBag(limit int) *bag {
	if limit <= 0 || limit > DefaultMaxProblems {
		limit = DefaultMaxProblems
	}
	return &bag{items: []Diagnostic{}, limit: limit}
}

func (b *bag) full() bool {
	return len(b.items) >= b.limit
}

// add appends d unless the bag is full and reports whether there is room
// for more.
func (b *bag) add(d Diagnostic) bool {
	if b.full() {
		return false
	}
	b.items = append(b.items, d)
	return !b.full()
}

func (b *bag) errorAt(r Range, msg string) bool {
	return b.add(Diagnostic{Message: msg, Severity: SeverityError, Range: r})
}

// tokenRange spans from the start of first to the end of last. Token lines
// are 1-based.
func tokenRange(first, last ast.Token) Range {
	return Range{
		Start: Position{Line: first.Line - 1, Character: first.Col},
		End:   Position{Line: last.Line - 1, Character: last.EndCol},
	}
}

// nodeRange spans the data tokens of a statement, or the first to the last
// statement of a block.
func nodeRange(n *ast.Node) Range {
	first, last := firstStatement(n), lastStatement(n)
	if first == nil || last == nil {
		return Range{
			Start: Position{Line: n.Line - 1, Character: n.Col},
			End:   Position{Line: n.EndLine - 1, Character: n.EndCol},
		}
	}

	start, ok := firstDataToken(first)
	if !ok {
		start = first.Tokens[0]
	}
	end, ok := lastDataToken(last)
	if !ok {
		end = last.Tokens[len(last.Tokens)-1]
	}
	return tokenRange(start, end)
}

func firstStatement(n *ast.Node) *ast.Node {
	if len(n.Tokens) > 0 {
		return n
	}
	var found *ast.Node
	n.EachChild(func(child *ast.Node) {
		if found == nil {
			found = firstStatement(child)
		}
	})
	return found
}

func lastStatement(n *ast.Node) *ast.Node {
	if len(n.Tokens) > 0 {
		return n
	}
	var children []*ast.Node
	n.EachChild(func(child *ast.Node) { children = append(children, child) })
	for i := len(children) - 1; i >= 0; i-- {
		if found := lastStatement(children[i]); found != nil {
			return found
		}
	}
	return nil
}

func firstDataToken(n *ast.Node) (ast.Token, bool) {
	for _, t := range n.Tokens {
		if t.IsData() {
			return t, true
		}
	}
	return ast.Token{}, false
}

func lastDataToken(n *ast.Node) (ast.Token, bool) {
	for i := len(n.Tokens) - 1; i >= 0; i-- {
		if n.Tokens[i].IsData() {
			return n.Tokens[i], true
		}
	}
	return ast.Token{}, false
}
