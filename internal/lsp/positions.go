package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/document"
)

// The analysis layer counts columns in code points, the protocol in UTF-16
// code units.

func toProtocolPosition(lines *document.Lines, p analysis.Position) protocol.Position {
	if p.Line < 0 {
		return protocol.Position{}
	}
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(lines.UTF16Column(p.Line, max(p.Character, 0))),
	}
}

func toProtocolRange(lines *document.Lines, r analysis.Range) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(lines, r.Start),
		End:   toProtocolPosition(lines, r.End),
	}
}

func fromProtocolPosition(lines *document.Lines, p protocol.Position) analysis.Position {
	line := int(p.Line)
	return analysis.Position{Line: line, Character: lines.CodePointColumn(line, int(p.Character))}
}
