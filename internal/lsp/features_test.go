package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/document"
)

func docID() protocol.TextDocumentIdentifier {
	return protocol.TextDocumentIdentifier{URI: testDocumentURI}
}

func TestDocumentSymbolFlat(t *testing.T) {
	setupServer(t, testSuiteTree())
	openTestDocument(t, (&recorder{}).context(), testDocumentURI, testSuiteText, 1)

	result, err := DocumentSymbol(nil, &protocol.DocumentSymbolParams{TextDocument: docID()})
	require.NoError(t, err)

	symbols, ok := result.([]protocol.SymbolInformation)
	require.True(t, ok, "got %T", result)
	require.Len(t, symbols, 2)

	assert.Equal(t, "Valid Login", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindMethod, symbols[0].Kind)
	assert.Equal(t, testDocumentURI, symbols[0].Location.URI)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 1, Character: 0},
		End:   protocol.Position{Line: 4, Character: 11},
	}, symbols[0].Location.Range)

	assert.Equal(t, "Greet", symbols[1].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[1].Kind)
}

func TestDocumentSymbolHierarchical(t *testing.T) {
	srv := setupServer(t, testSuiteTree())
	supported := true
	srv.SetClientCapabilities(&protocol.ClientCapabilities{
		TextDocument: &protocol.TextDocumentClientCapabilities{
			DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
				HierarchicalDocumentSymbolSupport: &supported,
			},
		},
	})
	openTestDocument(t, (&recorder{}).context(), testDocumentURI, testSuiteText, 1)

	result, err := DocumentSymbol(nil, &protocol.DocumentSymbolParams{TextDocument: docID()})
	require.NoError(t, err)

	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok, "got %T", result)
	require.Len(t, symbols, 2)
	assert.Equal(t, "Greet", symbols[1].Name)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 6, Character: 0},
		End:   protocol.Position{Line: 6, Character: 5},
	}, symbols[1].SelectionRange)
}

func TestDocumentSymbolClosedDocument(t *testing.T) {
	setupServer(t, testSuiteTree())

	result, err := DocumentSymbol(nil, &protocol.DocumentSymbolParams{TextDocument: docID()})
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWorkspaceSymbol(t *testing.T) {
	setupServer(t, testSuiteTree())
	openTestDocument(t, (&recorder{}).context(), testDocumentURI, testSuiteText, 1)

	symbols, err := WorkspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: "GREET"})
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Greet", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[0].Kind)
	assert.Equal(t, testDocumentURI, symbols[0].Location.URI)
	require.NotNil(t, symbols[0].ContainerName)
	assert.Equal(t, "login", *symbols[0].ContainerName)

	symbols, err = WorkspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: "valid_login"})
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, protocol.SymbolKindMethod, symbols[0].Kind)

	symbols, err = WorkspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: ""})
	require.NoError(t, err)
	assert.Len(t, symbols, 2)

	symbols, err = WorkspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: "logout"})
	require.NoError(t, err)
	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)
}

func TestFoldingRange(t *testing.T) {
	setupServer(t, testSuiteTree())
	openTestDocument(t, (&recorder{}).context(), testDocumentURI, testSuiteText, 1)

	ranges, err := FoldingRange(nil, &protocol.FoldingRangeParams{TextDocument: docID()})
	require.NoError(t, err)

	byKind := map[string][]protocol.FoldingRange{}
	for _, r := range ranges {
		require.NotNil(t, r.Kind)
		byKind[*r.Kind] = append(byKind[*r.Kind], r)
	}
	assert.Len(t, byKind[analysis.FoldSection], 2)

	require.Len(t, byKind[analysis.FoldTestCase], 1)
	tc := byKind[analysis.FoldTestCase][0]
	assert.Equal(t, protocol.UInteger(1), tc.StartLine)
	assert.Equal(t, protocol.UInteger(4), tc.EndLine)
	require.NotNil(t, tc.EndCharacter)
	assert.Equal(t, protocol.UInteger(11), *tc.EndCharacter)

	require.Len(t, byKind[analysis.FoldKeyword], 1)
	kw := byKind[analysis.FoldKeyword][0]
	assert.Equal(t, protocol.UInteger(6), kw.StartLine)
	assert.Equal(t, protocol.UInteger(8), kw.EndLine)
}

func TestCodeLens(t *testing.T) {
	setupServer(t, testSuiteTree())
	openTestDocument(t, (&recorder{}).context(), testDocumentURI, testSuiteText, 1)

	lenses, err := CodeLens(nil, &protocol.CodeLensParams{TextDocument: docID()})
	require.NoError(t, err)
	require.Len(t, lenses, 4)

	suite := lenses[0]
	require.NotNil(t, suite.Command)
	assert.Equal(t, "Run", suite.Command.Title)
	assert.Equal(t, analysis.CommandRunTestSuite, suite.Command.Command)
	assert.Equal(t, []any{testDocumentURI}, suite.Command.Arguments)
	assert.Equal(t, protocol.UInteger(0), suite.Range.Start.Line)

	debug := lenses[3]
	require.NotNil(t, debug.Command)
	assert.Equal(t, "Debug", debug.Command.Title)
	assert.Equal(t, analysis.CommandDebugTestCase, debug.Command.Command)
	assert.Equal(t, []any{testDocumentURI, "Valid Login"}, debug.Command.Arguments)
	assert.Equal(t, protocol.UInteger(1), debug.Range.Start.Line)
}

func TestProtocolPositions(t *testing.T) {
	lines := document.NewLines("    Log    😀    ${x}\n")

	// ${x} starts at code point 16, UTF-16 column 17.
	r := toProtocolRange(lines, analysis.Range{
		Start: analysis.Position{Line: 0, Character: 16},
		End:   analysis.Position{Line: 0, Character: 20},
	})
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 17},
		End:   protocol.Position{Line: 0, Character: 21},
	}, r)

	assert.Equal(t, analysis.Position{Line: 0, Character: 16},
		fromProtocolPosition(lines, protocol.Position{Line: 0, Character: 17}))

	assert.Equal(t, protocol.Position{},
		toProtocolPosition(lines, analysis.Position{Line: -1, Character: 3}))
}
