package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// NewHandler returns the protocol handler serving the requests and
// notifications this package implements.
func NewHandler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:  Initialize,
		Initialized: Initialized,
		Shutdown:    Shutdown,
		SetTrace:    SetTrace,

		TextDocumentDidOpen:   DidOpen,
		TextDocumentDidChange: DidChange,
		TextDocumentDidClose:  DidClose,

		TextDocumentHover:          Hover,
		TextDocumentDefinition:     Definition,
		TextDocumentDocumentSymbol: DocumentSymbol,
		TextDocumentFoldingRange:   FoldingRange,
		TextDocumentCodeLens:       CodeLens,

		WorkspaceSymbol:                    WorkspaceSymbol,
		WorkspaceDidChangeConfiguration:    DidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: DidChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     DidChangeWatchedFiles,
	}
}
