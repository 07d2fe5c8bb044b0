package lsp

import (
	"context"
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/document"
	"github.com/CWBudde/go-robot-lsp/internal/server"
	"github.com/CWBudde/go-robot-lsp/internal/util"
	"github.com/CWBudde/go-robot-lsp/internal/workspace"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv := currentServer(protocol.MethodTextDocumentDidOpen)
	if srv == nil {
		return nil
	}

	item := params.TextDocument
	srv.OpenDocument(item.URI, item.LanguageID, item.Version, item.Text)

	srv.Logger().Debug().
		Str("uri", item.URI).
		Int32("version", item.Version).
		Str("languageId", item.LanguageID).
		Int("bytes", len(item.Text)).
		Msg("document opened")

	runBackground(func() { publishDiagnostics(context, srv, item.URI) })
	return nil
}

// DidChange handles the textDocument/didChange notification.
// Ranged and whole-document changes are applied in order; diagnostics are
// published once the edits settle.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv := currentServer(protocol.MethodTextDocumentDidChange)
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	logger := srv.Logger().With().Str("uri", uri).Int32("version", params.TextDocument.Version).Logger()

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		logger.Warn().Msg("document not found for didChange")
		return nil
	}

	text, err := document.ApplyChanges(doc.Text(), params.ContentChanges)
	if err != nil {
		// Keep the previous text; the client resends the whole document on
		// its next full sync.
		logger.Error().Err(err).Msg("failed to apply document change")
		return nil
	}

	srv.Documents().Set(doc.WithText(params.TextDocument.Version, text))
	srv.Inflight().Cancel(uri)
	logger.Trace().Int("changes", len(params.ContentChanges)).Msg("document changed")

	srv.Debouncer().Do(uri, func() { publishDiagnostics(context, srv, uri) })
	return nil
}

// DidClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv := currentServer(protocol.MethodTextDocumentDidClose)
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	closeDocument(srv, uri)
	srv.Logger().Debug().Str("uri", uri).Msg("document closed")

	// Clear the error markers of the closed document.
	notify(context, protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// diskPath returns the path of a Robot Framework file backing uri, or "" if
// there is none to re-index.
func diskPath(uri string) string {
	path, err := util.URIToPath(uri)
	if err != nil || !workspace.IsRobotFile(path) {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// closeDocument forgets the open document; its definitions are indexed
// again from disk when the file exists.
func closeDocument(srv *server.Server, uri string) {
	srv.CloseDocument(context.Background(), uri, diskPath(uri))
}

// notify sends a notification if the context can deliver it.
func notify(context *glsp.Context, method string, params any) {
	if context == nil || context.Notify == nil {
		return
	}
	context.Notify(method, params)
}
