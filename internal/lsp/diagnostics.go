package lsp

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/document"
	"github.com/CWBudde/go-robot-lsp/internal/server"
)

// PublishDiagnostics sends diagnostic information to the client for a specific document.
// A nil version publishes without one.
func PublishDiagnostics(context *glsp.Context, uri string, version *protocol.UInteger, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	notify(context, protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
}

// publishDiagnostics analyzes the current version of uri and publishes the
// result. A pass superseded by a newer edit publishes nothing; a document
// without syntax tree gets an empty list.
func publishDiagnostics(ctx *glsp.Context, srv *server.Server, uri string) {
	if srv.IsShuttingDown() {
		return
	}
	logger := srv.Logger().With().Str("uri", uri).Logger()

	doc, diagnostics, err := srv.Diagnose(context.Background(), uri)
	switch {
	case doc == nil:
		return
	case errors.Is(err, analysis.ErrCancelled):
		logger.Trace().Int32("version", doc.Version()).Msg("analysis superseded")
		return
	case errors.Is(err, analysis.ErrParseUnavailable):
		logger.Debug().Err(err).Msg("no syntax tree, clearing diagnostics")
		diagnostics = nil
	case err != nil:
		logger.Error().Err(err).Msg("analysis failed")
		return
	}

	// A newer version publishes its own result.
	if current, ok := srv.Documents().Get(uri); !ok || current.Version() != doc.Version() {
		return
	}

	lines := document.NewLines(doc.Text())
	out := make([]protocol.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.ToProtocol()
		out[i].Range = toProtocolRange(lines, d.Range)
	}

	version := protocol.UInteger(max(doc.Version(), 0))
	logger.Debug().Int32("version", doc.Version()).Int("count", len(out)).Msg("publishing diagnostics")
	PublishDiagnostics(ctx, uri, &version, out)
}

// rediagnoseOpenDocuments republishes the diagnostics of every open
// document, after a change that may affect keyword resolution.
func rediagnoseOpenDocuments(ctx *glsp.Context, srv *server.Server) {
	for _, uri := range srv.Documents().List() {
		publishDiagnostics(ctx, srv, uri)
	}
}
