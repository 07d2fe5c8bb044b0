package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// Definition handles the textDocument/definition request for keyword
// references. Keywords whose source file is unknown have no location.
func Definition(context *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	srv := currentServer(protocol.MethodTextDocumentDefinition)
	if srv == nil {
		return nil, nil
	}

	target, ok := keywordAt(srv, params.TextDocument.URI, params.Position)
	if !ok || target.keyword.Source == "" {
		return nil, nil
	}

	uri := target.keyword.Source
	if !strings.HasPrefix(uri, "file:") {
		uri = util.PathToURI(uri)
	}

	line := protocol.UInteger(max(target.keyword.Line-1, 0))
	at := protocol.Position{Line: line}
	return protocol.Location{
		URI:   uri,
		Range: protocol.Range{Start: at, End: at},
	}, nil
}
