package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxWorkspaceSymbols caps workspace/symbol results.
const maxWorkspaceSymbols = 500

// WorkspaceSymbol handles the workspace/symbol request.
// It returns the indexed test cases and keywords whose normalized name
// contains the normalized query.
func WorkspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	srv := currentServer(protocol.MethodWorkspaceSymbol)
	if srv == nil {
		return nil, nil
	}

	locations := srv.WorkspaceIndex().Search(params.Query, maxWorkspaceSymbols)
	srv.Logger().Debug().Str("query", params.Query).Int("count", len(locations)).Msg("workspace symbols")

	symbols := make([]protocol.SymbolInformation, 0, len(locations))
	for _, loc := range locations {
		info := protocol.SymbolInformation{
			Name:     loc.Name,
			Kind:     loc.Kind,
			Location: loc.Location,
		}
		if loc.ContainerName != "" {
			container := loc.ContainerName
			info.ContainerName = &container
		}
		symbols = append(symbols, info)
	}
	return symbols, nil
}
