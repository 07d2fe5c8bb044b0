// Package lsp implements LSP protocol handlers.
package lsp

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/server"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// ServerName is reported to clients in the initialize response.
const ServerName = "robot-lsp"

var (
	// serverInstance holds the server the handlers operate on. It is set by
	// SetServer before the transport starts.
	serverInstance *server.Server

	// Version is reported to clients in the initialize response.
	Version = "0.1.0"

	// runBackground starts work that must not block the connection.
	runBackground = func(f func()) { go f() }
)

// SetServer sets the global server instance for handlers to access.
func SetServer(srv *server.Server) {
	serverInstance = srv
}

func currentServer(method string) *server.Server {
	if serverInstance == nil {
		log.Warn().Str("method", method).Msg("server instance not available")
	}
	return serverInstance
}

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if srv := currentServer(protocol.MethodInitialize); srv != nil {
		capabilities := params.Capabilities
		srv.SetClientCapabilities(&capabilities)
		srv.SetWorkspaceFolders(initialFolders(params))
		loadConfiguration(srv, params.InitializationOptions)
	}

	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},
		HoverProvider:           trueVal,
		DefinitionProvider:      trueVal,
		DocumentSymbolProvider:  trueVal,
		WorkspaceSymbolProvider: trueVal,
		FoldingRangeProvider:    trueVal,
		CodeLensProvider: &protocol.CodeLensOptions{
			ResolveProvider: &falseVal,
		},
		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &trueVal,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
		},
	}

	version := Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &version,
		},
	}, nil
}

// initialFolders returns the workspace folder paths, falling back to the
// root URI and the deprecated root path.
func initialFolders(params *protocol.InitializeParams) []string {
	var folders []string
	for _, folder := range params.WorkspaceFolders {
		if path, err := util.URIToPath(folder.URI); err == nil {
			folders = append(folders, path)
		}
	}
	if len(folders) > 0 {
		return folders
	}

	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := util.URIToPath(*params.RootURI); err == nil {
			return []string{path}
		}
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return []string{*params.RootPath}
	}
	return nil
}

// loadConfiguration overlays robot-lsp.toml from the first workspace folder
// and then the client's initialization options.
func loadConfiguration(srv *server.Server, options any) {
	logger := srv.Logger()

	if folders := srv.GetWorkspaceFolders(); len(folders) > 0 {
		path, found, err := server.FindConfigFile(folders[0])
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("looking for config file failed")
		case found:
			cfg := srv.Config()
			if err := cfg.LoadConfigFile(path); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("ignoring invalid config file")
				break
			}
			if _, err := srv.UpdateConfig(func(c *server.Config) { *c = *cfg }); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("ignoring invalid config file")
			} else {
				logger.Info().Str("path", path).Msg("loaded config file")
			}
		}
	}

	if settings := settingsSection(options); settings != nil {
		if _, err := srv.UpdateConfig(func(c *server.Config) { c.ApplySettings(settings) }); err != nil {
			logger.Error().Err(err).Msg("ignoring invalid initialization options")
		}
	}
}

// Initialized handles the initialized notification from the client.
// This is sent after the initialize response, signaling that the client is ready.
// The libspec directories and the workspace are indexed in the background.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv := currentServer(protocol.MethodInitialized)
	if srv == nil {
		return nil
	}

	runBackground(func() {
		refreshLibraries(srv)
		indexWorkspace(srv, false)
		rediagnoseOpenDocuments(context, srv)
	})
	return nil
}

func refreshLibraries(srv *server.Server) {
	if err := srv.RefreshLibraries(context.Background()); err != nil {
		srv.Logger().Error().Err(err).Msg("indexing libspec files failed")
		return
	}
	srv.Logger().Info().Int("count", srv.Libraries().Len()).Msg("indexed libspec files")
}

func indexWorkspace(srv *server.Server, rebuild bool) {
	index := srv.IndexWorkspace
	if rebuild {
		index = srv.ReindexWorkspace
	}
	count, err := index(context.Background())
	if err != nil {
		srv.Logger().Error().Err(err).Msg("indexing workspace failed")
		return
	}
	srv.Logger().Info().
		Int("files", count).
		Int("symbols", srv.WorkspaceIndex().GetSymbolCount()).
		Msg("indexed workspace")
}

// Shutdown handles the shutdown request.
// The client sends this to ask the server to shut down gracefully.
func Shutdown(context *glsp.Context) error {
	if srv := currentServer(protocol.MethodShutdown); srv != nil {
		srv.SetShuttingDown()
		srv.Logger().Info().Msg("shutting down")
	}
	return nil
}

// SetTrace handles $/setTrace.
func SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	srv := currentServer(protocol.MethodSetTrace)
	if srv == nil {
		return nil
	}
	_, err := srv.UpdateConfig(func(c *server.Config) { c.Trace = string(params.Value) })
	if err != nil {
		srv.Logger().Warn().Err(err).Msg("ignoring trace value")
	}
	return nil
}
