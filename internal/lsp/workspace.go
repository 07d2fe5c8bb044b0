package lsp

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/server"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// DidChangeConfiguration handles workspace configuration changes from the client.
// Settings are read from the "robot" section:
//
//	{
//	  "robot": {
//	    "maxProblems": 100,
//	    "libspecDirs": ["libspecs"],
//	    "parserCommand": "python -m robot_ast_dump"
//	  }
//	}
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv := currentServer(protocol.MethodWorkspaceDidChangeConfiguration)
	if srv == nil {
		return nil
	}

	settings := settingsSection(params.Settings)
	if settings == nil {
		return nil
	}

	changed := false
	librariesChanged, err := srv.UpdateConfig(func(c *server.Config) { changed = c.ApplySettings(settings) })
	if err != nil {
		srv.Logger().Error().Err(err).Msg("ignoring invalid settings")
		return nil
	}
	if !changed {
		return nil
	}

	runBackground(func() {
		if librariesChanged {
			refreshLibraries(srv)
		}
		rediagnoseOpenDocuments(context, srv)
	})
	return nil
}

// settingsSection returns the "robot" section of a settings object, or the
// object itself when it has no such section.
func settingsSection(settings any) map[string]any {
	m, ok := settings.(map[string]any)
	if !ok {
		return nil
	}
	if section, ok := m[server.SettingsSection].(map[string]any); ok {
		return section
	}
	return m
}

// DidChangeWorkspaceFolders handles changes to workspace folders.
// The workspace index is rebuilt in the background.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv := currentServer(protocol.MethodWorkspaceDidChangeWorkspaceFolders)
	if srv == nil {
		return nil
	}

	folders := srv.GetWorkspaceFolders()
	for _, folder := range params.Event.Removed {
		if path, err := util.URIToPath(folder.URI); err == nil {
			folders = slices.DeleteFunc(folders, func(f string) bool { return filepath.Clean(f) == filepath.Clean(path) })
			srv.Logger().Info().Str("folder", path).Msg("workspace folder removed")
		}
	}
	for _, folder := range params.Event.Added {
		if path, err := util.URIToPath(folder.URI); err == nil && !slices.Contains(folders, path) {
			folders = append(folders, path)
			srv.Logger().Info().Str("folder", path).Msg("workspace folder added")
		}
	}
	srv.SetWorkspaceFolders(folders)

	runBackground(func() {
		indexWorkspace(srv, true)
		rediagnoseOpenDocuments(context, srv)
	})
	return nil
}

// DidChangeWatchedFiles handles files changed outside the editor. Changed
// resource files are re-indexed and the open documents re-analyzed, since
// they may import them; changed libspec files refresh the libraries.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv := currentServer(protocol.MethodWorkspaceDidChangeWatchedFiles)
	if srv == nil {
		return nil
	}

	libspecChanged := false
	for _, change := range params.Changes {
		if isLibspec(change.URI) {
			libspecChanged = true
			continue
		}
		fileChanged(srv, change.URI, change.Type == protocol.FileChangeTypeDeleted)
	}

	runBackground(func() {
		if libspecChanged {
			refreshLibraries(srv)
		}
		rediagnoseOpenDocuments(context, srv)
	})
	return nil
}

func fileChanged(srv *server.Server, uri string, deleted bool) {
	srv.FileChanged(context.Background(), uri, deleted)
}

func isLibspec(uri string) bool {
	return strings.EqualFold(filepath.Ext(uri), ".json")
}
