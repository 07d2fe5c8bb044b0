package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// OpenDocuments gives access to the documents open in the editor.
type OpenDocuments interface {
	OpenDocument(uri string) (analysis.Document, bool)
}

// ResourceResolver locates the target of Resource imports. A path is tried
// relative to the importing document first, then relative to each workspace
// folder. Open documents take precedence over their content on disk.
type ResourceResolver struct {
	open    OpenDocuments
	loader  *FileLoader
	folders func() []string
	logger  zerolog.Logger
}

// NewResourceResolver creates a resolver. folders returns the workspace
// folder paths and may be nil.
func NewResourceResolver(open OpenDocuments, loader *FileLoader, folders func() []string, logger zerolog.Logger) *ResourceResolver {
	return &ResourceResolver{open: open, loader: loader, folders: folders, logger: logger}
}

var _ analysis.ResourceResolver = (*ResourceResolver)(nil)

// ResolveResource implements analysis.ResourceResolver.
func (r *ResourceResolver) ResolveResource(ctx context.Context, from analysis.Document, imp *ast.Node) (analysis.Document, bool) {
	name := imp.ResourceName()
	if name == "" {
		return nil, false
	}

	for _, candidate := range r.candidates(from.URI(), name) {
		uri := util.PathToURI(candidate)
		if r.open != nil {
			if doc, ok := r.open.OpenDocument(uri); ok {
				return doc, true
			}
		}
		if r.loader == nil {
			continue
		}
		doc, err := r.loader.Load(ctx, candidate)
		if err == nil {
			return doc, true
		}
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Debug().Err(err).Str("path", candidate).Msg("cannot load resource")
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}

	r.logger.Debug().Str("resource", name).Str("uri", from.URI()).Msg("resource not found")
	return nil, false
}

// candidates lists the paths a resource name may refer to, in lookup order.
func (r *ResourceResolver) candidates(fromURI, name string) []string {
	var fromDir string
	if p, err := util.URIToPath(fromURI); err == nil {
		fromDir = filepath.Dir(p)
	}

	var folders []string
	if r.folders != nil {
		folders = r.folders()
	}

	name = expandPathVariables(name, fromDir, folders)
	if strings.Contains(name, "${") {
		// Variables other than the built-in path ones are unknown here.
		return nil
	}
	name = filepath.FromSlash(name)

	if filepath.IsAbs(name) {
		return []string{filepath.Clean(name)}
	}

	var out []string
	if fromDir != "" {
		out = append(out, filepath.Join(fromDir, name))
	}
	for _, folder := range folders {
		out = append(out, filepath.Join(folder, name))
	}
	return out
}

// expandPathVariables substitutes ${CURDIR}, ${EXECDIR} and ${/}. EXECDIR is
// taken to be the first workspace folder.
func expandPathVariables(name, curdir string, folders []string) string {
	if !strings.Contains(name, "${") {
		return name
	}
	replacements := []string{"${/}", "/"}
	if curdir != "" {
		replacements = append(replacements, "${CURDIR}", filepath.ToSlash(curdir))
	}
	if len(folders) > 0 {
		replacements = append(replacements, "${EXECDIR}", filepath.ToSlash(folders[0]))
	}
	return strings.NewReplacer(replacements...).Replace(name)
}
