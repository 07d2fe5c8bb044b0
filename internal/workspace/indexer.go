package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// Indexer fills a SymbolIndex from the Robot Framework files on disk.
type Indexer struct {
	index  *SymbolIndex
	loader *FileLoader
	logger zerolog.Logger

	maxDepth int
	maxFiles int
	jobs     int

	// Skip reports URIs the editor owns; they are indexed from the open
	// document instead.
	Skip func(uri string) bool
}

// NewIndexer creates a new workspace indexer.
func NewIndexer(index *SymbolIndex, loader *FileLoader, logger zerolog.Logger) *Indexer {
	return &Indexer{
		index:    index,
		loader:   loader,
		logger:   logger,
		maxDepth: 10,
		maxFiles: 10000,
		jobs:     4,
	}
}

// IsRobotFile reports whether path names a Robot Framework source file.
func IsRobotFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".robot", ".resource":
		return true
	}
	return false
}

// BuildWorkspaceIndex scans the workspace folders and indexes every test
// suite and resource file. It returns the number of files indexed.
func (idx *Indexer) BuildWorkspaceIndex(ctx context.Context, folders []string) (int, error) {
	if len(folders) == 0 {
		idx.logger.Debug().Msg("no workspace folders to index")
		return 0, nil
	}

	var paths []string
	for _, folder := range folders {
		idx.logger.Info().Str("folder", folder).Msg("indexing workspace folder")
		paths = idx.collect(folder, 0, paths)
	}

	var indexed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.jobs)
	for _, path := range paths {
		g.Go(func() error {
			ok, err := idx.IndexFile(gctx, path)
			if ok {
				indexed.Add(1)
			}
			return err
		})
	}
	err := g.Wait()

	idx.logger.Info().
		Int64("files", indexed.Load()).
		Int("symbols", idx.index.GetTotalLocationCount()).
		Msg("workspace indexing complete")
	return int(indexed.Load()), err
}

// collect appends the Robot Framework files below dirPath to paths.
func (idx *Indexer) collect(dirPath string, depth int, paths []string) []string {
	if depth > idx.maxDepth || len(paths) >= idx.maxFiles {
		return paths
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		// Unreadable directories are skipped.
		return paths
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(dirPath, name)
		if entry.IsDir() {
			switch name {
			case "node_modules", "venv", "__pycache__", "dist", "build", "out", "results":
				continue
			}
			paths = idx.collect(fullPath, depth+1, paths)
			continue
		}

		if !IsRobotFile(name) {
			continue
		}
		if len(paths) >= idx.maxFiles {
			return paths
		}
		paths = append(paths, fullPath)
	}
	return paths
}

// IndexFile parses a file and replaces its symbols in the index. Files that
// do not parse are left out without error; only cancellation fails.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (bool, error) {
	uri := util.PathToURI(path)
	if idx.Skip != nil && idx.Skip(uri) {
		return false, nil
	}

	doc, err := idx.loader.Load(ctx, path)
	if err != nil {
		if errors.Is(err, ast.ErrCancelled) {
			return false, err
		}
		idx.logger.Warn().Err(err).Str("path", path).Msg("could not read file")
		return false, nil
	}

	root, err := doc.AST()
	if err != nil {
		return false, nil
	}
	return true, idx.IndexDocument(ctx, uri, 0, root)
}

// IndexDocument replaces the symbols of uri with the definitions in root.
func (idx *Indexer) IndexDocument(ctx context.Context, uri string, version int32, root *ast.Node) error {
	symbols, err := analysis.DefinedSymbols(ctx, root)
	if err != nil {
		return err
	}
	idx.index.SetFileSymbols(uri, version, symbols)
	return nil
}

// Index returns the index this indexer fills.
func (idx *Indexer) Index() *SymbolIndex {
	return idx.index
}
