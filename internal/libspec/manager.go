package libspec

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/tidwall/tinylru"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-robot-lsp/internal/util"
)

const defaultCacheSize = 64

// Options configures a Manager.
type Options struct {
	// Dirs are searched recursively for *.json libspec files.
	Dirs []string
	// CacheDir holds the persisted name index. Empty disables it.
	CacheDir string
	// CacheSize is the number of parsed libraries kept in memory.
	CacheSize int
	// Jobs bounds the number of libspec files read concurrently.
	Jobs   int
	Logger zerolog.Logger
}

// Manager maps library names to their documentation. Files are indexed by
// Refresh and parsed on first use; parsed documents are kept in an LRU.
// It is safe for concurrent use.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.RWMutex
	index    map[string]entry
	fallback map[string]*LibraryDoc
	errors   map[string]string
	warnings map[string]string
	docs     tinylru.LRU
}

// NewManager creates a manager. Call Refresh to index the directories.
func NewManager(opts Options) *Manager {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	m := &Manager{
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "libspec").Logger(),
		index:    map[string]entry{},
		fallback: map[string]*LibraryDoc{},
		errors:   map[string]string{},
		warnings: map[string]string{},
	}
	m.docs.Resize(opts.CacheSize)
	return m
}

// WithFallback registers documentation used when no libspec file provides
// a library of the same name.
func (m *Manager) WithFallback(docs ...*LibraryDoc) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.fallback[util.NormalizeName(doc.Name)] = doc
	}
	return m
}

// SetDirs replaces the directories searched by Refresh.
func (m *Manager) SetDirs(dirs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts.Dirs = slices.Clone(dirs)
}

// Refresh rebuilds the name index from the configured directories. Files
// whose size and modification time match the persisted index are not read.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	dirs := slices.Clone(m.opts.Dirs)
	m.mu.RUnlock()

	files := m.findFiles(dirs)

	cached, err := readIndexCache(m.opts.CacheDir)
	if err != nil {
		m.logger.Warn().Err(err).Msg("ignoring unreadable libspec index cache")
	}

	entries := make([]entry, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(m.opts.Jobs, len(files))))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				failures[i] = err
				return nil
			}
			e := entry{Path: path, ModTime: info.ModTime().UnixNano(), Size: info.Size()}
			if prev, ok := cached[path]; ok && prev.ModTime == e.ModTime && prev.Size == e.Size {
				e.Name = prev.Name
			} else if e.Name, err = readHeader(path); err != nil {
				failures[i] = err
				return nil
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	index := make(map[string]entry, len(entries))
	errs := map[string]string{}
	valid := make([]entry, 0, len(entries))
	for i, e := range entries {
		if failures[i] != nil {
			key := util.NormalizeName(util.DocumentName(files[i]))
			errs[key] = failures[i].Error()
			m.logger.Warn().Err(failures[i]).Str("path", files[i]).Msg("skipping libspec")
			continue
		}
		key := util.NormalizeName(e.Name)
		if prev, dup := index[key]; dup {
			m.logger.Debug().Str("library", e.Name).Str("kept", prev.Path).Str("ignored", e.Path).Msg("duplicate libspec")
			continue
		}
		index[key] = e
		valid = append(valid, e)
	}

	if err := writeIndexCache(m.opts.CacheDir, valid); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist libspec index")
	}

	m.mu.Lock()
	m.index = index
	m.errors = errs
	m.warnings = map[string]string{}
	m.docs = tinylru.LRU{}
	m.docs.Resize(m.opts.CacheSize)
	m.mu.Unlock()

	m.logger.Info().Int("count", len(index)).Strs("dirs", dirs).Msg("indexed libspec files")
	return nil
}

// findFiles returns the libspec files below dirs in a stable order, so that
// the first of several files naming the same library wins consistently.
func (m *Manager) findFiles(dirs []string) []string {
	var files []string
	for _, dir := range dirs {
		matches, err := doublestar.Glob(os.DirFS(dir), "**/*.json")
		if err != nil {
			m.logger.Warn().Err(err).Str("dir", dir).Msg("failed to scan libspec directory")
			continue
		}
		for _, match := range matches {
			files = append(files, filepath.Join(dir, filepath.FromSlash(match)))
		}
	}
	slices.Sort(files)
	return slices.Compact(files)
}

// ResolveLibrary returns the documentation of the named library. Names that
// are paths (`${CURDIR}/MyLib.py`, `../libs/Lib.py`) are looked up by their
// file name; a libspec file next to the library itself takes precedence.
func (m *Manager) ResolveLibrary(name string, args []string, alias, referencingURI string) (*LibraryDoc, bool) {
	key := libraryKey(name)
	if key == "" {
		return nil, false
	}

	if isPathLike(name) {
		if doc, ok := m.resolveBesideLibrary(key, name, referencingURI); ok {
			return doc, true
		}
	}

	m.mu.RLock()
	e, indexed := m.index[key]
	fb := m.fallback[key]
	m.mu.RUnlock()

	if indexed {
		doc, err := m.load(e.Path)
		if err == nil {
			m.checkOutdated(key, doc, e.ModTime)
			return doc, true
		}
		m.setProblem(m.errors, key, err.Error())
		m.logger.Warn().Err(err).Str("library", name).Msg("failed to load libspec")
	}

	if fb != nil {
		return fb, true
	}

	m.logger.Debug().Str("library", name).Strs("args", args).Str("alias", alias).Msg("library not found")
	return nil, false
}

func (m *Manager) resolveBesideLibrary(key, name, referencingURI string) (*LibraryDoc, bool) {
	dir := ""
	if path, err := util.URIToPath(referencingURI); err == nil {
		dir = filepath.Dir(path)
	}
	libPath := strings.ReplaceAll(name, "${CURDIR}", dir)
	if !filepath.IsAbs(libPath) {
		if dir == "" {
			return nil, false
		}
		libPath = filepath.Join(dir, libPath)
	}

	spec := strings.TrimSuffix(libPath, filepath.Ext(libPath)) + ".json"
	info, err := os.Stat(spec)
	if err != nil {
		return nil, false
	}
	doc, err := m.load(spec)
	if err != nil {
		m.setProblem(m.errors, key, err.Error())
		return nil, false
	}
	m.checkOutdated(key, doc, info.ModTime().UnixNano())
	return doc, true
}

func (m *Manager) load(path string) (*LibraryDoc, error) {
	m.mu.RLock()
	cached, ok := m.docs.Get(path)
	m.mu.RUnlock()
	if ok {
		return cached.(*LibraryDoc), nil
	}

	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	m.docs.Set(path, doc)
	m.mu.RUnlock()
	return doc, nil
}

// checkOutdated records a warning when the library source changed after its
// libspec was generated, and clears any stale error for the library.
func (m *Manager) checkOutdated(key string, doc *LibraryDoc, specModTime int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errors, key)
	delete(m.warnings, key)

	if doc.Source == "" {
		return
	}
	info, err := os.Stat(doc.Source)
	if err != nil || info.ModTime().UnixNano() <= specModTime {
		return
	}
	m.warnings[key] = "Libspec for '" + doc.Name + "' is older than " + doc.Source + "; regenerate it with libdoc."
}

func (m *Manager) setProblem(target map[string]string, key, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target[key] = msg
}

// LibraryError returns the message of the last failure to read the named
// library's documentation, or "".
func (m *Manager) LibraryError(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errors[libraryKey(name)]
}

// LibraryWarning returns a non-fatal problem with the named library's
// documentation, or "".
func (m *Manager) LibraryWarning(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.warnings[libraryKey(name)]
}

// Len returns the number of indexed libspec files.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

func isPathLike(name string) bool {
	return strings.ContainsAny(name, `/\`) || strings.HasSuffix(strings.ToLower(name), ".py")
}

func libraryKey(name string) string {
	name = strings.TrimSpace(name)
	if isPathLike(name) {
		name = util.DocumentName(name)
	}
	return util.NormalizeName(name)
}
