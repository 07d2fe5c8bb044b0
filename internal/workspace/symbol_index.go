// Package workspace indexes the keyword and test case definitions of the
// Robot Framework files in the workspace, and resolves Resource imports to
// documents.
package workspace

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// SymbolLocation represents a location where a symbol is defined.
type SymbolLocation struct {
	Name     string
	Kind     protocol.SymbolKind
	Location protocol.Location
	// ContainerName is the name of the defining file without extension.
	ContainerName string
	Detail        string
}

// FileInfo stores metadata about an indexed file.
type FileInfo struct {
	URI     string
	Version int32
	// Symbols holds the normalized names defined in this file.
	Symbols []string
}

// SymbolIndex maintains a workspace-wide index of keywords and test cases.
// Names are keyed the way Robot Framework matches them, ignoring case,
// spaces and underscores. It is safe for concurrent use.
type SymbolIndex struct {
	symbols map[string][]SymbolLocation
	files   map[string]*FileInfo
	mutex   sync.RWMutex
	logger  zerolog.Logger
}

// NewSymbolIndex creates a new empty symbol index.
func NewSymbolIndex(logger zerolog.Logger) *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]SymbolLocation),
		files:   make(map[string]*FileInfo),
		logger:  logger,
	}
}

// SymbolKindOf maps a definition kind to its LSP symbol kind.
func SymbolKindOf(kind analysis.SymbolKind) protocol.SymbolKind {
	if kind == analysis.SymbolTestCase {
		return protocol.SymbolKindMethod
	}
	return protocol.SymbolKindFunction
}

// AddSymbol adds a symbol to the index.
func (si *SymbolIndex) AddSymbol(name string, kind protocol.SymbolKind, uri string, symbolRange protocol.Range, containerName, detail string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.addLocked(SymbolLocation{
		Name:          name,
		Kind:          kind,
		Location:      protocol.Location{URI: uri, Range: symbolRange},
		ContainerName: containerName,
		Detail:        detail,
	})
}

func (si *SymbolIndex) addLocked(loc SymbolLocation) {
	key := util.NormalizeName(loc.Name)
	si.symbols[key] = append(si.symbols[key], loc)

	uri := loc.Location.URI
	fileInfo, exists := si.files[uri]
	if !exists {
		fileInfo = &FileInfo{URI: uri}
		si.files[uri] = fileInfo
	}
	if !slices.Contains(fileInfo.Symbols, key) {
		fileInfo.Symbols = append(fileInfo.Symbols, key)
	}
}

// SetFileSymbols replaces everything indexed for uri with symbols.
func (si *SymbolIndex) SetFileSymbols(uri string, version int32, symbols []analysis.Symbol) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeLocked(uri)
	container := util.DocumentName(uri)
	for _, sym := range symbols {
		si.addLocked(SymbolLocation{
			Name:          sym.Name,
			Kind:          SymbolKindOf(sym.Kind),
			Location:      protocol.Location{URI: uri, Range: sym.SelectionRange.ToProtocol()},
			ContainerName: container,
		})
	}
	if fileInfo, ok := si.files[uri]; ok {
		fileInfo.Version = version
	} else {
		// Files without definitions are still tracked as indexed.
		si.files[uri] = &FileInfo{URI: uri, Version: version}
	}

	si.logger.Debug().Str("uri", uri).Int("count", len(symbols)).Msg("indexed file")
}

// FindSymbol returns all locations where a symbol with the given name is
// defined, matching names the way Robot Framework does.
func (si *SymbolIndex) FindSymbol(name string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	locations, exists := si.symbols[util.NormalizeName(name)]
	if !exists {
		return nil
	}
	return slices.Clone(locations)
}

// FindSymbolsByKind returns the symbols of a specific kind.
func (si *SymbolIndex) FindSymbolsByKind(kind protocol.SymbolKind) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	var result []SymbolLocation
	for _, locations := range si.symbols {
		for _, loc := range locations {
			if loc.Kind == kind {
				result = append(result, loc)
			}
		}
	}
	return result
}

// FindSymbolsInFile returns all symbols defined in a specific file.
func (si *SymbolIndex) FindSymbolsInFile(uri string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	fileInfo, exists := si.files[uri]
	if !exists {
		return nil
	}

	var result []SymbolLocation
	for _, key := range fileInfo.Symbols {
		for _, loc := range si.symbols[key] {
			if loc.Location.URI == uri {
				result = append(result, loc)
			}
		}
	}
	return result
}

// RemoveFile removes all symbols from a file.
func (si *SymbolIndex) RemoveFile(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	if si.removeLocked(uri) {
		si.logger.Debug().Str("uri", uri).Msg("removed file from index")
	}
}

func (si *SymbolIndex) removeLocked(uri string) bool {
	fileInfo, exists := si.files[uri]
	if !exists {
		return false
	}

	for _, key := range fileInfo.Symbols {
		remaining := slices.DeleteFunc(si.symbols[key], func(loc SymbolLocation) bool {
			return loc.Location.URI == uri
		})
		if len(remaining) > 0 {
			si.symbols[key] = remaining
		} else {
			delete(si.symbols, key)
		}
	}

	delete(si.files, uri)
	return true
}

// FileVersion returns the version a file was indexed at.
func (si *SymbolIndex) FileVersion(uri string) (int32, bool) {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	fileInfo, ok := si.files[uri]
	if !ok {
		return 0, false
	}
	return fileInfo.Version, true
}

// GetFileCount returns the number of files in the index.
func (si *SymbolIndex) GetFileCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()
	return len(si.files)
}

// GetSymbolCount returns the number of distinct normalized names in the index.
func (si *SymbolIndex) GetSymbolCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()
	return len(si.symbols)
}

// GetTotalLocationCount returns the total number of symbol locations.
func (si *SymbolIndex) GetTotalLocationCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	count := 0
	for _, locations := range si.symbols {
		count += len(locations)
	}
	return count
}

// Clear removes all symbols and file information from the index.
func (si *SymbolIndex) Clear() {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.symbols = make(map[string][]SymbolLocation)
	si.files = make(map[string]*FileInfo)

	si.logger.Debug().Msg("symbol index cleared")
}

// Search returns symbols whose normalized name contains the normalized query,
// so "open browser" finds "Open_Browser". Results are ordered by name and
// location. An empty query matches every symbol. maxResults <= 0 means no
// limit.
func (si *SymbolIndex) Search(query string, maxResults int) []SymbolLocation {
	si.mutex.RLock()
	needle := util.NormalizeName(query)
	var results []SymbolLocation
	for key, locations := range si.symbols {
		if strings.Contains(key, needle) {
			results = append(results, locations...)
		}
	}
	si.mutex.RUnlock()

	slices.SortFunc(results, compareLocations)
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func compareLocations(a, b SymbolLocation) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.Location.URI, b.Location.URI); c != 0 {
		return c
	}
	return int(a.Location.Range.Start.Line) - int(b.Location.Range.Start.Line)
}
