package analysis

import (
	"regexp"

	"github.com/CWBudde/go-robot-lsp/internal/libspec"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// KeywordDescriptor is a keyword definition found while building a Catalog.
// At most one of LibraryName and ResourceName is set.
type KeywordDescriptor struct {
	Name         string
	LibraryName  string
	ResourceName string
	LibraryAlias string
	Args         []libspec.ArgumentDoc
	Doc          string

	// Source is the file defining the keyword (a URI for resources, a path
	// for libraries) and Line its 1-based line, 0 when unknown.
	Source string
	Line   int
}

// Scope is the name the keyword can be qualified with: the library alias,
// the library name or the resource name.
func (d *KeywordDescriptor) Scope() string {
	switch {
	case d.LibraryAlias != "":
		return d.LibraryAlias
	case d.LibraryName != "":
		return d.LibraryName
	}
	return d.ResourceName
}

// FullName is the qualified name of the keyword, e.g. "BuiltIn.Log".
func (d *KeywordDescriptor) FullName() string {
	if scope := d.Scope(); scope != "" {
		return scope + "." + d.Name
	}
	return d.Name
}

func (d *KeywordDescriptor) sameOrigin(other *KeywordDescriptor) bool {
	return d.LibraryName == other.LibraryName &&
		d.ResourceName == other.ResourceName &&
		d.LibraryAlias == other.LibraryAlias
}

type placeholderKey struct {
	name    string
	pattern *regexp.Regexp
}

// keywordContainer indexes the keywords of one scope by normalized name.
type keywordContainer struct {
	byName   map[string]*KeywordDescriptor
	patterns []placeholderKey
	multiple map[string][]*KeywordDescriptor
}

func newKeywordContainer() *keywordContainer {
	return &keywordContainer{
		byName:   map[string]*KeywordDescriptor{},
		multiple: map[string][]*KeywordDescriptor{},
	}
}

func (c *keywordContainer) add(kw *KeywordDescriptor) {
	name := util.NormalizeName(kw.Name)
	if existing, ok := c.byName[name]; ok {
		if existing.sameOrigin(kw) {
			return
		}
		for _, other := range c.multiple[name] {
			if other.sameOrigin(kw) {
				return
			}
		}
		if _, ok := c.multiple[name]; !ok {
			c.multiple[name] = []*KeywordDescriptor{existing}
		}
		c.multiple[name] = append(c.multiple[name], kw)
		return
	}

	c.byName[name] = kw
	if util.HasPlaceholder(name) {
		if re, ok := util.PlaceholderPattern(name); ok {
			c.patterns = append(c.patterns, placeholderKey{name: name, pattern: re})
		}
	}
}

// find returns the keyword registered under the exact name or, failing
// that, the first placeholder keyword matching it.
func (c *keywordContainer) find(normalized string) *KeywordDescriptor {
	if kw, ok := c.byName[normalized]; ok {
		return kw
	}
	for _, p := range c.patterns {
		if p.pattern.MatchString(normalized) {
			return c.byName[p.name]
		}
	}
	return nil
}

func (c *keywordContainer) contains(normalized string) bool {
	return c.find(normalized) != nil
}

func (c *keywordContainer) len() int {
	return len(c.byName)
}

// Catalog indexes the keywords visible from one document: a flat index of
// everything plus one nested index per resource and per library (keyed by
// alias when one was given). A Catalog is immutable and safe for concurrent
// lookups.
type Catalog struct {
	root      *keywordContainer
	resources map[string]*keywordContainer
	libraries map[string]*keywordContainer
}

// CatalogBuilder accumulates keywords and produces a Catalog.
type CatalogBuilder struct {
	catalog *Catalog
}

// NewCatalogBuilder creates an empty builder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{catalog: &Catalog{
		root:      newKeywordContainer(),
		resources: map[string]*keywordContainer{},
		libraries: map[string]*keywordContainer{},
	}}
}

// Add registers kw in the flat index and in the index of its scope.
// Add must not be called after Freeze.
func (b *CatalogBuilder) Add(kw *KeywordDescriptor) {
	c := b.catalog
	c.root.add(kw)

	var nested map[string]*keywordContainer
	switch {
	case kw.ResourceName != "":
		nested = c.resources
	case kw.LibraryName != "":
		nested = c.libraries
	default:
		return
	}

	key := util.NormalizeName(kw.Scope())
	container, ok := nested[key]
	if !ok {
		container = newKeywordContainer()
		nested[key] = container
	}
	container.add(kw)
}

// Freeze returns the finished Catalog. The builder cannot be used afterwards.
func (b *CatalogBuilder) Freeze() *Catalog {
	c := b.catalog
	b.catalog = nil
	return c
}

// Len returns the number of distinct keyword names in the flat index.
func (c *Catalog) Len() int {
	return c.root.len()
}

// Contains reports whether name refers to a known keyword, either directly
// or qualified with a resource or library name ("Common.Setup").
func (c *Catalog) Contains(name string) bool {
	return c.Find(name) != nil
}

// Find returns the keyword name refers to, or nil. When several keywords
// share the name the first one registered is returned.
func (c *Catalog) Find(name string) *KeywordDescriptor {
	normalized := util.NormalizeName(name)
	if kw := c.root.find(normalized); kw != nil {
		return kw
	}
	for qualifier, remainder := range util.DottedNames(normalized) {
		for _, container := range c.scopes(qualifier) {
			if kw := container.find(remainder); kw != nil {
				return kw
			}
		}
	}
	return nil
}

// MultipleDefinitions returns every definition name is ambiguous between, or
// nil when it is not ambiguous.
func (c *Catalog) MultipleDefinitions(name string) []*KeywordDescriptor {
	normalized := util.NormalizeName(name)

	var multi []*KeywordDescriptor
	multi = append(multi, c.root.multiple[normalized]...)
	for qualifier, remainder := range util.DottedNames(normalized) {
		for _, container := range c.scopes(qualifier) {
			multi = append(multi, container.multiple[remainder]...)
		}
	}

	if len(multi) == 0 {
		return nil
	}
	return multi
}

// scopes returns the nested indexes for a qualifier, resources first.
func (c *Catalog) scopes(qualifier string) []*keywordContainer {
	var out []*keywordContainer
	if container, ok := c.resources[qualifier]; ok {
		out = append(out, container)
	}
	if container, ok := c.libraries[qualifier]; ok {
		out = append(out, container)
	}
	return out
}
