package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/builtins"
	"github.com/CWBudde/go-robot-lsp/internal/libspec"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

// BuildCatalog collects the keywords visible from doc: its own keywords, the
// BuiltIn library, and the keywords of every imported library and resource,
// following resource imports transitively.
func (a *Analyzer) BuildCatalog(ctx context.Context, doc Document) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	root, err := documentAST(doc)
	if err != nil {
		return nil, err
	}
	return a.buildCatalog(ctx, doc, root)
}

func (a *Analyzer) buildCatalog(ctx context.Context, doc Document, root *ast.Node) (*Catalog, error) {
	c := &collector{
		analyzer: a,
		ctx:      ctx,
		builder:  NewCatalogBuilder(),
		visited:  map[string]bool{doc.URI(): true},
	}

	c.addLibrary(builtins.LibraryName, nil, "", doc.URI())
	if err := c.addUserKeywords(doc, root, util.DocumentName(doc.URI())); err != nil {
		return nil, err
	}
	if err := c.collectImports(doc, root); err != nil {
		return nil, err
	}

	catalog := c.builder.Freeze()
	a.Logger.Debug().Str("uri", doc.URI()).Int("keywords", catalog.Len()).Int("resources", len(c.visited)-1).Msg("built keyword catalog")
	return catalog, nil
}

type collector struct {
	analyzer *Analyzer
	ctx      context.Context
	builder  *CatalogBuilder
	// visited holds the URIs of documents whose imports were collected.
	visited map[string]bool
}

// collectImports walks the settings of doc, adding the keywords of every
// import. Sections that cannot hold imports are skipped.
func (c *collector) collectImports(doc Document, root *ast.Node) error {
	var failure error

	v := ast.NewVisitor(c.ctx).
		On(ast.KindTestCaseSection, ast.Skip).
		On(ast.KindKeywordSection, ast.Skip).
		On(ast.KindVariableSection, ast.Skip).
		On(ast.KindCommentSection, ast.Skip).
		On(ast.KindLibraryImport, func(v *ast.Visitor, n *ast.Node) {
			if name := n.LibraryName(); name != "" {
				c.addLibrary(name, n.LibraryArgs(), n.LibraryAlias(), doc.URI())
			}
		}).
		On(ast.KindResourceImport, func(v *ast.Visitor, n *ast.Node) {
			if err := c.addResource(doc, n); err != nil {
				failure = err
				v.Stop()
			}
		})

	if err := v.Walk(root); err != nil {
		return err
	}
	return failure
}

func (c *collector) addLibrary(name string, args []string, alias, referencingURI string) {
	var lib *libspec.LibraryDoc
	if c.analyzer.Libraries != nil {
		lib, _ = c.analyzer.Libraries.ResolveLibrary(name, args, alias, referencingURI)
	}
	if lib == nil && util.NormalizeName(name) == util.NormalizeName(builtins.LibraryName) {
		lib = builtins.Library()
	}
	if lib == nil {
		return
	}

	for i := range lib.Keywords {
		kw := &lib.Keywords[i]
		c.builder.Add(&KeywordDescriptor{
			Name:         kw.Name,
			LibraryName:  lib.Name,
			LibraryAlias: alias,
			Args:         kw.Args,
			Doc:          kw.Doc,
			Source:       firstNonEmpty(kw.Source, lib.Source),
			Line:         kw.Lineno,
		})
	}
}

func (c *collector) addResource(from Document, imp *ast.Node) error {
	resolver := c.analyzer.Resources
	if resolver == nil || imp.ResourceName() == "" {
		return nil
	}
	res, ok := resolver.ResolveResource(c.ctx, from, imp)
	if !ok || c.visited[res.URI()] {
		return nil
	}
	c.visited[res.URI()] = true

	root, err := documentAST(res)
	if err != nil {
		// An unparsable resource contributes no keywords; the import itself
		// resolved, so nothing is reported for it.
		c.analyzer.Logger.Debug().Err(err).Str("uri", res.URI()).Msg("skipping resource without syntax tree")
		return nil
	}

	if err := c.addUserKeywords(res, root, util.DocumentName(res.URI())); err != nil {
		return err
	}
	return c.collectImports(res, root)
}

// addUserKeywords registers the keywords defined in the Keywords section of
// doc under the given resource name.
func (c *collector) addUserKeywords(doc Document, root *ast.Node, resourceName string) error {
	defs, err := UserKeywords(c.ctx, root)
	if err != nil {
		return err
	}
	for _, def := range defs {
		c.builder.Add(&KeywordDescriptor{
			Name:         def.Name,
			ResourceName: resourceName,
			Args:         def.Args,
			Doc:          def.Doc,
			Source:       doc.URI(),
			Line:         def.Node.Line,
		})
	}
	return nil
}

// UserKeyword is a keyword defined in a document's Keywords section.
type UserKeyword struct {
	Name string
	Args []libspec.ArgumentDoc
	Doc  string
	Node *ast.Node
}

// UserKeywords lists the keywords defined in root, in source order.
func UserKeywords(ctx context.Context, root *ast.Node) ([]UserKeyword, error) {
	var defs []UserKeyword

	err := ast.NewVisitor(ctx).
		On(ast.KindTestCaseSection, ast.Skip).
		On(ast.KindSettingSection, ast.Skip).
		On(ast.KindVariableSection, ast.Skip).
		On(ast.KindCommentSection, ast.Skip).
		On(ast.KindKeyword, func(v *ast.Visitor, n *ast.Node) {
			name := n.Name()
			if name == "" {
				return
			}
			def := UserKeyword{Name: name, Node: n}
			for _, child := range n.Body {
				switch child.Kind {
				case ast.KindArguments:
					def.Args = libspec.ParseArguments(child.Values(ast.TokenArgument))
				case ast.KindDocumentation:
					def.Doc = strings.Join(child.Values(ast.TokenArgument), " ")
				}
			}
			defs = append(defs, def)
		}).
		Walk(root)
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
