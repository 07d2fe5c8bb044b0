package analysis_test

import (
	"context"
	"errors"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/ast"
	"github.com/CWBudde/go-robot-lsp/internal/ast/asttest"
	"github.com/CWBudde/go-robot-lsp/internal/libspec"
	"github.com/CWBudde/go-robot-lsp/internal/util"
)

type testDoc struct {
	uri  string
	root *ast.Node
	err  error
}

func (d *testDoc) URI() string { return d.uri }

func (d *testDoc) AST() (*ast.Node, error) { return d.root, d.err }

func suite(uri string, sections ...*ast.Node) *testDoc {
	return &testDoc{uri: uri, root: asttest.File(sections...)}
}

func settings(nodes ...*ast.Node) *ast.Node {
	return asttest.Section(ast.KindSettingSection, 1, "*** Settings ***", nodes...)
}

func testCases(line int, tests ...*ast.Node) *ast.Node {
	return asttest.Section(ast.KindTestCaseSection, line, "*** Test Cases ***", tests...)
}

func keywords(line int, kws ...*ast.Node) *ast.Node {
	return asttest.Section(ast.KindKeywordSection, line, "*** Keywords ***", kws...)
}

// calls builds a test case calling each keyword on consecutive lines.
func calls(line int, names ...string) *ast.Node {
	body := make([]*ast.Node, len(names))
	for i, name := range names {
		body[i] = asttest.KeywordCall(line+1+i, name)
	}
	return asttest.TestCase(line, "Example", body...)
}

type fakeLibraries struct {
	libs     map[string]*libspec.LibraryDoc
	errors   map[string]string
	warnings map[string]string
	lookups  []string
}

func newFakeLibraries(libs ...*libspec.LibraryDoc) *fakeLibraries {
	f := &fakeLibraries{libs: map[string]*libspec.LibraryDoc{}, errors: map[string]string{}, warnings: map[string]string{}}
	for _, lib := range libs {
		f.libs[util.NormalizeName(lib.Name)] = lib
	}
	return f
}

func (f *fakeLibraries) ResolveLibrary(name string, args []string, alias, referencingURI string) (*libspec.LibraryDoc, bool) {
	f.lookups = append(f.lookups, name)
	lib, ok := f.libs[util.NormalizeName(name)]
	return lib, ok
}

func (f *fakeLibraries) LibraryError(name string) string { return f.errors[name] }

func (f *fakeLibraries) LibraryWarning(name string) string { return f.warnings[name] }

func library(name string, keywordNames ...string) *libspec.LibraryDoc {
	lib := &libspec.LibraryDoc{Name: name, Source: "/libs/" + name + ".py"}
	for i, kw := range keywordNames {
		lib.Keywords = append(lib.Keywords, libspec.KeywordDoc{Name: kw, Doc: kw + " documentation.", Lineno: 10 * (i + 1)})
	}
	return lib
}

type fakeResources struct {
	docs     map[string]*testDoc
	resolved int
}

func newFakeResources(docs ...*testDoc) *fakeResources {
	f := &fakeResources{docs: map[string]*testDoc{}}
	for _, d := range docs {
		f.docs[util.DocumentName(d.uri)] = d
	}
	return f
}

func (f *fakeResources) ResolveResource(ctx context.Context, from analysis.Document, imp *ast.Node) (analysis.Document, bool) {
	f.resolved++
	d, ok := f.docs[util.DocumentName(imp.ResourceName())]
	if !ok {
		return nil, false
	}
	return d, true
}

func messages(diags []analysis.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}

var errBrokenParser = errors.New("parser exited with status 1")
