// Package ast models the Robot Framework syntax tree produced by the external
// parser, and provides the visitor used to traverse it.
package ast

// Kind identifies the type of a Node. Kinds form a fixed single-inheritance
// hierarchy (see Parent) so that a handler registered for a general kind also
// receives every more specific kind below it.
type Kind uint8

const (
	// Abstract kinds. They are never produced by the parser for well-known
	// node types, but handlers may be registered for them.
	KindNode Kind = iota
	KindBlock
	KindStatement
	KindHeader
	KindFixture

	// Blocks.
	KindFile
	KindSection
	KindSettingSection
	KindVariableSection
	KindTestCaseSection
	KindKeywordSection
	KindCommentSection
	KindTestCase
	KindKeyword
	KindForLoop
	KindIf

	// Headers.
	KindSectionHeader
	KindTestCaseName
	KindKeywordName
	KindForHeader
	KindIfHeader
	KindElseIfHeader
	KindElseHeader

	// Fixtures.
	KindSuiteSetup
	KindSuiteTeardown
	KindTestSetup
	KindTestTeardown
	KindSetup
	KindTeardown

	// Plain statements.
	KindEnd
	KindLibraryImport
	KindResourceImport
	KindVariablesImport
	KindDocumentation
	KindMetadata
	KindForceTags
	KindDefaultTags
	KindTags
	KindArguments
	KindReturn
	KindTimeout
	KindTestTimeout
	KindTemplate
	KindTestTemplate
	KindVariable
	KindKeywordCall
	KindComment
	KindEmptyLine
	KindError

	kindCount
)

type kindInfo struct {
	name   string
	parent Kind
	// root is set only for KindNode, which has no parent.
	root bool
}

var kinds = [kindCount]kindInfo{
	KindNode:      {name: "Node", root: true},
	KindBlock:     {name: "Block", parent: KindNode},
	KindStatement: {name: "Statement", parent: KindNode},
	KindHeader:    {name: "Header", parent: KindStatement},
	KindFixture:   {name: "Fixture", parent: KindStatement},

	KindFile:            {name: "File", parent: KindBlock},
	KindSection:         {name: "Section", parent: KindBlock},
	KindSettingSection:  {name: "SettingSection", parent: KindSection},
	KindVariableSection: {name: "VariableSection", parent: KindSection},
	KindTestCaseSection: {name: "TestCaseSection", parent: KindSection},
	KindKeywordSection:  {name: "KeywordSection", parent: KindSection},
	KindCommentSection:  {name: "CommentSection", parent: KindSection},
	KindTestCase:        {name: "TestCase", parent: KindBlock},
	KindKeyword:         {name: "Keyword", parent: KindBlock},
	KindForLoop:         {name: "ForLoop", parent: KindBlock},
	KindIf:              {name: "If", parent: KindBlock},

	KindSectionHeader: {name: "SectionHeader", parent: KindHeader},
	KindTestCaseName:  {name: "TestCaseName", parent: KindHeader},
	KindKeywordName:   {name: "KeywordName", parent: KindHeader},
	KindForHeader:     {name: "ForHeader", parent: KindHeader},
	KindIfHeader:      {name: "IfHeader", parent: KindHeader},
	KindElseIfHeader:  {name: "ElseIfHeader", parent: KindHeader},
	KindElseHeader:    {name: "ElseHeader", parent: KindHeader},

	KindSuiteSetup:    {name: "SuiteSetup", parent: KindFixture},
	KindSuiteTeardown: {name: "SuiteTeardown", parent: KindFixture},
	KindTestSetup:     {name: "TestSetup", parent: KindFixture},
	KindTestTeardown:  {name: "TestTeardown", parent: KindFixture},
	KindSetup:         {name: "Setup", parent: KindFixture},
	KindTeardown:      {name: "Teardown", parent: KindFixture},

	KindEnd:             {name: "End", parent: KindStatement},
	KindLibraryImport:   {name: "LibraryImport", parent: KindStatement},
	KindResourceImport:  {name: "ResourceImport", parent: KindStatement},
	KindVariablesImport: {name: "VariablesImport", parent: KindStatement},
	KindDocumentation:   {name: "Documentation", parent: KindStatement},
	KindMetadata:        {name: "Metadata", parent: KindStatement},
	KindForceTags:       {name: "ForceTags", parent: KindStatement},
	KindDefaultTags:     {name: "DefaultTags", parent: KindStatement},
	KindTags:            {name: "Tags", parent: KindStatement},
	KindArguments:       {name: "Arguments", parent: KindStatement},
	KindReturn:          {name: "Return", parent: KindStatement},
	KindTimeout:         {name: "Timeout", parent: KindStatement},
	KindTestTimeout:     {name: "TestTimeout", parent: KindStatement},
	KindTemplate:        {name: "Template", parent: KindStatement},
	KindTestTemplate:    {name: "TestTemplate", parent: KindStatement},
	KindVariable:        {name: "Variable", parent: KindStatement},
	KindKeywordCall:     {name: "KeywordCall", parent: KindStatement},
	KindComment:         {name: "Comment", parent: KindStatement},
	KindEmptyLine:       {name: "EmptyLine", parent: KindStatement},
	KindError:           {name: "Error", parent: KindStatement},
}

// Older parser releases used different class names for a few node types.
var kindAliases = map[string]Kind{
	"For":             KindForLoop,
	"ForLoopHeader":   KindForHeader,
	"IfBlock":         KindIf,
	"IfStatement":     KindIfHeader,
	"ElseIfStatement": KindElseIfHeader,
	"Else":            KindElseHeader,
	"ReturnSetting":   KindReturn,
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds)+len(kindAliases))
	for k := range kindCount {
		m[kinds[k].name] = k
	}
	for name, k := range kindAliases {
		m[name] = k
	}
	return m
}()

// String returns the parser class name of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return "Unknown"
	}
	return kinds[k].name
}

// Parent returns the direct ancestor of k in the kind hierarchy.
// The second result is false for KindNode.
func (k Kind) Parent() (Kind, bool) {
	if k >= kindCount || kinds[k].root {
		return KindNode, false
	}
	return kinds[k].parent, true
}

// Is reports whether k is other or descends from it.
func (k Kind) Is(other Kind) bool {
	for cur := k; ; {
		if cur == other {
			return true
		}
		parent, ok := cur.Parent()
		if !ok {
			return false
		}
		cur = parent
	}
}

// Ancestry returns k followed by each of its ancestors, ending with KindNode.
func (k Kind) Ancestry() []Kind {
	chain := []Kind{k}
	for cur := k; ; {
		parent, ok := cur.Parent()
		if !ok {
			return chain
		}
		chain = append(chain, parent)
		cur = parent
	}
}

// KindOf maps a parser class name to its Kind.
func KindOf(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}
