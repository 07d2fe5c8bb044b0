// Package util provides common utility functions used across the LSP server.
package util

import (
	"iter"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts a keyword, library or resource name to the form
// used for comparison: case-folded, with spaces and underscores removed.
func NormalizeName(name string) string {
	// Casers are stateful, so one is created per call.
	folded := cases.Fold().String(norm.NFC.String(name))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '_':
			return -1
		}
		return r
	}, folded)
}

// DottedNames yields every (qualifier, remainder) split of name at a dot,
// shortest qualifier first. Splits with an empty side are skipped.
//
//	"a.b.c" -> ("a", "b.c"), ("a.b", "c")
func DottedNames(name string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := 0; i < len(name); i++ {
			if name[i] != '.' {
				continue
			}
			qualifier, remainder := name[:i], name[i+1:]
			if qualifier == "" || remainder == "" {
				continue
			}
			if !yield(qualifier, remainder) {
				return
			}
		}
	}
}

// HasPlaceholder reports whether a name embeds an argument placeholder.
func HasPlaceholder(name string) bool {
	return strings.Contains(name, "{")
}

// PlaceholderPattern compiles a (normalized) keyword name with embedded
// `${arg}` or `{arg}` segments into an anchored pattern. Each placeholder
// matches one or more characters; the text around it must match literally.
// The second result is false when the name has no well-formed placeholder.
func PlaceholderPattern(name string) (*regexp.Regexp, bool) {
	var b strings.Builder
	b.WriteString("^")
	found := false
	rest := name
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closing := matchingBrace(rest, open)
		if closing < 0 {
			break
		}
		literal := rest[:open]
		if strings.HasSuffix(literal, "$") {
			literal = literal[:len(literal)-1]
		}
		b.WriteString(regexp.QuoteMeta(literal))
		b.WriteString("(.+?)")
		found = true
		rest = rest[closing+1:]
	}
	if !found {
		return nil, false
	}
	b.WriteString(regexp.QuoteMeta(rest))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, false
	}
	return re, true
}

func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IsVariable reports whether s is exactly one variable such as `${x}`,
// `@{list}`, `&{dict}` or `%{ENV}`.
func IsVariable(s string) bool {
	if len(s) < 4 || s[1] != '{' {
		return false
	}
	switch s[0] {
	case '$', '@', '&', '%':
	default:
		return false
	}
	return matchingBrace(s, 1) == len(s)-1
}

// IsScalarAssign reports whether s can be assigned to as a scalar, e.g. a
// FOR loop variable. Item access like `${x}[0]` is not assignable.
func IsScalarAssign(s string) bool {
	return strings.HasPrefix(s, "$") && IsVariable(s)
}

// Control structure markers that are never valid keyword names.
var reservedWords = map[string]bool{
	"FOR":     true,
	"END":     true,
	"IF":      true,
	"ELSE IF": true,
	"ELSE":    true,
}

// IsReserved reports whether name is a control structure marker used
// where a keyword call is expected. The match is exact.
func IsReserved(name string) bool {
	return reservedWords[name]
}

// DocumentType classifies a document by its file name.
type DocumentType int

const (
	DocumentTestCase DocumentType = iota
	DocumentResource
	DocumentInit
)

func (t DocumentType) String() string {
	switch t {
	case DocumentResource:
		return "resource"
	case DocumentInit:
		return "init"
	}
	return "test_case"
}

// DocumentTypeOf derives the document type from a path or URI.
func DocumentTypeOf(p string) DocumentType {
	base := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	switch {
	case strings.HasPrefix(base, "__init__."):
		return DocumentInit
	case strings.HasSuffix(base, ".resource"):
		return DocumentResource
	}
	return DocumentTestCase
}

// DocumentName is the file name of a path or URI without its extension,
// which is how a resource is referred to in qualified keyword names.
func DocumentName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
