// Package libspec reads library documentation generated by libdoc in its JSON
// format and indexes it by library name.
package libspec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ArgumentKind is the calling convention of a keyword argument.
type ArgumentKind string

const (
	ArgPositionalOnly    ArgumentKind = "POSITIONAL_ONLY"
	ArgPositionalOrNamed ArgumentKind = "POSITIONAL_OR_NAMED"
	ArgVarPositional     ArgumentKind = "VAR_POSITIONAL"
	ArgNamedOnly         ArgumentKind = "NAMED_ONLY"
	ArgVarNamed          ArgumentKind = "VAR_NAMED"
)

// LibraryDoc is the documentation of one library or resource.
type LibraryDoc struct {
	Name      string       `json:"name"`
	Doc       string       `json:"doc"`
	Version   string       `json:"version"`
	Type      string       `json:"type"`
	Scope     string       `json:"scope"`
	DocFormat string       `json:"docFormat"`
	Source    string       `json:"source"`
	Lineno    int          `json:"lineno"`
	Inits     []KeywordDoc `json:"inits"`
	Keywords  []KeywordDoc `json:"keywords"`

	// Path is the libspec file the documentation was read from; empty for
	// compiled-in documentation.
	Path string `json:"-"`
}

// KeywordDoc documents a single keyword.
type KeywordDoc struct {
	Name     string        `json:"name"`
	Args     []ArgumentDoc `json:"args"`
	Doc      string        `json:"doc"`
	ShortDoc string        `json:"shortdoc"`
	Tags     []string      `json:"tags"`
	Source   string        `json:"source"`
	Lineno   int           `json:"lineno"`
}

// ArgumentDoc describes one keyword argument.
type ArgumentDoc struct {
	Name     string       `json:"name"`
	Kind     ArgumentKind `json:"kind"`
	Types    []string     `json:"types"`
	Default  *string      `json:"defaultValue"`
	Required bool         `json:"required"`
	Repr     string       `json:"repr"`
}

// IsVarArgs reports whether the argument collects extra positional values.
func (a ArgumentDoc) IsVarArgs() bool { return a.Kind == ArgVarPositional }

// IsKwArgs reports whether the argument collects extra named values.
func (a ArgumentDoc) IsKwArgs() bool { return a.Kind == ArgVarNamed }

// Type returns the declared type, with unions joined by " | ".
func (a ArgumentDoc) Type() string { return strings.Join(a.Types, " | ") }

// String renders the argument the way libdoc shows it.
func (a ArgumentDoc) String() string {
	if a.Repr != "" {
		return a.Repr
	}
	var b strings.Builder
	switch a.Kind {
	case ArgVarPositional:
		b.WriteString("*")
	case ArgVarNamed:
		b.WriteString("**")
	}
	b.WriteString(a.Name)
	if t := a.Type(); t != "" {
		b.WriteString(": ")
		b.WriteString(t)
	}
	if a.Default != nil {
		if a.Type() != "" {
			b.WriteString(" = ")
		} else {
			b.WriteString("=")
		}
		b.WriteString(*a.Default)
	}
	return b.String()
}

type argumentObject ArgumentDoc

// UnmarshalJSON accepts both the structured form and the plain string form
// ("name=default", "*varargs") written by older libdoc versions.
func (a *ArgumentDoc) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ParseArgument(s)
		return nil
	}
	var obj argumentObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid argument: %w", err)
	}
	*a = ArgumentDoc(obj)
	if a.Kind == "" {
		a.Kind = ArgPositionalOrNamed
	}
	return nil
}

// ParseArgument parses an argument written as in a keyword signature:
// "name", "name=default", "name: int = 1", "*args" or "**kwargs".
// Robot variable syntax (${name}, @{args}, &{kwargs}) is accepted too.
func ParseArgument(s string) ArgumentDoc {
	arg := ArgumentDoc{Kind: ArgPositionalOrNamed, Repr: s}
	rest := strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(rest, "**"):
		arg.Kind, rest = ArgVarNamed, rest[2:]
	case strings.HasPrefix(rest, "*"):
		arg.Kind, rest = ArgVarPositional, rest[1:]
	case strings.HasPrefix(rest, "@{"):
		arg.Kind = ArgVarPositional
	case strings.HasPrefix(rest, "&{"):
		arg.Kind = ArgVarNamed
	}

	if name, def, ok := strings.Cut(rest, "="); ok {
		def = strings.TrimSpace(def)
		arg.Default = &def
		rest = name
	}
	if name, typ, ok := strings.Cut(rest, ":"); ok && !strings.Contains(name, "{") {
		arg.Types = []string{strings.TrimSpace(typ)}
		rest = name
	}

	arg.Name = strings.TrimSpace(rest)
	arg.Required = arg.Default == nil && arg.Kind != ArgVarPositional && arg.Kind != ArgVarNamed
	return arg
}

// ParseArguments applies ParseArgument to each entry.
func ParseArguments(specs []string) []ArgumentDoc {
	if len(specs) == 0 {
		return nil
	}
	args := make([]ArgumentDoc, len(specs))
	for i, s := range specs {
		args[i] = ParseArgument(s)
	}
	return args
}
