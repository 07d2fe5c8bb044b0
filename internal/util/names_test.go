package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Log", "log"},
		{"Should Be Equal", "shouldbeequal"},
		{"should_be_equal", "shouldbeequal"},
		{"BuiltIn.Log Many", "builtin.logmany"},
		{"ÄPFEL", "äpfel"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestDottedNames(t *testing.T) {
	type split struct{ qualifier, remainder string }

	collect := func(name string) []split {
		var out []split
		for q, r := range DottedNames(name) {
			out = append(out, split{q, r})
		}
		return out
	}

	assert.Equal(t, []split{{"a", "b.c"}, {"a.b", "c"}}, collect("a.b.c"))
	assert.Equal(t, []split{{"common", "setup"}}, collect("common.setup"))
	assert.Empty(t, collect("nodots"))
	assert.Empty(t, collect(".leading"))
	assert.Equal(t, []split{{"a", "b."}}, collect("a.b."))
}

func TestPlaceholderPattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		matches bool
	}{
		{"do${x}", "do10", true},
		{"do${x}", "do", false},
		{"do{x}", "dosomething", true},
		{"add${a}and${b}", "add1and2", true},
		{"add${a}and${b}", "add1and", false},
		{"open${page}page", "openloginpage", true},
		{"open${page}page", "openlogin", false},
		{"price(${x})", "price(5)", true},
		{"price(${x})", "price5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.input, func(t *testing.T) {
			re, ok := PlaceholderPattern(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.matches, re.MatchString(tt.input))
		})
	}

	_, ok := PlaceholderPattern("plain")
	assert.False(t, ok)

	_, ok = PlaceholderPattern("broken{")
	assert.False(t, ok)
}

func TestVariables(t *testing.T) {
	assert.True(t, IsVariable("${x}"))
	assert.True(t, IsVariable("@{items}"))
	assert.True(t, IsVariable("${a${b}}"))
	assert.False(t, IsVariable("${x}[0]"))
	assert.False(t, IsVariable("x"))
	assert.False(t, IsVariable("${}"))

	assert.True(t, IsScalarAssign("${i}"))
	assert.False(t, IsScalarAssign("@{i}"))
	assert.False(t, IsScalarAssign("i"))
	assert.False(t, IsScalarAssign("${i}[0]"))
}

func TestIsReserved(t *testing.T) {
	for _, word := range []string{"FOR", "END", "IF", "ELSE", "ELSE IF"} {
		assert.True(t, IsReserved(word), word)
	}
	assert.False(t, IsReserved("end"))
	assert.False(t, IsReserved("Log"))
}

func TestDocumentTypeOf(t *testing.T) {
	assert.Equal(t, DocumentTestCase, DocumentTypeOf("file:///ws/tests/login.robot"))
	assert.Equal(t, DocumentResource, DocumentTypeOf("/ws/keywords/common.resource"))
	assert.Equal(t, DocumentInit, DocumentTypeOf(`C:\ws\tests\__init__.robot`))
	assert.Equal(t, "resource", DocumentResource.String())
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "common", DocumentName("file:///ws/common.resource"))
	assert.Equal(t, "login", DocumentName(`C:\ws\login.robot`))
	assert.Equal(t, "README", DocumentName("README"))
}
