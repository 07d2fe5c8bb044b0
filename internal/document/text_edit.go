// Package document applies editor changes to document text and converts
// positions between the editor's UTF-16 columns and the code point columns
// the Robot Framework parser reports.
package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyChanges applies the content changes of a didChange notification in
// order. Whole-document and ranged changes may be mixed.
func ApplyChanges(text string, changes []any) (string, error) {
	for i, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			updated, err := ApplyContentChange(text, c)
			if err != nil {
				return "", fmt.Errorf("change %d: %w", i, err)
			}
			text = updated
		default:
			return "", fmt.Errorf("change %d: unsupported content change %T", i, change)
		}
	}
	return text, nil
}

// ApplyContentChange applies a ranged change. A change without range
// replaces the whole text.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	lines := NewLines(text)
	start, err := lines.Offset(change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}
	end, err := lines.Offset(change.Range.End)
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}
	if start > end {
		return "", fmt.Errorf("start %d:%d after end %d:%d",
			change.Range.Start.Line, change.Range.Start.Character,
			change.Range.End.Line, change.Range.End.Character)
	}

	return text[:start] + change.Text + text[end:], nil
}

// Lines indexes the line starts of a text. Lines end at "\n"; a preceding
// "\r" is not part of the line content.
type Lines struct {
	text   string
	starts []int
}

// NewLines indexes text.
func NewLines(text string) *Lines {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lines{text: text, starts: starts}
}

// Count returns the number of lines. A trailing newline starts an empty last
// line.
func (l *Lines) Count() int {
	return len(l.starts)
}

// Line returns the content of line i without its line ending.
func (l *Lines) Line(i int) string {
	if i < 0 || i >= len(l.starts) {
		return ""
	}
	end := len(l.text)
	if i+1 < len(l.starts) {
		end = l.starts[i+1] - 1
	}
	return strings.TrimSuffix(l.text[l.starts[i]:end], "\r")
}

// Offset converts an editor position to a byte offset. A character past the
// end of its line clamps to the line end; a line past the end of the text is
// an error, except the position just after the last line.
func (l *Lines) Offset(pos protocol.Position) (int, error) {
	line := int(pos.Line)
	if line >= len(l.starts) {
		if line == len(l.starts) && pos.Character == 0 {
			return len(l.text), nil
		}
		return 0, fmt.Errorf("line %d out of range (0-%d)", line, len(l.starts)-1)
	}

	content := l.Line(line)
	return l.starts[line] + utf16ToByteOffset(content, int(pos.Character)), nil
}

// Position converts a byte offset to an editor position.
func (l *Lines) Position(offset int) (protocol.Position, error) {
	if offset < 0 || offset > len(l.text) {
		return protocol.Position{}, fmt.Errorf("offset %d out of range (0-%d)", offset, len(l.text))
	}

	line := lineOf(l.starts, offset)
	content := l.Line(line)
	inLine := min(offset-l.starts[line], len(content))
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(utf16Length(content[:inLine])),
	}, nil
}

// UTF16Column converts a code point column on line to UTF-16 code units.
func (l *Lines) UTF16Column(line, codePoints int) int {
	content := l.Line(line)
	units := 0
	for _, r := range content {
		if codePoints <= 0 {
			break
		}
		units += runeUnits(r)
		codePoints--
	}
	// Columns past the line end are kept as they are.
	return units + max(codePoints, 0)
}

// CodePointColumn converts a UTF-16 column on line to code points.
func (l *Lines) CodePointColumn(line, units int) int {
	content := l.Line(line)
	points := 0
	for _, r := range content {
		if units <= 0 {
			break
		}
		units -= runeUnits(r)
		points++
	}
	return points + max(units, 0)
}

func lineOf(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// utf16ToByteOffset returns the byte offset of a UTF-16 column in line,
// clamped to the line length. A column inside a surrogate pair rounds up.
func utf16ToByteOffset(line string, units int) int {
	offset := 0
	for units > 0 && offset < len(line) {
		r, size := utf8.DecodeRuneInString(line[offset:])
		units -= runeUnits(r)
		offset += size
	}
	return offset
}

func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
