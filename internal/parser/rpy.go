// Package parser extracts old/new translation pairs from Ren'Py script
// files and rewrites the new lines without disturbing anything else.
package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrNotUTF8 marks a file whose bytes are not valid UTF-8. Such files are
// skipped rather than risk corrupting them on rewrite.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// UnterminatedStringError marks a quoted payload with no closing quote on
// its line. Multi-line quoted payloads are not supported; the file is
// skipped instead of silently mishandled.
type UnterminatedStringError struct {
	Line int // 0-based
}

func (e *UnterminatedStringError) Error() string {
	return fmt.Sprintf("unterminated quoted string on line %d", e.Line+1)
}

// Load reads a script file into a Document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotUTF8)
	}

	text := string(data)
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}

	return &Document{
		Path:            path,
		Lines:           strings.Split(text, "\n"),
		TrailingNewline: trailing,
	}, nil
}

// Content reassembles the document. A document that was never rewritten
// reproduces the original file byte-for-byte.
func (d *Document) Content() string {
	s := strings.Join(d.Lines, "\n")
	if d.TrailingNewline {
		s += "\n"
	}
	return s
}

// lineMatch describes a keyword-plus-quoted-string line.
type lineMatch struct {
	// Payload is the unescaped string content.
	Payload string
	// OpenQuote and CloseQuote are byte offsets of the two quote
	// characters in the raw line.
	OpenQuote  int
	CloseQuote int
}

// scanLine matches `<ws> <keyword> <ws> "<payload>"` and unescapes the
// payload with an explicit normal / in-string / escape-pending scanner.
// \" resolves to a literal quote; every other backslash escape passes
// through verbatim. Lines that do not fit the shape return ok=false; a
// string with no closing quote returns an error.
func scanLine(line, keyword string) (lineMatch, bool, error) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}

	if !strings.HasPrefix(line[i:], keyword) {
		return lineMatch{}, false, nil
	}
	i += len(keyword)

	// The keyword must be a whole token followed by whitespace.
	if i >= len(line) || (line[i] != ' ' && line[i] != '\t') {
		return lineMatch{}, false, nil
	}
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}

	if i >= len(line) || line[i] != '"' {
		return lineMatch{}, false, nil
	}
	open := i
	i++

	var payload strings.Builder
	escaped := false
	for ; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			if c == '"' {
				payload.WriteByte('"')
			} else {
				payload.WriteByte('\\')
				payload.WriteByte(c)
			}
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return lineMatch{
				Payload:    payload.String(),
				OpenQuote:  open,
				CloseQuote: i,
			}, true, nil
		default:
			payload.WriteByte(c)
		}
	}

	return lineMatch{}, false, &UnterminatedStringError{}
}

// Escape prepares translated text for embedding in a quoted payload.
// Bare double quotes become \"; backslash escapes already present pass
// through untouched.
func Escape(s string) string {
	var out strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			out.WriteByte(c)
			escaped = false
		case c == '\\':
			out.WriteByte(c)
			escaped = true
		case c == '"':
			out.WriteString(`\"`)
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// isSkippable reports whether a line may sit between an old line and its
// new line: blank lines and comments.
func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// Extract scans the document for old/new pairs. An old line followed
// (across blank and comment lines) by a new line forms a unit; anything
// else forms no unit and is never mutated. An unterminated string on an
// old or new line aborts extraction for the whole file.
func Extract(d *Document) ([]TranslationUnit, error) {
	var units []TranslationUnit

	for i := 0; i < len(d.Lines); i++ {
		oldMatch, ok, err := scanLine(d.Lines[i], "old")
		if err != nil {
			return nil, &UnterminatedStringError{Line: i}
		}
		if !ok {
			continue
		}

		j := i + 1
		for j < len(d.Lines) && isSkippable(d.Lines[j]) {
			j++
		}
		if j >= len(d.Lines) {
			break
		}

		newMatch, ok, err := scanLine(d.Lines[j], "new")
		if err != nil {
			return nil, &UnterminatedStringError{Line: j}
		}
		if !ok {
			// The old line stays unpaired; rescan from the line that
			// broke the pair, it may start the next one.
			i = j - 1
			continue
		}

		units = append(units, TranslationUnit{
			Source:  oldMatch.Payload,
			Target:  newMatch.Payload,
			OldLine: i,
			NewLine: j,
		})
		i = j
	}

	return units, nil
}

// Rewrite replaces the quoted payload of the unit's new line with the
// translated text. Everything outside the quotes — indentation, the new
// token, trailing carriage returns or comments — is preserved.
func (d *Document) Rewrite(unit TranslationUnit, translated string) error {
	if unit.NewLine < 0 || unit.NewLine >= len(d.Lines) {
		return fmt.Errorf("line index %d out of range", unit.NewLine)
	}

	line := d.Lines[unit.NewLine]
	m, ok, err := scanLine(line, "new")
	if err != nil {
		return &UnterminatedStringError{Line: unit.NewLine}
	}
	if !ok {
		return fmt.Errorf("line %d is not a new statement", unit.NewLine+1)
	}

	d.Lines[unit.NewLine] = line[:m.OpenQuote+1] + Escape(translated) + line[m.CloseQuote:]
	return nil
}
