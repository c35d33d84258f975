package exporters

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// blockMarkers are the characters that open a markdown block (heading,
// list, quote, fence, thematic break, setext underline, html block, link
// reference definition) when they start a line. The backslash is included
// so that escaping stays reversible.
const blockMarkers = "#>+*-=_`~<[\\"

// ExtractQuotes returns the text of every blockquote in a markdown document,
// with block markers unescaped the way quoteBody escaped them. Keys are
// normalized by quoteKey.
func ExtractQuotes(source []byte) map[string]struct{} {
	quotes := make(map[string]struct{})
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindBlockquote {
			return ast.WalkContinue, nil
		}
		raw := blockText(n, source)
		lines := strings.Split(raw, "\n")
		for i, line := range lines {
			lines[i] = unescapeLine(strings.TrimSpace(line))
		}
		if quote := quoteKey(strings.Join(lines, "\n")); quote != "" {
			quotes[quote] = struct{}{}
		}
		return ast.WalkSkipChildren, nil
	})

	return quotes
}

// blockText joins the source lines of all leaf blocks under n.
func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || child.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := child.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		return ast.WalkSkipChildren, nil
	})
	return strings.TrimSpace(buf.String())
}

// quoteKey is the form a clipping is compared under: first letter upper
// case, every line trimmed, blank lines dropped.
func quoteKey(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return upcaseFirst(strings.Join(lines, "\n"))
}

// quoteBody renders a clipping as a blockquote whose every line parses back
// as plain paragraph text.
func quoteBody(s string) string {
	lines := strings.Split(quoteKey(s), "\n")
	for i, line := range lines {
		lines[i] = "> " + escapeLine(line)
	}
	return strings.Join(lines, "\n")
}

// escapeLine backslash-escapes a leading block marker. Ordered list markers
// ("1." or "1)") get the backslash between the digits and the delimiter.
func escapeLine(line string) string {
	if line == "" {
		return line
	}
	if strings.ContainsRune(blockMarkers, rune(line[0])) {
		return "\\" + line
	}
	if n := digitPrefix(line); n > 0 {
		rest := line[n:]
		if isOrderedDelim(strings.TrimLeft(rest, "\\")) {
			return line[:n] + "\\" + rest
		}
	}
	return line
}

// unescapeLine reverses escapeLine.
func unescapeLine(line string) string {
	if len(line) >= 2 && line[0] == '\\' && strings.ContainsRune(blockMarkers, rune(line[1])) {
		return line[1:]
	}
	if n := digitPrefix(line); n > 0 {
		rest := line[n:]
		if strings.HasPrefix(rest, "\\") && isOrderedDelim(strings.TrimLeft(rest, "\\")) {
			return line[:n] + rest[1:]
		}
	}
	return line
}

func digitPrefix(line string) int {
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	return n
}

func isOrderedDelim(s string) bool {
	return strings.HasPrefix(s, ".") || strings.HasPrefix(s, ")")
}
