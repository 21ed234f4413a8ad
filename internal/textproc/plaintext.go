package textproc

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmext "github.com/yuin/goldmark/extension"
	gast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(gmext.GFM))

var whitespaceRun = regexp.MustCompile(`[ \t]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// ExtractPlainText walks Markdown source and returns its prose text,
// stripping code blocks, tables, and raw HTML so the FTS corpus and
// summary previews never surface markup or tabular noise.
func ExtractPlainText(source string) string {
	reader := text.NewReader([]byte(source))
	doc := md.Parser().Parse(reader)

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		case gast.KindTable:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			t := n.(*ast.Text)
			b.Write(t.Segment.Value([]byte(source)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case ast.KindString:
			t := n.(*ast.String)
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})

	out := b.String()
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = blankLineRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// NormalizeWhitespace turns newlines into spaces, collapses runs of spaces
// and tabs to single spaces, and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " "))
}
