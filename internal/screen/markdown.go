package screen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

var (
	mathGuard  = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Flatten turns generated markdown prose into plain terminal text. Math
// spans pass through untouched so the math pass can find them later.
func Flatten(src string) string {
	guarded, spans := guardMath(src)
	source := []byte(guarded)
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	var lists []int // next ordinal per open list, 0 for bullets
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.Blockquote, *ast.ThematicBreak:
			if !entering {
				if _, ok := n.(*ast.ThematicBreak); ok {
					b.WriteString("----")
				}
				b.WriteString("\n\n")
			}
		case *ast.List:
			if entering {
				next := 0
				if n.IsOrdered() {
					next = n.Start
				}
				lists = append(lists, next)
			} else {
				lists = lists[:len(lists)-1]
				if len(lists) == 0 {
					b.WriteString("\n")
				}
			}
		case *ast.ListItem:
			if entering {
				depth := len(lists) - 1
				b.WriteString(strings.Repeat("  ", depth))
				if next := lists[depth]; next > 0 {
					b.WriteString(strconv.Itoa(next) + ". ")
					lists[depth]++
				} else {
					b.WriteString("• ")
				}
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteString("\n")
			}
		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(source))
				switch {
				case n.HardLineBreak():
					b.WriteString("\n")
				case n.SoftLineBreak():
					b.WriteString(" ")
				}
			}
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(n.URL(source))
				return ast.WalkSkipChildren, nil
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.WriteString("    ")
					b.Write(seg.Value(source))
				}
				b.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := blankLines.ReplaceAllString(strings.TrimRight(b.String(), "\n "), "\n\n")
	return restoreMath(out, spans)
}

// guardMath swaps math spans for private-use markers so emphasis rules do
// not eat underscores and asterisks inside formulas.
func guardMath(s string) (string, []string) {
	var spans []string
	guarded := mathSpan.ReplaceAllStringFunc(s, func(span string) string {
		spans = append(spans, span)
		return fmt.Sprintf("\uE000%d\uE001", len(spans)-1)
	})
	return guarded, spans
}

func restoreMath(s string, spans []string) string {
	if len(spans) == 0 {
		return s
	}
	return mathGuard.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(mathGuard.FindStringSubmatch(m)[1])
		if err != nil || i >= len(spans) {
			return m
		}
		return spans[i]
	})
}
