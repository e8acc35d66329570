// ABOUTME: Plain-text previews of the latest message for channel listings.
// ABOUTME: Strips markdown by walking the goldmark AST and collecting text segments.

package channel

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// previewMaxRunes caps previews; anything longer is cut with an ellipsis.
const previewMaxRunes = 120

// Preview returns a single-line plain-text preview of the channel's most
// recent message, markdown stripped. Empty channels preview as "".
func (r *Registry) Preview(channelID string) (string, error) {
	ch, err := r.Get(channelID)
	if err != nil {
		return "", fmt.Errorf("previewing: %w", err)
	}
	if len(ch.Messages) == 0 {
		return "", nil
	}
	return plainText(ch.Messages[len(ch.Messages)-1].Content), nil
}

// plainText extracts the visible text from markdown source.
func plainText(markdown string) string {
	source := []byte(markdown)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.FencedCodeBlock:
			writeLines(&b, node.Lines(), source)
		case *ast.CodeBlock:
			writeLines(&b, node.Lines(), source)
		}
		return ast.WalkContinue, nil
	})

	out := strings.Join(strings.Fields(b.String()), " ")
	return truncate(out)
}

func writeLines(b *strings.Builder, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
		b.WriteByte(' ')
	}
}

func truncate(out string) string {
	runes := []rune(out)
	if len(runes) > previewMaxRunes {
		out = string(runes[:previewMaxRunes]) + "…"
	}
	return out
}
