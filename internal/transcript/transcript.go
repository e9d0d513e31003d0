// Package transcript renders a chat conversation to a standalone HTML page.
package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CageChen/folderchat/internal/chat"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const codeStyle = "monokai"

// Transcript is a conversation ready for export.
type Transcript struct {
	Model    string
	Created  time.Time
	Messages []chat.Message
}

// Title is the first user message, shortened.
func (t Transcript) Title() string {
	for _, m := range t.Messages {
		if m.Role == "user" {
			return shorten(strings.TrimSpace(m.Content), 60)
		}
	}
	return "Conversation"
}

// Renderer converts message bodies from Markdown to HTML
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GFM and class-based code highlighting.
// Raw HTML in messages is escaped, not passed through.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	return &Renderer{md: md}
}

// RenderMessage converts one Markdown message body to an HTML fragment.
func (r *Renderer) RenderMessage(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the full HTML page for t.
func (r *Renderer) Render(t Transcript) ([]byte, error) {
	if len(t.Messages) == 0 {
		return nil, errors.New("conversation has no messages")
	}

	var sb strings.Builder
	title := html.EscapeString(t.Title())

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", title)
	sb.WriteString("<style>\n")
	sb.WriteString(pageCSS)
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&sb, styles.Get(codeStyle)); err != nil {
		return nil, err
	}
	sb.WriteString("</style>\n</head>\n<body>\n")

	fmt.Fprintf(&sb, "<header><h1>%s</h1>\n", title)
	fmt.Fprintf(&sb, "<p class=\"meta\">Model: %s", html.EscapeString(t.Model))
	if !t.Created.IsZero() {
		fmt.Fprintf(&sb, " &middot; %s", t.Created.Format(time.RFC1123))
	}
	fmt.Fprintf(&sb, " &middot; %d messages</p>\n</header>\n<main>\n", len(t.Messages))

	for _, m := range t.Messages {
		body, err := r.RenderMessage(m.Content)
		if err != nil {
			return nil, fmt.Errorf("render %s message: %w", m.Role, err)
		}
		role := html.EscapeString(m.Role)
		fmt.Fprintf(&sb, "<section class=\"message %s\">\n<div class=\"role\">%s</div>\n%s</section>\n", role, role, body)
	}

	sb.WriteString("</main>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// WriteFile renders t and writes it to path.
func (r *Renderer) WriteFile(path string, t Transcript) error {
	data, err := r.Render(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

const pageCSS = `body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #222; }
header h1 { font-size: 1.4rem; margin-bottom: 0.2rem; }
.meta { color: #777; font-size: 0.85rem; }
.message { border-radius: 6px; padding: 0.6rem 1rem; margin: 1rem 0; }
.message.user { background: #eef4ff; }
.message.assistant { background: #f6f6f6; }
.role { font-size: 0.75rem; font-weight: bold; text-transform: uppercase; color: #555; }
pre { padding: 0.6rem; overflow-x: auto; border-radius: 4px; }
`
