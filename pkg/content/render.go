package content

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					// inline styles so pages need no highlighter stylesheet
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)
}

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	p.AllowAttrs("style").OnElements("span")
	return p
}

// renderHTML converts article Markdown to sanitized HTML. Rendering happens
// on every read; at dozens to hundreds of articles that is cheap enough that
// a cache would only add invalidation bugs.
func (s *Store) renderHTML(src string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return ""
	}
	return string(s.sanitize.SanitizeBytes(buf.Bytes()))
}
