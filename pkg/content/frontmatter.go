package content

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mentorhub/pkg/models"
)

const fmDelim = "---"

// encodeArticle serializes an article as YAML front-matter followed by the
// Markdown body.
func encodeArticle(a models.Article) ([]byte, error) {
	meta, err := yaml.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal front-matter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString(fmDelim + "\n")
	b.Write(meta)
	b.WriteString(fmDelim + "\n")
	b.WriteString(a.Content)
	if !strings.HasSuffix(a.Content, "\n") {
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// decodeArticle parses a front-matter article file. A file without a
// front-matter block yields an article whose Content is the whole file.
func decodeArticle(raw []byte) (models.Article, error) {
	var a models.Article
	text := string(raw)
	if !strings.HasPrefix(text, fmDelim+"\n") {
		a.Content = text
		return a, nil
	}
	rest := text[len(fmDelim)+1:]
	end := strings.Index(rest, "\n"+fmDelim)
	if end < 0 {
		return a, fmt.Errorf("unterminated front-matter block")
	}
	meta := rest[:end]
	body := rest[end+len(fmDelim)+1:]
	body = strings.TrimPrefix(body, "\n")
	if err := yaml.Unmarshal([]byte(meta), &a); err != nil {
		return models.Article{}, fmt.Errorf("invalid front-matter: %w", err)
	}
	a.Content = body
	return a, nil
}
