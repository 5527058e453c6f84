package models

// Article is one blog post. Identity is the slug; each article is stored as
// a single Markdown file whose front-matter carries every field except
// Content (the file body) and HTML (rendered on read, never stored).
type Article struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	Slug         string   `json:"slug" yaml:"slug"`
	Excerpt      string   `json:"excerpt" yaml:"excerpt"`
	Content      string   `json:"content" yaml:"-"`
	Author       string   `json:"author" yaml:"author"`
	AuthorRole   string   `json:"authorRole" yaml:"author_role"`
	AuthorBio    string   `json:"authorBio,omitempty" yaml:"author_bio,omitempty"`
	Date         string   `json:"date" yaml:"date"`
	ReadTime     string   `json:"readTime" yaml:"read_time"`
	Category     string   `json:"category" yaml:"category"`
	Image        string   `json:"image" yaml:"image"`
	Featured     bool     `json:"featured" yaml:"featured"`
	RelatedPosts []string `json:"relatedPosts,omitempty" yaml:"related_posts,omitempty"`

	// HTML is the sanitized rendering of Content.
	HTML string `json:"html,omitempty" yaml:"-"`
}
