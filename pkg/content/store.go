package content

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/utils"
)

var (
	// ErrNotFound is returned for a slug with no article file.
	ErrNotFound = errors.New("article not found")
	// ErrSlugExists is returned by Create when the derived slug is taken.
	ErrSlugExists = errors.New("article slug already exists")
)

// Store is the file-backed article store: one Markdown file per article under
// dir, named <slug>.md. Reads parse and render on demand; writes are
// operator-driven and infrequent, so filesystem access is unguarded.
type Store struct {
	dir          string
	uploadsDir   string
	defaultImage string

	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// New creates the article store, ensuring both directories exist.
func New(dir, uploadsDir, defaultImage string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create content dir: %w", err)
	}
	if uploadsDir != "" {
		if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create uploads dir: %w", err)
		}
	}
	if defaultImage == "" {
		defaultImage = "/blog/default-post.jpg"
	}
	return &Store{
		dir:          dir,
		uploadsDir:   uploadsDir,
		defaultImage: defaultImage,
		md:           newMarkdown(),
		sanitize:     newSanitizer(),
	}, nil
}

// UploadsDir returns the directory uploaded images are stored under.
func (s *Store) UploadsDir() string { return s.uploadsDir }

// DefaultImage returns the image path used when an upload carries none.
func (s *Store) DefaultImage() string { return s.defaultImage }

func (s *Store) path(slug string) string {
	return filepath.Join(s.dir, slug+".md")
}

// List returns all articles sorted newest-first by date. Unreadable or
// malformed files are skipped; a missing directory yields an empty list.
func (s *Store) List() ([]models.Article, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		logger.Error("content_list_failed", "dir", s.dir, "error", err)
		return nil, err
	}
	var out []models.Article
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			logger.Warn("content_read_failed", "file", e.Name(), "error", err)
			continue
		}
		a, err := decodeArticle(raw)
		if err != nil {
			logger.Warn("content_decode_failed", "file", e.Name(), "error", err)
			continue
		}
		a.HTML = s.renderHTML(a.Content)
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return parseDate(out[i].Date).After(parseDate(out[j].Date))
	})
	return out, nil
}

// Get returns the article for slug, with rendered HTML.
func (s *Store) Get(slug string) (models.Article, error) {
	raw, err := os.ReadFile(s.path(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return models.Article{}, ErrNotFound
		}
		return models.Article{}, err
	}
	a, err := decodeArticle(raw)
	if err != nil {
		return models.Article{}, err
	}
	a.HTML = s.renderHTML(a.Content)
	return a, nil
}

// ByCategory returns articles whose category matches exactly, newest-first.
func (s *Store) ByCategory(category string) ([]models.Article, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []models.Article
	for _, a := range all {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

// Featured returns featured articles, newest-first.
func (s *Store) Featured() ([]models.Article, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []models.Article
	for _, a := range all {
		if a.Featured {
			out = append(out, a)
		}
	}
	return out, nil
}

// Related returns the articles referenced by the given article's
// related-post ids.
func (s *Store) Related(id string) ([]models.Article, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var current *models.Article
	for i := range all {
		if all[i].ID == id {
			current = &all[i]
			break
		}
	}
	if current == nil || len(current.RelatedPosts) == 0 {
		return nil, nil
	}
	want := map[string]struct{}{}
	for _, rid := range current.RelatedPosts {
		want[rid] = struct{}{}
	}
	var out []models.Article
	for _, a := range all {
		if _, ok := want[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Search returns articles matching every whitespace-separated query term,
// case-insensitively, across title, excerpt, body, author and category.
func (s *Store) Search(query string) ([]models.Article, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return s.List()
	}
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []models.Article
	for _, a := range all {
		haystack := strings.ToLower(a.Title + " " + a.Excerpt + " " + a.Content + " " + a.Author + " " + a.Category)
		ok := true
		for _, t := range terms {
			if !strings.Contains(haystack, t) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create writes a new article file. The slug is derived from the title when
// absent; an existing file under the same slug is rejected, never
// overwritten. ID, date, read time and excerpt defaults are filled in.
func (s *Store) Create(a models.Article) (models.Article, error) {
	if a.Slug == "" {
		a.Slug = utils.MakeSlug(a.Title)
	}
	if a.Slug == "" {
		return models.Article{}, fmt.Errorf("cannot derive slug from title %q", a.Title)
	}
	if _, err := os.Stat(s.path(a.Slug)); err == nil {
		return models.Article{}, ErrSlugExists
	}
	if a.ID == "" {
		a.ID = utils.GenID()
	}
	if a.Date == "" {
		a.Date = time.Now().UTC().Format(time.RFC3339)
	}
	if a.Image == "" {
		a.Image = s.defaultImage
	}
	if a.Excerpt == "" {
		a.Excerpt = defaultExcerpt(a.Content)
	}
	a.ReadTime = CalcReadTime(a.Content)

	if err := s.write(a); err != nil {
		return models.Article{}, err
	}
	logger.Info("article_created", "slug", a.Slug, "id", a.ID)
	return a, nil
}

// Update merges non-zero fields of in onto the stored article and rewrites
// the file. Read time is recalculated when the body changes.
func (s *Store) Update(slug string, in models.Article) (models.Article, error) {
	cur, err := s.Get(slug)
	if err != nil {
		return models.Article{}, err
	}
	if in.Title != "" {
		cur.Title = in.Title
	}
	if in.Excerpt != "" {
		cur.Excerpt = in.Excerpt
	}
	if in.Content != "" {
		cur.Content = in.Content
		cur.ReadTime = CalcReadTime(in.Content)
	}
	if in.Author != "" {
		cur.Author = in.Author
	}
	if in.AuthorRole != "" {
		cur.AuthorRole = in.AuthorRole
	}
	if in.AuthorBio != "" {
		cur.AuthorBio = in.AuthorBio
	}
	if in.Category != "" {
		cur.Category = in.Category
	}
	if in.Image != "" {
		cur.Image = in.Image
	}
	if in.RelatedPosts != nil {
		cur.RelatedPosts = in.RelatedPosts
	}
	cur.Featured = in.Featured || cur.Featured

	cur.HTML = ""
	if err := s.write(cur); err != nil {
		return models.Article{}, err
	}
	logger.Info("article_updated", "slug", slug)
	cur.HTML = s.renderHTML(cur.Content)
	return cur, nil
}

// Delete removes the article file for slug.
func (s *Store) Delete(slug string) error {
	err := os.Remove(s.path(slug))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error("article_delete_failed", "slug", slug, "error", err)
		return err
	}
	logger.Info("article_deleted", "slug", slug)
	return nil
}

// ReferencedImages returns the set of image basenames referenced by any
// article front-matter. Used by the housekeeping sweep to find orphans.
func (s *Store) ReferencedImages() (map[string]struct{}, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	out := map[string]struct{}{}
	for _, a := range all {
		if a.Image != "" {
			out[filepath.Base(a.Image)] = struct{}{}
		}
	}
	return out, nil
}

func (s *Store) write(a models.Article) error {
	b, err := encodeArticle(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(a.Slug), b, 0o644); err != nil {
		logger.Error("article_write_failed", "slug", a.Slug, "error", err)
		return err
	}
	return nil
}

// CalcReadTime estimates reading time at 200 words per minute.
func CalcReadTime(body string) string {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / 200.0))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

func defaultExcerpt(body string) string {
	r := []rune(strings.TrimSpace(body))
	if len(r) <= 150 {
		return string(r)
	}
	return string(r[:150]) + "..."
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
