package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"mentorhub/pkg/content"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/utils"
)

// maxUploadBytes bounds the multipart form, image included.
const maxUploadBytes = 10 << 20

// RegisterArticles wires the article CRUD and query endpoints.
func RegisterArticles(r *mux.Router, d Deps) {
	r.HandleFunc("/articles", func(w http.ResponseWriter, req *http.Request) {
		handleListArticles(w, req, d)
	}).Methods(http.MethodGet)
	r.HandleFunc("/articles", func(w http.ResponseWriter, req *http.Request) {
		handleCreateArticle(w, req, d)
	}).Methods(http.MethodPost)
	r.HandleFunc("/articles/{slug}", func(w http.ResponseWriter, req *http.Request) {
		handleGetArticle(w, req, d)
	}).Methods(http.MethodGet)
	r.HandleFunc("/articles/{slug}", func(w http.ResponseWriter, req *http.Request) {
		handleUpdateArticle(w, req, d)
	}).Methods(http.MethodPut)
	r.HandleFunc("/articles/{slug}", func(w http.ResponseWriter, req *http.Request) {
		handleDeleteArticle(w, req, d)
	}).Methods(http.MethodDelete)
	r.HandleFunc("/articles/{slug}/related", func(w http.ResponseWriter, req *http.Request) {
		handleRelatedArticles(w, req, d)
	}).Methods(http.MethodGet)
}

func handleListArticles(w http.ResponseWriter, r *http.Request, d Deps) {
	q := r.URL.Query()
	var (
		list []models.Article
		err  error
	)
	switch {
	case q.Get("q") != "":
		list, err = d.Content.Search(q.Get("q"))
	case q.Get("category") != "":
		list, err = d.Content.ByCategory(q.Get("category"))
	case q.Get("featured") == "true":
		list, err = d.Content.Featured()
	default:
		list, err = d.Content.List()
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot list articles")
		return
	}
	if list == nil {
		list = []models.Article{}
	}
	utils.JSONWrite(w, http.StatusOK, list)
}

func handleGetArticle(w http.ResponseWriter, r *http.Request, d Deps) {
	slug := mux.Vars(r)["slug"]
	a, err := d.Content.Get(slug)
	if errors.Is(err, content.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot read article")
		return
	}
	utils.JSONWrite(w, http.StatusOK, a)
}

func handleRelatedArticles(w http.ResponseWriter, r *http.Request, d Deps) {
	slug := mux.Vars(r)["slug"]
	a, err := d.Content.Get(slug)
	if errors.Is(err, content.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot read article")
		return
	}
	related, err := d.Content.Related(a.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot list related articles")
		return
	}
	if related == nil {
		related = []models.Article{}
	}
	utils.JSONWrite(w, http.StatusOK, related)
}

// requiredUploadFields must all be present before any file is written.
var requiredUploadFields = []string{"title", "content", "author", "authorRole", "category"}

// handleCreateArticle accepts a multipart form with the article fields and
// an optional image. Each missing required field is reported by name.
func handleCreateArticle(w http.ResponseWriter, r *http.Request, d Deps) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	for _, f := range requiredUploadFields {
		if strings.TrimSpace(r.FormValue(f)) == "" {
			utils.JSONError(w, http.StatusBadRequest, f+" is required")
			return
		}
	}

	a := models.Article{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Content:    r.FormValue("content"),
		Excerpt:    strings.TrimSpace(r.FormValue("excerpt")),
		Author:     strings.TrimSpace(r.FormValue("author")),
		AuthorRole: strings.TrimSpace(r.FormValue("authorRole")),
		AuthorBio:  strings.TrimSpace(r.FormValue("authorBio")),
		Category:   strings.TrimSpace(r.FormValue("category")),
		Date:       strings.TrimSpace(r.FormValue("date")),
		Featured:   r.FormValue("featured") == "true",
	}

	if img, hdr, err := r.FormFile("image"); err == nil {
		defer img.Close()
		path, err := saveUpload(d.Content.UploadsDir(), hdr.Filename, img)
		if err != nil {
			logger.Error("upload_save_failed", "file", hdr.Filename, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "cannot save image")
			return
		}
		a.Image = path
	}

	created, err := d.Content.Create(a)
	if errors.Is(err, content.ErrSlugExists) {
		utils.JSONError(w, http.StatusConflict, "an article with this title already exists")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot create article")
		return
	}
	utils.JSONWrite(w, http.StatusCreated, map[string]string{
		"message": "article created",
		"id":      created.ID,
		"slug":    created.Slug,
	})
}

func handleUpdateArticle(w http.ResponseWriter, r *http.Request, d Deps) {
	slug := mux.Vars(r)["slug"]
	var in models.Article
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := d.Content.Update(slug, in)
	if errors.Is(err, content.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot update article")
		return
	}
	utils.JSONWrite(w, http.StatusOK, updated)
}

func handleDeleteArticle(w http.ResponseWriter, r *http.Request, d Deps) {
	slug := mux.Vars(r)["slug"]
	err := d.Content.Delete(slug)
	if errors.Is(err, content.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot delete article")
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "article deleted"})
}

// saveUpload writes the uploaded image under dir with a collision-resistant
// name and returns the public path clients embed in article metadata.
func saveUpload(dir, name string, src io.Reader) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("uploads directory not configured")
	}
	base := utils.MakeSlug(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if base == "" {
		base = "upload"
	}
	fname := fmt.Sprintf("%s-%s%s", base, utils.GenID(), strings.ToLower(filepath.Ext(name)))
	dst, err := os.Create(filepath.Join(dir, fname))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/blog/uploads/" + fname, nil
}
