package api

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"mentorhub/pkg/auth"
	"mentorhub/pkg/content"
	"mentorhub/pkg/relay"
	"mentorhub/pkg/store"
	"mentorhub/pkg/telemetry"
)

// Deps carries everything the handlers need. Wired once in internal/app.
type Deps struct {
	Content      *content.Store
	Streamer     relay.Streamer
	Provider     auth.IdentityProvider
	SystemPrompt string
	// AuthorizedUIDs may receive the free-access claim via the grant
	// endpoint.
	AuthorizedUIDs map[string]struct{}
	Mentors        map[string]Mentor
	OpenAPIPath    string
	// Sweep triggers an orphaned-upload sweep on demand; nil disables the
	// endpoint.
	Sweep func()
}

// BuildRouter assembles the versioned API plus the operational endpoints.
func BuildRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !store.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	if d.OpenAPIPath != "" {
		r.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			http.ServeFile(w, req, d.OpenAPIPath)
		}).Methods(http.MethodGet)
		r.PathPrefix("/docs/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/openapi.yaml"),
		))
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	RegisterChat(v1, d)
	RegisterArticles(v1, d)
	RegisterAccess(v1, d)
	RegisterMentors(v1, d)
	return r
}
