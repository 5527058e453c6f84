package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"mentorhub/pkg/auth"
	"mentorhub/pkg/utils"
)

// Mentor is a gated profile page. Profiles are static, loaded from config
// at startup.
type Mentor struct {
	Slug      string `json:"slug" yaml:"slug"`
	Name      string `json:"name" yaml:"name"`
	Expertise string `json:"expertise" yaml:"expertise"`
	Bio       string `json:"bio" yaml:"bio"`
}

// RegisterMentors wires the entitlement-gated mentor pages.
func RegisterMentors(r *mux.Router, d Deps) {
	h := auth.RequireEntitled(d.Provider)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		slug := mux.Vars(req)["slug"]
		m, ok := d.Mentors[slug]
		if !ok {
			utils.JSONError(w, http.StatusNotFound, "mentor not found")
			return
		}
		utils.JSONWrite(w, http.StatusOK, m)
	}))
	r.Handle("/mentors/{slug}", h).Methods(http.MethodGet)
}
