package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type namesResponse struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

type yearsResponse struct {
	Name  string `json:"name"`
	Years []int  `json:"years"`
	Empty bool   `json:"empty"`
}

// handleNames handles GET /api/v1/names.
func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	const op = "api.names"
	names, err := s.deps.Names(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, namesResponse{Count: len(names), Names: names})
}

// handleYears handles GET /api/v1/names/{name}/years.
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	const op = "api.years"
	yq := yearsQuery{Name: chi.URLParam(r, "name")}
	if err := validatorInstance().Struct(yq); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, queryError(op, err))
		return
	}
	years, err := s.deps.Years(r.Context(), yq.Name)
	empty, ok := emptyOrFailure(w, op, err)
	if !ok {
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, yearsResponse{Name: yq.Name, Years: years, Empty: empty})
}
