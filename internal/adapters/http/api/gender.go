package api

import (
	"net/http"

	"github.com/okian/prenoms/internal/domain/model"
)

type summary struct {
	model.CategoryYearSummary
	Label string `json:"label"`
}

type spectrumResponse struct {
	Table     string    `json:"table"`
	Summaries []summary `json:"summaries"`
}

// handleGenderSpectrum handles GET /api/v1/gender-spectrum?table=A|B.
func (s *Server) handleGenderSpectrum(w http.ResponseWriter, r *http.Request) {
	const op = "api.gender_spectrum"
	sq, err := parseSpectrumQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, queryError(op, err))
		return
	}
	rows, err := s.deps.GenderSpectrum(r.Context(), sq.Table)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	out := make([]summary, len(rows))
	for i, row := range rows {
		out[i] = summary{CategoryYearSummary: row, Label: row.Label()}
	}
	writeJSON(w, http.StatusOK, spectrumResponse{Table: sq.Table, Summaries: out})
}
