package api

import (
	"net/http"

	"github.com/okian/prenoms/internal/domain/model"
)

type trendResponse struct {
	Names  []string           `json:"names,omitempty"`
	Points []model.TrendPoint `json:"points"`
	Empty  bool               `json:"empty"`
}

type yearStatsResponse struct {
	Stats []model.YearStat `json:"stats"`
}

// handleTrend handles GET /api/v1/trend?name=..&name=..
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.trend"
	tq, err := parseTrendQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, queryError(op, err))
		return
	}
	points, err := s.deps.Trend(r.Context(), tq.Names)
	empty, ok := emptyOrFailure(w, op, err)
	if !ok {
		return
	}
	if points == nil {
		points = []model.TrendPoint{}
	}
	writeJSON(w, http.StatusOK, trendResponse{Names: tq.Names, Points: points, Empty: empty})
}

// handleYearStats handles GET /api/v1/year-stats.
func (s *Server) handleYearStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.year_stats"
	stats, err := s.deps.YearStats(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if stats == nil {
		stats = []model.YearStat{}
	}
	writeJSON(w, http.StatusOK, yearStatsResponse{Stats: stats})
}
