package api

import (
	"net/http"

	"github.com/okian/prenoms/internal/domain/model"
)

const geoJSONContentType = "application/geo+json; charset=utf-8"

type geoResponse struct {
	model.GeoView
	Empty bool `json:"empty"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	Year     int       `json:"year"`
	Level    string    `json:"level"`
	Empty    bool      `json:"empty"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties featureProperties `json:"properties"`
	Geometry   model.Geometry    `json:"geometry"`
}

type featureProperties struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// handleGeo handles GET /api/v1/geo?name=&year=&level=department|region&format=json|geojson.
// A selection with no rows answers 200 with zero counts and empty=true.
func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	const op = "api.geo"
	gq, err := parseGeoQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, queryError(op, err))
		return
	}
	view, err := s.deps.Geo(r.Context(), gq.Name, gq.Year, model.GeoLevel(gq.Level))
	empty, ok := emptyOrFailure(w, op, err)
	if !ok {
		return
	}
	if view.Cells == nil {
		view.Cells = []model.GeoCell{}
	}

	if gq.Format == "geojson" {
		writeBody(w, http.StatusOK, geoJSONContentType, toFeatureCollection(view, empty))
		return
	}
	writeJSON(w, http.StatusOK, geoResponse{GeoView: view, Empty: empty})
}

func toFeatureCollection(view model.GeoView, empty bool) featureCollection {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Name:     view.Name,
		Year:     view.Year,
		Level:    string(view.Level),
		Empty:    empty,
		Features: make([]feature, len(view.Cells)),
	}
	for i, c := range view.Cells {
		f := feature{
			Type:       "Feature",
			ID:         c.ID,
			Properties: featureProperties{Code: c.ID, Name: c.Name, Count: c.Count},
		}
		if i < len(view.Shapes) {
			f.Geometry = view.Shapes[i]
		}
		fc.Features[i] = f
	}
	return fc
}
