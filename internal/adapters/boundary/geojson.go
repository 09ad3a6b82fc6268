package boundary

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/prenoms/internal/domain/model"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   *model.Geometry `json:"geometry"`
}

func readFeatures(path string) ([]feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: expected FeatureCollection, got %q", ErrMalformedGeometry, fc.Type)
	}
	return fc.Features, nil
}

// property returns a feature property as text. Numeric codes are rendered without
// exponent or trailing zeros.
func (f feature) property(key string) (string, error) {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingProperty, key)
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrMissingProperty, key)
	}
	return s, nil
}

// validateGeometry checks that g is a Polygon or MultiPolygon whose rings are closed
// position lists of at least four points.
func validateGeometry(g *model.Geometry) error {
	if g == nil {
		return fmt.Errorf("%w: missing geometry", ErrMalformedGeometry)
	}
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		return validatePolygon(rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		if len(polys) == 0 {
			return fmt.Errorf("%w: empty MultiPolygon", ErrMalformedGeometry)
		}
		for _, rings := range polys {
			if err := validatePolygon(rings); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrMalformedGeometry, g.Type)
	}
}

func validatePolygon(rings [][][]float64) error {
	if len(rings) == 0 {
		return fmt.Errorf("%w: polygon without rings", ErrMalformedGeometry)
	}
	for _, ring := range rings {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring has %d positions", ErrMalformedGeometry, len(ring))
		}
		for _, pos := range ring {
			if len(pos) < 2 {
				return fmt.Errorf("%w: position has %d coordinates", ErrMalformedGeometry, len(pos))
			}
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return fmt.Errorf("%w: ring is not closed", ErrMalformedGeometry)
		}
	}
	return nil
}
