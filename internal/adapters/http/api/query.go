package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type trendQuery struct {
	Names []string `validate:"dive,required"`
}

type yearsQuery struct {
	Name string `validate:"required"`
}

type geoQuery struct {
	Name   string `validate:"required"`
	Year   int    `validate:"min=1000,max=9999"`
	Level  string `validate:"oneof=department region"`
	Format string `validate:"oneof=json geojson"`
}

type spectrumQuery struct {
	Table string `validate:"oneof=A B"`
}

// queryError renders the first failed rule of a validation error.
func queryError(op string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s %s", NewKind(op, ErrBadRequest), strings.ToLower(fe.Field()), describeRule(fe))
	}
	return fmt.Errorf("%w: %v", NewKind(op, ErrBadRequest), err)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// parseTrendQuery reads repeated name parameters. No name means every name.
func parseTrendQuery(q url.Values) (trendQuery, error) {
	tq := trendQuery{Names: q["name"]}
	return tq, validatorInstance().Struct(tq)
}

func parseGeoQuery(q url.Values) (geoQuery, error) {
	gq := geoQuery{
		Name:   strings.TrimSpace(q.Get("name")),
		Level:  q.Get("level"),
		Format: q.Get("format"),
	}
	if gq.Level == "" {
		gq.Level = "department"
	}
	if gq.Format == "" {
		gq.Format = "json"
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return gq, fmt.Errorf("year %q is not a number", q.Get("year"))
	}
	gq.Year = year
	return gq, validatorInstance().Struct(gq)
}

func parseSpectrumQuery(q url.Values) (spectrumQuery, error) {
	sq := spectrumQuery{Table: strings.ToUpper(q.Get("table"))}
	if sq.Table == "" {
		sq.Table = "A"
	}
	return sq, validatorInstance().Struct(sq)
}
