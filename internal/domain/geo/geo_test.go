package geo_test

import (
	"testing"

	"github.com/okian/prenoms/internal/domain/geo"
	"github.com/okian/prenoms/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtures() ([]model.BirthRecord, []model.DepartmentBoundary, []model.RegionBoundary, model.DeptToRegion) {
	records := []model.BirthRecord{
		{Name: "Léa", Year: 2000, Sex: model.SexFemale, DepartmentCode: "75", Count: 100},
		{Name: "Léa", Year: 2000, Sex: model.SexMale, DepartmentCode: "75", Count: 5},
		{Name: "Léa", Year: 2000, Sex: model.SexFemale, DepartmentCode: "13", Count: 12},
		{Name: "Léa", Year: 2000, Sex: model.SexFemale, DepartmentCode: "971", Count: 4},
		{Name: "Léa", Year: 2001, Sex: model.SexFemale, DepartmentCode: "13", Count: 30},
		{Name: "Paul", Year: 2000, Sex: model.SexMale, DepartmentCode: "75", Count: 8},
	}
	departments := []model.DepartmentBoundary{
		{Code: "13", Name: "Bouches-du-Rhône"},
		{Code: "75", Name: "Paris"},
		{Code: "92", Name: "Hauts-de-Seine"},
		{Code: "971", Name: "Guadeloupe"},
	}
	regions := []model.RegionBoundary{
		{Name: "Île-de-France"},
		{Name: "Provence-Alpes-Côte d'Azur"},
		{Name: "Bretagne"},
	}
	mapping := model.DeptToRegion{
		"13": "Provence-Alpes-Côte d'Azur",
		"75": "Île-de-France",
		"92": "Île-de-France",
	}
	return records, departments, regions, mapping
}

func TestByDepartment(t *testing.T) {
	Convey("Given records and department boundaries", t, func() {
		records, departments, _, _ := fixtures()

		Convey("When aggregating a name and year with data", func() {
			res := geo.ByDepartment(records, departments, "Léa", 2000)

			Convey("Then every boundary appears once, zero-filled, in boundary order", func() {
				So(res.Cells, ShouldResemble, []model.GeoCell{
					{ID: "13", Name: "Bouches-du-Rhône", Count: 12},
					{ID: "75", Name: "Paris", Count: 105},
					{ID: "92", Name: "Hauts-de-Seine", Count: 0},
					{ID: "971", Name: "Guadeloupe", Count: 4},
				})
				So(res.Matched, ShouldEqual, 4)
				So(res.Unresolved, ShouldEqual, 0)
			})
		})

		Convey("When aggregating a name that does not exist", func() {
			res := geo.ByDepartment(records, departments, "Nobody", 2000)

			Convey("Then every boundary is still present with a zero count", func() {
				So(res.Cells, ShouldHaveLength, len(departments))
				So(geo.Total(res.Cells), ShouldEqual, 0)
				So(res.Matched, ShouldEqual, 0)
			})
		})
	})
}

func TestByRegion(t *testing.T) {
	Convey("Given records, region boundaries and a partial mapping", t, func() {
		records, departments, regions, mapping := fixtures()

		Convey("When aggregating by region", func() {
			res := geo.ByRegion(records, regions, mapping, "Léa", 2000)

			Convey("Then every region appears once and unmapped departments are dropped", func() {
				So(res.Cells, ShouldResemble, []model.GeoCell{
					{ID: "Île-de-France", Name: "Île-de-France", Count: 105},
					{ID: "Provence-Alpes-Côte d'Azur", Name: "Provence-Alpes-Côte d'Azur", Count: 12},
					{ID: "Bretagne", Name: "Bretagne", Count: 0},
				})
				So(res.Matched, ShouldEqual, 4)
				So(res.Unresolved, ShouldEqual, 1)
			})

			Convey("And the region total never exceeds the department total", func() {
				dept := geo.ByDepartment(records, departments, "Léa", 2000)
				So(geo.Total(res.Cells), ShouldBeLessThanOrEqualTo, geo.Total(dept.Cells))
				So(geo.Total(res.Cells), ShouldEqual, 117)
				So(geo.Total(dept.Cells), ShouldEqual, 121)
			})
		})

		Convey("When no records match", func() {
			res := geo.ByRegion(records, regions, mapping, "Léa", 1950)

			Convey("Then every region is zero-filled", func() {
				So(res.Cells, ShouldHaveLength, 3)
				So(geo.Total(res.Cells), ShouldEqual, 0)
			})
		})

		Convey("When a department maps to a region with no boundary", func() {
			misspelled := model.DeptToRegion{"75": "Ile-de-France", "13": "Provence-Alpes-Côte d'Azur"}
			res := geo.ByRegion(records, regions, misspelled, "Léa", 2000)

			Convey("Then its rows are counted as unresolved rather than lost", func() {
				So(res.Cells[0], ShouldResemble, model.GeoCell{ID: "Île-de-France", Name: "Île-de-France", Count: 0})
				So(res.Cells[1].Count, ShouldEqual, 12)
				So(res.Matched, ShouldEqual, 4)
				So(res.Unresolved, ShouldEqual, 3)
				So(geo.Total(res.Cells), ShouldEqual, 12)
			})
		})

		Convey("When called twice with the same inputs", func() {
			Convey("Then the outputs are identical", func() {
				So(geo.ByRegion(records, regions, mapping, "Léa", 2000), ShouldResemble,
					geo.ByRegion(records, regions, mapping, "Léa", 2000))
			})
		})
	})
}
