package model_test

import (
	"testing"

	"github.com/okian/recapdeck/internal/domain/dataset"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMetricSet(t *testing.T) {
	convey.Convey("Given a MetricSet", t, func() {
		set := model.NewMetricSet()

		convey.Convey("When a name is recorded twice", func() {
			first := set.Add("organic.total_likes", dataset.NumberCell(10))
			second := set.Add("organic.total_likes", dataset.NumberCell(99))

			convey.Convey("Then the first value wins", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeFalse)
				convey.So(set.Value("organic.total_likes").Number, convey.ShouldEqual, 10)
				convey.So(set.Len(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When several names are recorded", func() {
			set.Add("b", dataset.TextCell("x"))
			set.Add("a", dataset.Cell{})
			set.Add("c", dataset.NumberCell(0.5))

			convey.Convey("Then insertion order is kept", func() {
				convey.So(set.Names(), convey.ShouldResemble, []string{"b", "a", "c"})
				convey.So(set.Snapshot(), convey.ShouldResemble, map[string]string{"a": "", "b": "x", "c": "0.5"})
			})
		})

		convey.Convey("Then unknown names read as empty", func() {
			_, ok := set.Get("missing")
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(set.Value("missing").IsEmpty(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a nil MetricSet", t, func() {
		var set *model.MetricSet
		convey.So(set.Len(), convey.ShouldEqual, 0)
		convey.So(set.Value("x").IsEmpty(), convey.ShouldBeTrue)
	})
}

func TestReportSummary(t *testing.T) {
	convey.Convey("Given a report with mixed outcomes", t, func() {
		r := &model.Report{Fields: []model.FieldResult{
			{Rule: "a", Status: model.FieldFilled},
			{Rule: "b", Status: model.FieldFilled},
			{Rule: "c", Status: model.FieldBlank},
			{Rule: "d", Status: model.FieldTemplateMiss},
		}}
		r.AddNote(model.NoteAliasMissing, "organic_label")

		convey.So(r.Summary(), convey.ShouldResemble, model.Summary{Filled: 2, Blank: 1, Missed: 1})
		convey.So(r.Notes, convey.ShouldHaveLength, 1)
	})

	convey.Convey("Job states", t, func() {
		convey.So(model.JobQueued.Done(), convey.ShouldBeFalse)
		convey.So(model.JobFailed.Done(), convey.ShouldBeTrue)
		convey.So(model.JobSucceeded.Done(), convey.ShouldBeTrue)
	})
}
