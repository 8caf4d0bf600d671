package format_test

import (
	"errors"
	"testing"

	"github.com/okian/recapdeck/internal/domain/dataset"
	"github.com/okian/recapdeck/internal/domain/format"
	. "github.com/smartystreets/goconvey/convey"
)

func num(f float64) dataset.Cell { return dataset.NumberCell(f) }
func txt(s string) dataset.Cell  { return dataset.TextCell(s) }

func TestPercent(t *testing.T) {
	Convey("Given percent formatting", t, func() {
		So(format.FormatPercent(num(0.12)), ShouldEqual, "12.0%")
		So(format.FormatPercent(num(0.05)), ShouldEqual, "5.0%")
		So(format.FormatPercent(txt("0.4567")), ShouldEqual, "45.7%")

		Convey("Then re-formatting its own output is a no-op", func() {
			once := format.FormatPercent(num(0.123))
			twice := format.FormatPercent(txt(once))
			So(once, ShouldEqual, "12.3%")
			So(twice, ShouldEqual, once)
		})

		Convey("Then non-numeric input falls back to the raw text", func() {
			So(format.FormatPercent(txt("n/a")), ShouldEqual, "n/a")
			So(format.FormatPercent(dataset.Cell{}), ShouldEqual, "")
		})
	})
}

func TestTruncation(t *testing.T) {
	Convey("Given truncating formatters", t, func() {
		Convey("Then rates are truncated, never rounded", func() {
			So(format.FormatRateTruncate(num(0.25678)), ShouldEqual, "25.67")
			So(format.FormatRateTruncate(num(0.29)), ShouldEqual, "29.00")
			So(format.FormatRateTruncate(num(0.1)), ShouldEqual, "10.00")
			So(format.FormatRateTruncate(txt("4%")), ShouldEqual, "4.00")
		})

		Convey("Then the rounding strategy is available separately", func() {
			So(format.FormatRateRound(num(0.25678)), ShouldEqual, "25.68")
		})

		Convey("Then plain truncation strips the leading zero below one", func() {
			So(format.FormatTruncate(num(0.25678)), ShouldEqual, ".25")
			So(format.FormatTruncate(num(3.14159)), ShouldEqual, "3.14")
			So(format.FormatTruncate(num(2)), ShouldEqual, "2.00")
			So(format.FormatTruncate(num(-0.256)), ShouldEqual, "-0.25")
		})
	})
}

func TestCompact(t *testing.T) {
	Convey("Given compact count formatting", t, func() {
		So(format.FormatCompact(num(1_500_000)), ShouldEqual, "1.5MM")
		So(format.FormatCompact(num(12_345)), ShouldEqual, "12.3K")
		So(format.FormatCompact(num(42)), ShouldEqual, "42")
		So(format.FormatCompact(num(999.9)), ShouldEqual, "999")
		So(format.FormatCompact(txt("2,000")), ShouldEqual, "2.0K")
		So(format.FormatCompact(txt("lots")), ShouldEqual, "lots")
	})
}

func TestIntegerAndRaw(t *testing.T) {
	Convey("Given integer and raw formatting", t, func() {
		So(format.FormatInteger(num(18)), ShouldEqual, "18")
		So(format.FormatInteger(num(18.9)), ShouldEqual, "18")
		So(format.FormatInteger(num(-0.4)), ShouldEqual, "0")
		So(format.FormatRaw(num(5400)), ShouldEqual, "5400")
		So(format.FormatRaw(num(0.0412)), ShouldEqual, "0.0412")
		So(format.FormatRaw(txt("Q3 Recap")), ShouldEqual, "Q3 Recap")
		So(format.FormatRaw(dataset.Cell{}), ShouldEqual, "")
	})
}

func TestLookup(t *testing.T) {
	Convey("Given the formatter registry", t, func() {
		Convey("Then every registered name resolves", func() {
			for _, name := range format.Names() {
				f, err := format.Lookup(name)
				So(err, ShouldBeNil)
				So(f, ShouldNotBeNil)
			}
			So(format.Names(), ShouldHaveLength, 7)
		})

		Convey("Then the empty name is raw", func() {
			f, err := format.Lookup("")
			So(err, ShouldBeNil)
			So(f(num(1)), ShouldEqual, "1")
		})

		Convey("Then unknown names are rejected", func() {
			_, err := format.Lookup("currency")
			So(errors.Is(err, format.ErrUnknownFormatter), ShouldBeTrue)
			So(format.Apply("currency", num(3)), ShouldEqual, "3")
		})
	})
}
