package numerology_test

import (
	"testing"

	"github.com/okian/blueprint/internal/domain/numerology"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLifePath(t *testing.T) {
	Convey("Given ISO birth dates", t, func() {
		Convey("When the digits sum to 10", func() {
			So(numerology.LifePath("2024-01-01"), ShouldEqual, 1)
		})

		Convey("When the digits sum to 40", func() {
			So(numerology.LifePath("1989-11-29"), ShouldEqual, 4)
		})

		Convey("When the digit sum is a master number it is kept", func() {
			So(numerology.LifePath("2009-02-09"), ShouldEqual, 22)
			So(numerology.LifePath("2000-09-00"), ShouldEqual, 11)
			So(numerology.LifePath("9996"), ShouldEqual, 33)
		})

		Convey("When the digit sum reduces twice", func() {
			// 21 -> 3
			So(numerology.LifePath("1990-01-01"), ShouldEqual, 3)
		})

		Convey("When a master number appears only after reduction", func() {
			// 9+9+9+9+9+9+9+2 = 65 -> 11
			So(numerology.LifePath("99999992"), ShouldEqual, 11)
		})
	})

	Convey("Given strings without digits", t, func() {
		So(numerology.LifePath(""), ShouldEqual, 0)
		So(numerology.LifePath("no-digits-here"), ShouldEqual, 0)
	})

	Convey("Given any digit-bearing input", t, func() {
		allowed := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 11: true, 22: true, 33: true}
		inputs := []string{"1", "0001", "1999-12-31", "2100-02-28", "abc123def", "9999-99-99", "1234567890"}
		for _, in := range inputs {
			So(allowed[numerology.LifePath(in)], ShouldBeTrue)
		}
	})
}

func TestIsMaster(t *testing.T) {
	Convey("Given candidate numbers", t, func() {
		So(numerology.IsMaster(11), ShouldBeTrue)
		So(numerology.IsMaster(22), ShouldBeTrue)
		So(numerology.IsMaster(33), ShouldBeTrue)
		So(numerology.IsMaster(44), ShouldBeFalse)
		So(numerology.IsMaster(9), ShouldBeFalse)
	})
}
