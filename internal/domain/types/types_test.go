package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewSearchStatus(t *testing.T) {
	Convey("Given a processing state", t, func() {
		st := types.NewSearchStatus(model.SearchState{SearchID: "s1", Status: model.SearchProcessing})

		Convey("Then results render as an empty list and error is omitted", func() {
			b, err := json.Marshal(st)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"search_id":"s1","status":"processing","results":[]}`)
		})
	})

	Convey("Given a failed state", t, func() {
		st := types.NewSearchStatus(model.SearchState{SearchID: "s2", Status: model.SearchFailed, Error: "timeout"})

		Convey("Then the reason is exposed", func() {
			So(st.Error, ShouldEqual, "timeout")
			So(st.Status, ShouldEqual, model.SearchFailed)
		})
	})
}
