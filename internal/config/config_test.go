package config_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tripbuddy/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Queue.Size, convey.ShouldEqual, 1000)
			convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Store.TTL, convey.ShouldEqual, time.Hour)
			convey.So(cfg.Skills.VectorTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.Scoring.Model, convey.ShouldEqual, "normalized")
			convey.So(cfg.Scoring.Weights.Sum(), convey.ShouldAlmostEqual, 1.0, 1e-9)
			convey.So(cfg.Workflow.Delegated(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
