package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/homeweave/dashboard/internal/config"
	"github.com/homeweave/dashboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given a dashboard on an ephemeral port", t, func() {
		_ = os.Setenv("WEAVE_SHOW_LOAD_ERRORS", "false")
		defer func() { _ = os.Unsetenv("WEAVE_SHOW_LOAD_ERRORS") }()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		cfg.StaticDir = t.TempDir()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		base := "http://" + ln.Addr().String()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- run(ctx, cfg, ln, logger.Nop())
			close(done)
		}()

		convey.Convey("When it is up", func() {
			resp, err := http.Get(base + "/api/status-cards")
			convey.So(err, convey.ShouldBeNil)
			var body map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			_ = resp.Body.Close()

			page, err := http.Get(base + "/")
			convey.So(err, convey.ShouldBeNil)
			html, _ := io.ReadAll(page.Body)
			_ = page.Body.Close()

			convey.Convey("Then the cards endpoint and the page answer", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(body["cards"], convey.ShouldResemble, []any{})
				convey.So(page.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(string(html), convey.ShouldContainSubstring, "weave-medium-cards-row")
			})

			convey.Convey("And cancelling shuts it down cleanly", func() {
				cancel()
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("timeout", convey.ShouldBeEmpty)
				}
				_, err := os.Stat(cfg.StaticDir)
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Reset(func() {
			cancel()
			<-done
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("And the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
