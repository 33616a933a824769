package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/dyscreen/internal/adapters/anomaly"
	"github.com/okian/dyscreen/internal/config"
	"github.com/okian/dyscreen/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

const dyslexicReadingBody = `{"features":{"readingTime":151.8,"comprehensionScore":45,"revisitCount":12,"pauseCount":15,"avgPauseDuration":6000}}`

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("DYSCREEN_ADDR", ":8080")
			_ = os.Setenv("DYSCREEN_QUEUE_SIZE", "1000")
			_ = os.Setenv("DYSCREEN_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("DYSCREEN_ADDR")
				_ = os.Unsetenv("DYSCREEN_QUEUE_SIZE")
				_ = os.Unsetenv("DYSCREEN_WORKER_COUNT")
			}()

			convey.Convey("Then it is loaded and a service can be built from it", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)

				svc, err := newService(cfg)
				convey.So(err, convey.ShouldBeNil)
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
				convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
				convey.So(stats["anomalyEnabled"], convey.ShouldEqual, false)
			})
		})
	})
}

func TestNewAnomalyScorer(t *testing.T) {
	convey.Convey("Given anomaly configuration", t, func() {
		convey.Convey("When the mode is none or empty", func() {
			for _, mode := range []string{config.AnomalyNone, ""} {
				s, err := newAnomalyScorer(config.AnomalyConfig{Mode: mode})
				convey.So(err, convey.ShouldBeNil)
				convey.So(s, convey.ShouldBeNil)
			}
		})

		convey.Convey("When the mode is subprocess", func() {
			s, err := newAnomalyScorer(config.AnomalyConfig{Mode: config.AnomalySubprocess, Command: "python3", Args: []string{"score.py"}})
			convey.So(err, convey.ShouldBeNil)
			_, ok := s.(*anomaly.Subprocess)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("When the mode is http", func() {
			s, err := newAnomalyScorer(config.AnomalyConfig{Mode: config.AnomalyHTTP, URL: "http://localhost:5000/score"})
			convey.So(err, convey.ShouldBeNil)
			_, ok := s.(*anomaly.HTTP)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("When the mode is unknown", func() {
			s, err := newAnomalyScorer(config.AnomalyConfig{Mode: "grpc"})
			convey.So(s, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the assembled HTTP handler", t, func() {
		ctx := context.Background()
		svc, err := newService(config.New(ctx))
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(ctx, svc))
		defer srv.Close()

		convey.Convey("When probing the operational routes", func() {
			for _, path := range []string{"/healthz", "/openapi.yaml", "/metrics", "/stats"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("When assessing a reading profile", func() {
			resp, err := http.Post(srv.URL+"/v1/reading/assess", "application/json", strings.NewReader(dyslexicReadingBody))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(body["riskScore"], convey.ShouldEqual, 86)
			convey.So(body["riskLevel"], convey.ShouldEqual, "HIGH")
		})

		convey.Convey("When fetching an unknown submission", func() {
			resp, err := http.Get(srv.URL + "/v1/submissions/missing")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the scoring tables are invalid", func() {
			cfg.Reading.Features = nil

			convey.Convey("Then run fails before listening", func() {
				convey.So(run(context.Background(), cfg), convey.ShouldNotBeNil)
			})
		})
	})
}
