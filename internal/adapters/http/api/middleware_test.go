package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/dyscreen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented handler", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)

		Convey("When the handler panics", func() {
			h := instrument("boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the client gets a 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the handler writes a status twice", func() {
			h := instrument("twice", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				w.WriteHeader(http.StatusTeapot)
			})
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/", nil))

			Convey("Then the first status wins", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
			})
		})
	})

	Convey("Given error statuses", t, func() {
		So(errorLabel(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(errorLabel(http.StatusBadGateway), ShouldEqual, "server_error")
		So(errorLabel(http.StatusTooManyRequests), ShouldEqual, "backpressure")
		So(errorLabel(http.StatusNotFound), ShouldEqual, "not_found")
		So(errorLabel(http.StatusBadRequest), ShouldEqual, "client_error")
	})
}
