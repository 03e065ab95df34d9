package astrology_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/blueprint/internal/adapters/astrology"
	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type captured struct {
	method string
	auth   string
	ctype  string
	body   map[string]string
}

func provider(status int, response string, got *captured) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
}

func TestNew(t *testing.T) {
	Convey("Given no api key", t, func() {
		c, err := astrology.New("  ")
		So(c, ShouldBeNil)
		So(errors.Is(err, astrology.ErrMissingAPIKey), ShouldBeTrue)
	})
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	Convey("Given a provider answering 200 with every sign", t, func() {
		var got captured
		srv := provider(http.StatusOK, `{"sun":{"sign":"Aries"},"moon":{"sign":"Cancer"},"ascendant":{"sign":"Libra"}}`, &got)
		defer srv.Close()

		c, err := astrology.New("secret", astrology.WithEndpoint(srv.URL))
		So(err, ShouldBeNil)

		res, err := c.Lookup(ctx, "1989-11-29", "14:00", "Lisbon")

		Convey("Then the signs are mapped", func() {
			So(err, ShouldBeNil)
			So(res, ShouldResemble, model.AstrologyResult{SunSign: "Aries", MoonSign: "Cancer", RisingSign: "Libra"})
		})

		Convey("Then the request carries the payload and bearer token", func() {
			So(got.method, ShouldEqual, http.MethodPost)
			So(got.auth, ShouldEqual, "Bearer secret")
			So(got.ctype, ShouldEqual, "application/json")
			So(got.body, ShouldResemble, map[string]string{
				"birth_date": "1989-11-29",
				"birth_time": "14:00",
				"location":   "Lisbon",
				"timezone":   "auto",
			})
		})
	})

	Convey("Given a provider response missing the moon", t, func() {
		var got captured
		srv := provider(http.StatusOK, `{"sun":{"sign":"Leo"},"ascendant":{"sign":"Virgo"}}`, &got)
		defer srv.Close()

		c, _ := astrology.New("k", astrology.WithEndpoint(srv.URL))
		res, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")

		So(err, ShouldBeNil)
		So(res.SunSign, ShouldEqual, "Leo")
		So(res.MoonSign, ShouldEqual, model.UnknownSign)
		So(res.RisingSign, ShouldEqual, "Virgo")
	})

	Convey("Given a provider response with empty objects", t, func() {
		var got captured
		srv := provider(http.StatusOK, `{"sun":{},"moon":{"sign":""}}`, &got)
		defer srv.Close()

		c, _ := astrology.New("k", astrology.WithEndpoint(srv.URL))
		res, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")

		So(err, ShouldBeNil)
		So(res, ShouldResemble, model.AstrologyResult{SunSign: "Unknown", MoonSign: "Unknown", RisingSign: "Unknown"})
	})

	Convey("Given non-200 provider responses", t, func() {
		for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusCreated} {
			var got captured
			srv := provider(status, `{"error":"nope"}`, &got)

			c, _ := astrology.New("k", astrology.WithEndpoint(srv.URL))
			_, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")
			srv.Close()

			So(err, ShouldNotBeNil)
			So(failure.KindOf(err), ShouldEqual, failure.KindProvider)
			So(errors.Is(err, failure.ErrProvider), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "failed to fetch astrology data")
		}
	})

	Convey("Given a 200 with a broken body", t, func() {
		var got captured
		srv := provider(http.StatusOK, `{not json`, &got)
		defer srv.Close()

		c, _ := astrology.New("k", astrology.WithEndpoint(srv.URL))
		_, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")

		So(failure.KindOf(err), ShouldEqual, failure.KindProvider)
	})

	Convey("Given an unreachable provider", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, _ := astrology.New("k", astrology.WithEndpoint(url))
		_, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")

		So(failure.KindOf(err), ShouldEqual, failure.KindProvider)
	})

	Convey("Given a slow provider and a timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		c, _ := astrology.New("k", astrology.WithEndpoint(srv.URL), astrology.WithTimeout(50*time.Millisecond))
		start := time.Now()
		_, err := c.Lookup(ctx, "2024-01-01", "09:30", "Paris")

		So(failure.KindOf(err), ShouldEqual, failure.KindProvider)
		So(time.Since(start), ShouldBeLessThan, time.Second)
	})
}
