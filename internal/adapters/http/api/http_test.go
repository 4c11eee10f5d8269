package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/coffeerun/internal/adapters/http/api"
	"github.com/okian/coffeerun/internal/adapters/repository"
	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
)

// Mock implementations for testing
type mockRaces struct {
	views   map[string]session.View
	results map[string]race.Result
	full    bool
	created [][]string
	reruns  int
	resets  int
	nextID  string
}

func newMockRaces() *mockRaces {
	return &mockRaces{
		views:   make(map[string]session.View),
		results: make(map[string]race.Result),
		nextID:  "s1",
	}
}

func (m *mockRaces) CreateRace(_ context.Context, names []string) (session.View, error) {
	m.created = append(m.created, names)
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return session.View{}, race.ErrNoRunners
	}
	if m.full {
		return session.View{}, repository.ErrCapacity
	}
	v := session.View{ID: m.nextID, Names: kept, Races: 1}
	m.views[v.ID] = v
	return v, nil
}

func (m *mockRaces) GetRace(_ context.Context, id string) (session.View, error) {
	v, ok := m.views[id]
	if !ok {
		return session.View{}, repository.ErrNotFound
	}
	return v, nil
}

func (m *mockRaces) Rerun(ctx context.Context, id string) (session.View, error) {
	v, err := m.GetRace(ctx, id)
	if err != nil {
		return v, err
	}
	m.reruns++
	v.Races++
	m.views[id] = v
	return v, nil
}

func (m *mockRaces) Reset(ctx context.Context, id string) (session.View, error) {
	v, err := m.GetRace(ctx, id)
	if err != nil {
		return v, err
	}
	m.resets++
	return v, nil
}

func (m *mockRaces) Results(ctx context.Context, id string) (race.Result, error) {
	if _, err := m.GetRace(ctx, id); err != nil {
		return race.Result{}, err
	}
	res, ok := m.results[id]
	if !ok {
		return race.Result{}, race.ErrNotCompleted
	}
	return res, nil
}

func (m *mockRaces) Delete(_ context.Context, id string) error {
	if _, ok := m.views[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.views, id)
	return nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "sessions": 1}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestRaceRoutes(t *testing.T) {
	Convey("Given the API routes over a mock service", t, func() {
		_ = logger.Init()
		deps := newMockRaces()
		mux := newMux(deps)

		Convey("When a race is created from a names list", func() {
			w := do(mux, http.MethodPost, "/races", `{"names":["Ana","Bo"]}`)

			Convey("Then it is created with a location", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/races/s1")
				var v session.View
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.Names, ShouldResemble, []string{"Ana", "Bo"})
			})

			Convey("Then it can be fetched, rerun, reset and deleted", func() {
				So(do(mux, http.MethodGet, "/races/s1", "").Code, ShouldEqual, http.StatusOK)
				So(do(mux, http.MethodPost, "/races/s1/rerun", "").Code, ShouldEqual, http.StatusOK)
				So(deps.reruns, ShouldEqual, 1)
				So(do(mux, http.MethodPost, "/races/s1/reset", "").Code, ShouldEqual, http.StatusOK)
				So(deps.resets, ShouldEqual, 1)
				So(do(mux, http.MethodDelete, "/races/s1", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodGet, "/races/s1", "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then results are a conflict until the race completes", func() {
				w := do(mux, http.MethodGet, "/races/s1/results", "")
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(w), ShouldEqual, "not_completed")
			})
		})

		Convey("When a race is created from roster text", func() {
			w := do(mux, http.MethodPost, "/races", `{"roster":"Ana\r\nBo\n\nCy"}`)

			Convey("Then every line becomes a name candidate", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.created[0], ShouldResemble, []string{"Ana", "Bo", "", "Cy"})
			})
		})

		Convey("When the request body is bad", func() {
			Convey("Then malformed JSON is rejected", func() {
				w := do(mux, http.MethodPost, "/races", `{"names":`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})

			Convey("Then an empty body is rejected", func() {
				So(do(mux, http.MethodPost, "/races", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then unknown fields are rejected", func() {
				So(do(mux, http.MethodPost, "/races", `{"runners":["Ana"]}`).Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a missing roster is rejected", func() {
				So(do(mux, http.MethodPost, "/races", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When every name is blank", func() {
			w := do(mux, http.MethodPost, "/races", `{"names":[" ",""]}`)

			Convey("Then the engine refusal maps to 422", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(errorCode(w), ShouldEqual, "no_runners")
			})
		})

		Convey("When the service is full", func() {
			deps.full = true
			w := do(mux, http.MethodPost, "/races", `{"names":["Ana"]}`)

			Convey("Then it answers 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the method does not match a route", func() {
			w := do(mux, http.MethodPut, "/races/s1", "")

			Convey("Then the mux refuses it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestResultsRoute(t *testing.T) {
	Convey("Given a completed race", t, func() {
		_ = logger.Init()
		deps := newMockRaces()
		deps.views["s1"] = session.View{ID: "s1"}
		standings := []race.Standing{
			{Rank: 1, Name: "Ana", FinishTime: 10*time.Second + 120*time.Millisecond, FinishOrder: 1},
			{Rank: 2, Name: "Bo", Lane: 1, FinishTime: 11*time.Second + 50*time.Millisecond, FinishOrder: 2},
		}
		deps.results["s1"] = race.Result{Standings: standings, Loser: standings[1], Designated: 1, ScriptHeld: true}
		mux := newMux(deps)

		Convey("When results are requested as JSON", func() {
			w := do(mux, http.MethodGet, "/races/s1/results", "")

			Convey("Then the ranking is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res race.Result
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Loser.Name, ShouldEqual, "Bo")
				So(res.Standings, ShouldHaveLength, 2)
			})
		})

		Convey("When results are requested as text", func() {
			w := do(mux, http.MethodGet, "/races/s1/results?format=text", "")

			Convey("Then the shareable block is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
				So(w.Body.String(), ShouldContainSubstring, "1. Ana (10.12s)")
				So(w.Body.String(), ShouldContainSubstring, "2. Bo (11.05s)")
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API routes", t, func() {
		_ = logger.Init()
		mux := newMux(newMockRaces())

		Convey("Then /stats returns the provider's stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"sessions":1`)
		})

		Convey("Then /healthz exposes the Prometheus registry", func() {
			do(mux, http.MethodGet, "/races/missing", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "coffeerun_race_http_requests_total")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("Then Wrap keeps the cause reachable", func() {
			err := api.Wrap("get race", cause)
			So(err, ShouldWrap, cause)
			So(err.Error(), ShouldEqual, "get race: boom")
			So(api.Wrap("noop", nil), ShouldBeNil)
		})

		Convey("Then WrapKind exposes both kind and cause", func() {
			err := api.WrapKind("create race", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(api.WrapKind("noop", api.ErrBadRequest, nil), ShouldBeNil)
		})

		Convey("Then NewKind carries its message", func() {
			err := api.NewKind("create race", api.ErrBadRequest, "missing names")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "create race: missing names")
		})
	})
}
