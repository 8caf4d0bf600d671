package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/recapdeck/internal/adapters/http/api"
	service "github.com/okian/recapdeck/internal/app"
	"github.com/okian/recapdeck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records submissions and serves canned jobs.
type mockDependencies struct {
	dir       string
	submitted []model.GenerationRequest
	submitErr error
	jobs      map[string]model.Job
	batches   []model.BatchRecord
}

func (m *mockDependencies) UploadDir(_ context.Context) (string, error) {
	return os.MkdirTemp(m.dir, "upload-")
}

func (m *mockDependencies) Submit(_ context.Context, req model.GenerationRequest) (model.Job, error) {
	if m.submitErr != nil {
		return model.Job{}, m.submitErr
	}
	m.submitted = append(m.submitted, req)
	return model.Job{ID: "job-1", Status: model.JobQueued}, nil
}

func (m *mockDependencies) Job(_ context.Context, id string) (model.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", service.ErrJobNotFound, id)
	}
	return j, nil
}

func (m *mockDependencies) Deck(ctx context.Context, id string) (string, error) {
	j, err := m.Job(ctx, id)
	if err != nil {
		return "", err
	}
	if j.Status != model.JobSucceeded {
		return "", service.ErrJobNotDone
	}
	return j.OutputPath, nil
}

func (m *mockDependencies) Batches(_ context.Context) []model.BatchRecord {
	return m.batches
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type upload struct {
	field, name string
	data        []byte
}

func multipartBody(values map[string]string, files ...upload) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		w, _ := mw.CreateFormFile(f.field, f.name)
		_, _ = w.Write(f.data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	server.Register(context.Background(), mux)
	return mux
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{dir: t.TempDir()})

		Convey("Then health reports ok", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then prometheus metrics are exposed", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "recap_")
		})

		Convey("Then stats are served as JSON", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then the wrong method is rejected", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/jobs", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestJobsHandler_Post(t *testing.T) {
	Convey("Given the jobs endpoint", t, func() {
		deps := &mockDependencies{dir: t.TempDir()}
		mux := newMux(deps)

		Convey("When a dataset and an image are uploaded", func() {
			body, ct := multipartBody(
				map[string]string{"headline": " Q3 Wins ", "batch": "q3", "client": "Acme", "report_date": "2024-09-30"},
				upload{field: "dataset", name: "Recap.CSV", data: []byte("a,b\n")},
				upload{field: "image.cover", name: "cover.png", data: []byte("png")},
			)
			req := httptest.NewRequest(http.MethodPost, "/jobs", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the job is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"id":"job-1"`)
				So(w.Body.String(), ShouldContainSubstring, `"self":"/jobs/job-1"`)
			})

			Convey("Then the upload directory is kept for the job", func() {
				left, _ := filepath.Glob(filepath.Join(deps.dir, "upload-*"))
				So(left, ShouldHaveLength, 1)
			})

			Convey("Then the uploads are saved and passed on", func() {
				So(deps.submitted, ShouldHaveLength, 1)
				got := deps.submitted[0]
				So(got.Headline, ShouldEqual, "Q3 Wins")
				So(got.Batch, ShouldEqual, "q3")
				So(got.Client, ShouldEqual, "Acme")
				So(got.ReportDate, ShouldEqual, "2024-09-30")
				So(filepath.Ext(got.DatasetPath), ShouldEqual, ".csv")

				data, err := os.ReadFile(got.DatasetPath)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "a,b\n")
				So(got.Images, ShouldContainKey, "cover")
			})
		})

		Convey("When the dataset is missing", func() {
			body, ct := multipartBody(map[string]string{"headline": "x"})
			req := httptest.NewRequest(http.MethodPost, "/jobs", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the dataset has an unsupported extension", func() {
			body, ct := multipartBody(nil, upload{field: "dataset", name: "recap.json", data: []byte("{}")})
			req := httptest.NewRequest(http.MethodPost, "/jobs", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not multipart", func() {
			req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("%w: full", service.ErrBackpressure)
			body, ct := multipartBody(nil, upload{field: "dataset", name: "recap.xlsx", data: []byte("x")})
			req := httptest.NewRequest(http.MethodPost, "/jobs", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it answers 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w)["code"], ShouldEqual, "backpressure")
			})

			Convey("Then the saved uploads are removed", func() {
				left, err := filepath.Glob(filepath.Join(deps.dir, "upload-*"))
				So(err, ShouldBeNil)
				So(left, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a tiny upload limit", t, func() {
		deps := &mockDependencies{dir: t.TempDir()}
		mux := newMux(deps, api.WithMaxUploadBytes(16))
		body, ct := multipartBody(nil, upload{field: "dataset", name: "recap.csv", data: bytes.Repeat([]byte("x"), 1024)})
		req := httptest.NewRequest(http.MethodPost, "/jobs", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		Convey("Then oversized bodies are rejected", func() {
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.submitted, ShouldBeEmpty)
		})
	})
}

func TestJobsHandler_Get(t *testing.T) {
	Convey("Given known jobs", t, func() {
		dir := t.TempDir()
		deck := filepath.Join(dir, "recap_deck.pptx")
		So(os.WriteFile(deck, []byte("PK deck"), 0o600), ShouldBeNil)
		deps := &mockDependencies{dir: dir, jobs: map[string]model.Job{
			"done":    {ID: "done", Status: model.JobSucceeded, OutputPath: deck, Report: &model.Report{}},
			"pending": {ID: "pending", Status: model.JobRunning},
		}}
		mux := newMux(deps)

		Convey("Then a finished job links its deck", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/done", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"deck":"/jobs/done/deck"`)
			So(w.Body.String(), ShouldNotContainSubstring, dir)
		})

		Convey("Then the deck downloads", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/done/deck", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "recap_deck.pptx")
			So(w.Body.String(), ShouldEqual, "PK deck")
		})

		Convey("Then an unfinished deck is a conflict", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/pending/deck", nil))
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("Then unknown jobs are 404", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})
	})
}

func TestBatchesHandler(t *testing.T) {
	Convey("Given stored batches", t, func() {
		deps := &mockDependencies{dir: t.TempDir(), batches: []model.BatchRecord{{ID: "1", Name: "q3"}}}
		mux := newMux(deps)

		Convey("Then they are listed", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/batches", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			var got []model.BatchRecord
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Name, ShouldEqual, "q3")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both matched", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind carries no cause", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})

		Convey("Then Wrap of nil is nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
