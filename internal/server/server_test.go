package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amishk599/jobradar/internal/commute"
	"github.com/amishk599/jobradar/internal/geo"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/source"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubSource struct{ out source.Outcome }

func (s stubSource) Fetch(context.Context) source.Outcome { return s.out }

func job(src model.Source, id, company, location string) model.Job {
	j := model.NewJob(src, id, model.InferWorkType(location))
	j.Title = "Senior Engineer"
	j.Company = company
	j.Location = location
	return j
}

func testPipeline() *pipeline.Pipeline {
	g := geo.NewGazetteer([]geo.Place{
		{Name: "san jose", Point: geo.Point{Lat: 37.3382, Lng: -121.8863}},
		{Name: "palo alto", Point: geo.Point{Lat: 37.4419, Lng: -122.1430}},
	}, geo.Point{Lat: 37.5, Lng: -122.0})
	est := commute.NewEstimator(geo.Point{Lat: 37.2358, Lng: -121.8606}, 25, g)

	stages := pipeline.Standard(
		stubSource{source.Outcome{Source: model.SourceRemotive, Jobs: []model.Job{job(model.SourceRemotive, "r1", "Zeta", "Remote")}, Progress: "Fetched 1 remote jobs from Remotive"}},
		stubSource{source.Outcome{Source: model.SourceGreenhouse, Jobs: []model.Job{job(model.SourceGreenhouse, "g1", "Acme", "Palo Alto, CA")}, Progress: "Fetched 1 jobs from 1 Greenhouse companies"}},
		stubSource{source.Outcome{Source: model.SourceLever, Jobs: []model.Job{job(model.SourceLever, "l1", "Beta", "San Jose, CA")}, Progress: "Fetched 1 jobs from 1 Lever companies"}},
		est,
	)
	return pipeline.New(stages, testLogger)
}

func TestGetJobs(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}

	var res pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.TotalFound != 3 || res.TotalFiltered != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	// distance order: remote, san jose, palo alto
	got := []string{res.Jobs[0].SourceID, res.Jobs[1].SourceID, res.Jobs[2].SourceID}
	if strings.Join(got, ",") != "r1,l1,g1" {
		t.Errorf("job order = %v", got)
	}
	if len(res.Progress) != 5 || res.FetchStartedAt == "" || res.FetchCompletedAt == "" {
		t.Errorf("progress/timestamps missing: %+v", res)
	}
}

func TestGetJobs_Refined(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	tests := []struct {
		query string
		want  string
	}{
		{"?sort=company", "g1,l1,r1"},
		{"?work_type=onsite", "l1,g1"},
		{"?max_distance=10", "r1,l1"},
		{"?q=zeta", "r1"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/jobs" + tc.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()

			var res pipeline.Result
			if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			ids := make([]string, len(res.Jobs))
			for i, j := range res.Jobs {
				ids[i] = j.SourceID
			}
			if got := strings.Join(ids, ","); got != tc.want {
				t.Errorf("jobs = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGetJobs_BadParam(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs?sort=salary")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

type panicRunner struct{}

func (panicRunner) Run(context.Context) pipeline.State { panic("no network") }
func (panicRunner) Stream(context.Context) <-chan pipeline.Event {
	ch := make(chan pipeline.Event)
	close(ch)
	return ch
}

func TestGetJobs_FailureShape(t *testing.T) {
	srv := httptest.NewServer(New(panicRunner{}, 25, testLogger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["error"] == "" {
		t.Errorf("unexpected body %v", body)
	}
	if jobs, ok := body["jobs"].([]any); !ok || len(jobs) != 0 {
		t.Errorf("jobs = %v, want []", body["jobs"])
	}
}

func TestAllowOriginOnEveryResponse(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		origin string
	}{
		{"jobs without origin", "/api/jobs", ""},
		{"jobs with origin", "/api/jobs", "http://localhost:3000"},
		{"stream without origin", "/api/jobs/stream", ""},
		{"bad request without origin", "/api/jobs?sort=bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Allow-Origin = %q, want *", got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "GET") {
		t.Errorf("Allow-Methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestStreamJobs(t *testing.T) {
	srv := httptest.NewServer(New(testPipeline(), 25, testLogger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs/stream")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	type frame struct {
		event string
		data  string
	}
	var frames []frame
	var cur frame
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			frames = append(frames, cur)
			cur = frame{}
		}
	}

	if len(frames) != 11 {
		t.Fatalf("got %d frames, want 11", len(frames))
	}

	var first progressEvent
	if err := json.Unmarshal([]byte(frames[0].data), &first); err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if frames[0].event != "progress" || first.Type != "start" || first.Node != pipeline.StageFetchRemotive {
		t.Errorf("first frame = %+v", frames[0])
	}
	if first.Message != "Fetching remote jobs from Remotive..." || first.JobsCount != nil {
		t.Errorf("start message = %+v", first)
	}

	var mergeEnd progressEvent
	if err := json.Unmarshal([]byte(frames[7].data), &mergeEnd); err != nil {
		t.Fatalf("decode merge frame: %v", err)
	}
	if mergeEnd.Type != "complete" || mergeEnd.Node != pipeline.StageMergeJobs || mergeEnd.Message != "Merged 3 total jobs" {
		t.Errorf("merge end = %+v", mergeEnd)
	}
	if mergeEnd.JobsCount == nil || *mergeEnd.JobsCount != 3 {
		t.Errorf("merge jobs_count = %v", mergeEnd.JobsCount)
	}

	last := frames[10]
	if last.event != "complete" {
		t.Fatalf("last event = %q", last.event)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(last.data), &res); err != nil {
		t.Fatalf("decode complete: %v", err)
	}
	if !res.Success || res.TotalFiltered != 3 || len(res.Jobs) != 3 {
		t.Errorf("complete result = %+v", res)
	}
}

func TestNodeMessage(t *testing.T) {
	if got := nodeMessage(pipeline.StageCalcDistance, false, 4); got != "4 jobs match your criteria" {
		t.Errorf("got %q", got)
	}
	if got := nodeMessage("custom", true, 0); got != "Processing custom" {
		t.Errorf("got %q", got)
	}
	if got := nodeMessage("custom", false, 2); got != "Completed custom" {
		t.Errorf("got %q", got)
	}
}
