package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/view"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.State
	Stream(ctx context.Context) <-chan pipeline.Event
}

// Server exposes the pipeline over HTTP: a blocking JSON endpoint and an SSE
// progress stream. Every request triggers a fresh run.
type Server struct {
	e        *echo.Echo
	runner   Runner
	maxMiles float64
	logger   *slog.Logger
}

// errorBody is the failure shape the dashboard expects.
type errorBody struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Jobs    []string `json:"jobs"`
}

// New builds the echo instance and registers routes. maxMiles is the default
// max_distance applied when a request refines the result.
func New(runner Runner, maxMiles float64, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{e: e, runner: runner, maxMiles: maxMiles, logger: logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(echomw.Recover())
	e.Use(allowAnyOrigin)
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/api/jobs", s.getJobs)
	e.GET("/api/jobs/stream", s.streamJobs)

	return s
}

// allowAnyOrigin sets Access-Control-Allow-Origin on every response, including
// requests that carry no Origin header. CORSWithConfig only answers those that do.
func allowAnyOrigin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		return next(c)
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight runs.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) getJobs(c echo.Context) error {
	criteria, refine, err := s.criteria(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res := pipeline.NewResult(s.runner.Run(c.Request().Context()))
	if refine {
		res.Jobs = criteria.Apply(res.Jobs)
	}
	return c.JSON(http.StatusOK, res)
}

// progressEvent is the payload of an SSE "progress" event.
type progressEvent struct {
	Type      string `json:"type"`
	Node      string `json:"node"`
	Message   string `json:"message"`
	JobsCount *int   `json:"jobs_count,omitempty"`
}

func (s *Server) streamJobs(c echo.Context) error {
	criteria, refine, err := s.criteria(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for ev := range s.runner.Stream(c.Request().Context()) {
		var (
			name string
			data any
		)
		switch ev.Type {
		case pipeline.EventStageStart:
			name = "progress"
			data = progressEvent{Type: "start", Node: ev.Node, Message: nodeMessage(ev.Node, true, 0)}
		case pipeline.EventStageEnd:
			count := ev.JobsCount
			name = "progress"
			data = progressEvent{Type: "complete", Node: ev.Node, Message: nodeMessage(ev.Node, false, count), JobsCount: &count}
		case pipeline.EventComplete:
			if ev.Result == nil {
				continue
			}
			res := *ev.Result
			if refine {
				res.Jobs = criteria.Apply(res.Jobs)
			}
			name, data = "complete", res
		default:
			continue
		}
		if err := writeSSE(w, name, data); err != nil {
			s.logger.Debug("sse client went away", "error", err)
			return nil
		}
	}
	return nil
}

func writeSSE(w *echo.Response, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// criteria reads the optional refinement parameters. refine is false when
// none were given, so the result is returned exactly as the run produced it.
func (s *Server) criteria(c echo.Context) (view.Criteria, bool, error) {
	crit := view.Default(s.maxMiles)
	refine := false

	if v := c.QueryParam("work_type"); v != "" {
		wts, err := view.ParseWorkTypes(v)
		if err != nil {
			return crit, false, err
		}
		crit.WorkTypes = wts
		refine = true
	}
	if v := c.QueryParam("max_distance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return crit, false, fmt.Errorf("invalid max_distance %q", v)
		}
		crit.MaxDistance = d
		refine = true
	}
	if v := c.QueryParam("q"); v != "" {
		crit.Query = v
		refine = true
	}
	if v := c.QueryParam("sort"); v != "" {
		sb, err := view.ParseSort(v)
		if err != nil {
			return crit, false, err
		}
		crit.SortBy = sb
		refine = true
	}
	return crit, refine, nil
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorBody{Success: false, Error: msg, Jobs: []string{}})
}

var nodeMessages = map[string][2]string{
	pipeline.StageFetchRemotive:   {"Fetching remote jobs from Remotive...", "Found %d remote jobs from Remotive"},
	pipeline.StageFetchGreenhouse: {"Fetching jobs from Greenhouse boards...", "Found %d jobs from Greenhouse"},
	pipeline.StageFetchLever:      {"Fetching jobs from Lever boards...", "Found %d jobs from Lever"},
	pipeline.StageMergeJobs:       {"Merging and deduplicating jobs...", "Merged %d total jobs"},
	pipeline.StageCalcDistance:    {"Calculating distances and filtering...", "%d jobs match your criteria"},
}

// nodeMessage is the human-readable status line for a stage event.
func nodeMessage(node string, start bool, count int) string {
	m, ok := nodeMessages[node]
	switch {
	case ok && start:
		return m[0]
	case ok:
		return fmt.Sprintf(m[1], count)
	case start:
		return "Processing " + node
	default:
		return "Completed " + node
	}
}
