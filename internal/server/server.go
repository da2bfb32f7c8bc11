// Package server exposes the Collatz finder over HTTP.
//
// Routes:
//
//	GET /v1/smallest/:length     smallest start with the given path length
//	GET /v1/length/:value        path length of value
//	GET /v1/trajectory/:value    values visited from value down to 1
//	GET /healthz                 liveness
//	GET /metrics                 Prometheus exposition (when a Gatherer is set)
//
// The /v1 routes accept an optional ?bits= query parameter that narrows the
// integer width; /v1/smallest also takes ?below= to bound the search. Every
// response carries an X-Request-ID header.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/internal/config"
	"github.com/katalvlaran/collatz/metrics"
	"github.com/katalvlaran/collatz/u128"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// StatusClientClosedRequest is returned when the client went away first.
const StatusClientClosedRequest = 499

const requestIDKey = "request_id"

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeOverflow   = "OVERFLOW"
	CodeNotFound   = "NOT_FOUND"
	CodeWalkLimit  = "WALK_LIMIT"
	CodeMemoLimit  = "MEMO_LIMIT"
	CodeTimeout    = "TIMEOUT"
	CodeCancelled  = "CANCELLED"
	CodeInternal   = "INTERNAL"
)

// SmallestResponse is the body of a successful /v1/smallest call.
type SmallestResponse struct {
	Length   int          `json:"length"`
	Value    u128.Uint128 `json:"value"`
	Bits     int          `json:"bits"`
	Explored uint64       `json:"explored"`
	Peak     u128.Uint128 `json:"peak"`
}

// LengthResponse is the body of a successful /v1/length call.
type LengthResponse struct {
	Value  u128.Uint128 `json:"value"`
	Length int          `json:"length"`
	Bits   int          `json:"bits"`
}

// TrajectoryResponse is the body of a successful /v1/trajectory call.
type TrajectoryResponse struct {
	Value      u128.Uint128   `json:"value"`
	Length     int            `json:"length"`
	Trajectory []u128.Uint128 `json:"trajectory"`
}

// ErrorResponse is returned for every failed request. Value is -1 when a
// query ran and produced no answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Value     *int   `json:"value,omitempty"`
	RequestID string `json:"request_id"`
}

// Deps bundles what the server needs. Only Config is required.
type Deps struct {
	Config config.Config

	// Memo, when non-nil, is shared by every request.
	Memo *collatz.Memo

	Recorder *metrics.Recorder
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server wraps a configured gin engine.
type Server struct {
	cfg    config.Config
	memo   *collatz.Memo
	rec    *metrics.Recorder
	log    *slog.Logger
	engine *gin.Engine
}

// New builds the server and registers its routes.
func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:    d.Config,
		memo:   d.Memo,
		rec:    d.Recorder,
		log:    log.With(slog.String("component", "server")),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), s.accessLog())
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.engine.Group("/v1")
	v1.GET("/smallest/:length", s.handleSmallest)
	v1.GET("/length/:value", s.handleLength)
	v1.GET("/trajectory/:value", s.handleTrajectory)
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on Config.Server.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String(requestIDKey, c.GetString(requestIDKey)),
		)
	}
}

// queryOptions derives collatz options from the request and configuration.
func (s *Server) queryOptions(ctx context.Context, c *gin.Context) ([]collatz.Option, int, error) {
	bits := s.cfg.Bits
	if raw := c.Query("bits"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, 0, errors.New("bits must be an integer")
		}
		bits = n
	}
	opts := []collatz.Option{
		collatz.WithContext(ctx),
		collatz.WithBits(bits),
		collatz.WithMaxWalk(s.cfg.MaxWalk),
		collatz.WithMaxMemo(s.cfg.MaxMemo),
		collatz.WithMemo(s.memo),
		collatz.WithOnRecord(s.rec.OnRecord()),
	}
	return opts, bits, nil
}

func (s *Server) handleSmallest(c *gin.Context) {
	length, err := strconv.Atoi(c.Param("length"))
	if err != nil || length < 0 {
		s.badRequest(c, "length must be a non-negative integer")
		return
	}
	if length > s.cfg.Server.MaxLength {
		s.badRequest(c, "length exceeds "+strconv.Itoa(s.cfg.Server.MaxLength))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.Timeout)
	defer cancel()
	opts, bits, err := s.queryOptions(ctx, c)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if raw := c.Query("below"); raw != "" {
		bound, err := u128.Parse(raw)
		if err != nil {
			s.badRequest(c, "below: "+err.Error())
			return
		}
		opts = append(opts, collatz.WithBound(bound))
	}

	start := time.Now()
	res, err := collatz.Find(length, opts...)
	s.rec.ObserveFind(res, err, time.Since(start))
	if err != nil {
		s.queryFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, SmallestResponse{
		Length:   res.Target,
		Value:    res.Value,
		Bits:     bits,
		Explored: res.Explored,
		Peak:     res.Peak,
	})
}

func (s *Server) handleLength(c *gin.Context) {
	v, err := u128.Parse(c.Param("value"))
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.Timeout)
	defer cancel()
	opts, bits, err := s.queryOptions(ctx, c)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	start := time.Now()
	length, err := collatz.PathLength(v, opts...)
	s.rec.Observe(metrics.KindLength, err, time.Since(start))
	if err != nil {
		s.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, LengthResponse{Value: v, Length: length, Bits: bits})
}

func (s *Server) handleTrajectory(c *gin.Context) {
	v, err := u128.Parse(c.Param("value"))
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.Timeout)
	defer cancel()
	opts, _, err := s.queryOptions(ctx, c)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	start := time.Now()
	traj, err := collatz.Trajectory(v, opts...)
	s.rec.Observe(metrics.KindTrajectory, err, time.Since(start))
	if err != nil {
		s.queryFailed(c, err)
		return
	}
	if traj == nil {
		traj = []u128.Uint128{}
	}
	c.JSON(http.StatusOK, TrajectoryResponse{Value: v, Length: len(traj), Trajectory: traj})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:     msg,
		Code:      CodeBadRequest,
		RequestID: c.GetString(requestIDKey),
	})
}

// queryFailed maps a query error onto a status code and error code.
func (s *Server) queryFailed(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, collatz.ErrOptionViolation):
		status, code = http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, collatz.ErrOverflow):
		status, code = http.StatusUnprocessableEntity, CodeOverflow
	case errors.Is(err, collatz.ErrNotFound):
		status, code = http.StatusUnprocessableEntity, CodeNotFound
	case errors.Is(err, collatz.ErrWalkLimit):
		status, code = http.StatusUnprocessableEntity, CodeWalkLimit
	case errors.Is(err, collatz.ErrMemoLimit):
		status, code = http.StatusUnprocessableEntity, CodeMemoLimit
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, context.Canceled):
		status, code = StatusClientClosedRequest, CodeCancelled
	}

	resp := ErrorResponse{Error: err.Error(), Code: code, RequestID: c.GetString(requestIDKey)}
	if status == http.StatusUnprocessableEntity {
		noAnswer := -1
		resp.Value = &noAnswer
	}
	if status == http.StatusInternalServerError {
		s.log.Error("query failed", slog.String(requestIDKey, resp.RequestID), slog.Any("error", err))
	} else {
		s.log.Info("query rejected", slog.String(requestIDKey, resp.RequestID), slog.String("code", code))
	}
	c.AbortWithStatusJSON(status, resp)
}
