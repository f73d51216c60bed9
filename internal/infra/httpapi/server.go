// Package httpapi serves the sensitivity calculator over HTTP:
//
//	GET  /healthz
//	POST /v1/sensitivity
//	GET  /metrics
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/deshima-dev/desim/internal/buildinfo"
	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
	"github.com/deshima-dev/desim/internal/usecase/sensitivity"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	calc      *sensitivity.Calculator
	base      domain.Params
	metrics   *Metrics
	log       *slog.Logger
	rateLimit int
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRateLimit bounds calculation requests per minute per client IP.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// New serves calculations on top of base, the parameters resolved from the
// workspace instrument and conditions.
func New(calc *sensitivity.Calculator, base domain.Params, opts ...Option) *Server {
	s := &Server{
		calc:    calc,
		base:    base,
		metrics: NewMetrics(),
		log:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.accessLog)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(rateLimit(s.rateLimit))
		}
		r.Post("/sensitivity", s.sensitivity)
	})
	return r
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &domain.OpError{Op: "httpapi.listen", Kind: domain.KindExecution, Path: addr, Err: err}
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("serve.start", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("serve.stop")
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

type sweepRequest struct {
	Param  string    `json:"param" validate:"required"`
	Values []float64 `json:"values" validate:"required,min=1,max=10000"`
}

type sensitivityRequest struct {
	// Set overrides parameters by name, e.g. {"F_GHz": 350, "pwv": 1}.
	Set   map[string]float64 `json:"set"`
	Sweep *sweepRequest      `json:"sweep"`
}

type sensitivityResponse struct {
	RequestID string        `json:"request_id"`
	Params    domain.Params `json:"params"`
	Sweep     domain.Sweep  `json:"sweep"`
	Rows      []domain.Row  `json:"rows"`
}

type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) sensitivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rid := requestIDFrom(r.Context())

	p, sweep, err := s.decode(w, r)
	if err == nil {
		var tbl domain.Table
		tbl, err = s.calc.Sweep(r.Context(), p, sweep)
		if err == nil {
			s.metrics.observe(outcomeOK, time.Since(start).Seconds(), len(tbl.Rows))
			writeJSON(w, http.StatusOK, sensitivityResponse{RequestID: rid, Params: p, Sweep: sweep, Rows: tbl.Rows})
			return
		}
	}

	status, code := classify(err)
	outcome := outcomeError
	if status < 500 {
		outcome = outcomeInvalid
	}
	s.metrics.observe(outcome, time.Since(start).Seconds(), 0)
	if status >= 500 {
		s.log.Error("sensitivity.failed", "request_id", rid, "err", err)
	}
	writeJSON(w, status, errorBody{Error: code, Detail: err.Error(), Param: domain.ParamName(err), RequestID: rid})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (domain.Params, domain.Sweep, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req sensitivityRequest
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return domain.Params{}, domain.Sweep{}, badRequest(err)
	}
	if err := paramset.Struct(req); err != nil {
		return domain.Params{}, domain.Sweep{}, badRequest(err)
	}

	p := s.base
	names := make([]string, 0, len(req.Set))
	for name := range req.Set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := paramset.Set(&p, name, req.Set[name]); err != nil {
			return domain.Params{}, domain.Sweep{}, err
		}
	}

	var sweep domain.Sweep
	if req.Sweep != nil {
		if _, err := paramset.Get(p, req.Sweep.Param); err != nil {
			return domain.Params{}, domain.Sweep{}, err
		}
		sweep = domain.Sweep{Param: req.Sweep.Param, Values: req.Sweep.Values}
	}
	return p, sweep, nil
}

func badRequest(err error) error {
	return &domain.OpError{
		Op:   "httpapi.decode",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err),
	}
}

func classify(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	case domain.IsKind(err, domain.KindInvalidConfig):
		return http.StatusBadRequest, string(domain.KindInvalidConfig)
	case domain.IsKind(err, domain.KindNotFound):
		return http.StatusNotFound, string(domain.KindNotFound)
	default:
		return http.StatusInternalServerError, string(domain.KindExecution)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
