// Package server exposes trace rendering over HTTP.
//
// Every endpoint takes a tracer payload (the same JSON the tracer service
// returns) in the request body and answers with an image, a diagram or a
// JSON document. Nothing is stored between requests; each GIF export runs on
// its own playback controller.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/traces/inspect
//	POST /v1/export/png?step=N
//	POST /v1/export/gif?speed=MS
//	POST /v1/graph/svg?step=N&var=NAME
//	POST /v1/graph/png?step=N&var=NAME&scale=X
//	POST /v1/explain
//	POST /v1/summarize
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tracetower/pkg/buildinfo"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/explain"
	"github.com/matzehuels/tracetower/pkg/export"
	"github.com/matzehuels/tracetower/pkg/playback"
	"github.com/matzehuels/tracetower/pkg/render/nodelink"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

const (
	maxPayloadBytes = 16 << 20
	requestTimeout  = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	Exporter *export.Exporter
	// Explain is optional; without it /v1/explain and /v1/summarize answer 501.
	Explain *explain.Client
	Roles   roles.RoleMap
	Logger  *log.Logger
}

// Server serves the HTTP surface.
type Server struct {
	exporter *export.Exporter
	explain  *explain.Client
	roles    roles.RoleMap
	logger   *log.Logger
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Exporter == nil {
		opts.Exporter = export.New(export.Options{Logger: opts.Logger})
	}
	return &Server{
		exporter: opts.Exporter,
		explain:  opts.Explain,
		roles:    opts.Roles,
		logger:   opts.Logger,
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/traces/inspect", s.inspect)
		r.Post("/export/png", s.exportPNG)
		r.Post("/export/gif", s.exportGIF)
		r.Post("/graph/svg", s.graphSVG)
		r.Post("/graph/png", s.graphPNG)
		r.Post("/explain", s.explainLine)
		r.Post("/summarize", s.summarize)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// Inspection is the response of /v1/traces/inspect.
type Inspection struct {
	Steps    int               `json:"steps"`
	Roles    map[string]string `json:"roles"`
	External bool              `json:"external"`
	Error    string            `json:"error,omitempty"`
	// Warning carries the MALFORMED_TRACE message of a degraded payload.
	Warning string `json:"warning,omitempty"`
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	tr, warning, err := s.readTrace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a := roles.Classify(tr, s.roles)
	out := Inspection{
		Steps:    tr.Len(),
		Roles:    make(map[string]string),
		External: a.External(),
		Error:    tr.Error,
		Warning:  warning,
	}
	for _, name := range a.Names() {
		out.Roles[name] = a.Role(name).String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) exportPNG(w http.ResponseWriter, r *http.Request) {
	tr, _, err := s.readTrace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := stepParam(r, tr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := s.exporter.StepPNG(r.Context(), tr, step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "image/png", export.Filename(export.PNG, step), data)
}

func (s *Server) exportGIF(w http.ResponseWriter, r *http.Request) {
	tr, _, err := s.readTrace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	speed := playback.DefaultSpeed
	if v := r.URL.Query().Get("speed"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidSpeed, "speed must be milliseconds: %q", v))
			return
		}
		speed = time.Duration(ms) * time.Millisecond
		if err := errors.ValidateSpeed(speed); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	c := playback.New(playback.Options{Speed: speed, Logger: s.logger})
	c.Load(tr)
	data, err := s.exporter.GIF(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "image/gif", export.Filename(export.GIF, 0), data)
}

// graphDOT finds the graph variable named by ?var (the first graph when
// empty) at ?step and returns its DOT source.
func (s *Server) graphDOT(r *http.Request) (string, int, error) {
	tr, _, err := s.readTrace(r)
	if err != nil {
		return "", 0, err
	}
	step, err := stepParam(r, tr)
	if err != nil {
		return "", 0, err
	}
	name := r.URL.Query().Get("var")
	view := structure.BuildView(tr.At(step), roles.Classify(tr, s.roles))

	for _, e := range view.Structures {
		if g, ok := e.Model.(*structure.Graph); ok && (name == "" || e.Name == name) {
			return nodelink.ToDOT(g, nodelink.Options{Label: e.Name}), step, nil
		}
	}
	return "", 0, errors.New(errors.ErrCodeNotFound, "no graph variable %q at step %d", name, step+1)
}

func (s *Server) graphSVG(w http.ResponseWriter, r *http.Request) {
	dot, _, err := s.graphDOT(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(svg)
}

// graphPNG rasterizes the graph drawing with rsvg-convert; without it the
// route answers 501.
func (s *Server) graphPNG(w http.ResponseWriter, r *http.Request) {
	scale := 1.0
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 8 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, 8]: %q", v))
			return
		}
		scale = f
	}
	dot, step, err := s.graphDOT(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := nodelink.RenderPNG(r.Context(), dot, scale)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, "image/png", fmt.Sprintf("tracetower-graph-step-%d.png", step+1), data)
}

func (s *Server) explainLine(w http.ResponseWriter, r *http.Request) {
	if s.explain == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no explanation service configured"))
		return
	}
	var req struct {
		CodeLine string `json:"code_line"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := s.explain.Explain(r.Context(), req.CodeLine)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	if s.explain == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no explanation service configured"))
		return
	}
	var req struct {
		Code  string          `json:"code"`
		Trace json.RawMessage `json:"trace"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tr, err := trace.Normalize(req.Trace)
	if err != nil && !errors.Is(err, errors.ErrCodeMalformedTrace) {
		s.writeError(w, r, err)
		return
	}
	text, err := s.explain.Summarize(r.Context(), req.Code, tr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

// readTrace decodes the request body. A degraded payload is accepted and
// its MALFORMED_TRACE message returned as a warning.
func (s *Server) readTrace(r *http.Request) (*trace.Trace, string, error) {
	tr, err := trace.Read(http.MaxBytesReader(nil, r.Body, maxPayloadBytes))
	if err == nil {
		return tr, "", nil
	}
	if errors.Is(err, errors.ErrCodeMalformedTrace) {
		return tr, errors.UserMessage(err), nil
	}
	return nil, "", err
}

func stepParam(r *http.Request, tr *trace.Trace) (int, error) {
	if tr.Len() == 0 {
		return 0, errors.New(errors.ErrCodeEmptyTrace, "trace has no steps")
	}
	v := r.URL.Query().Get("step")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > tr.Len() {
		return 0, errors.New(errors.ErrCodeInvalidInput, "step must be in [1, %d]: %q", tr.Len(), v)
	}
	return n - 1, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidSpeed,
		errors.ErrCodeInvalidPath, errors.ErrCodeMalformedTrace:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeEmptyTrace:
		return http.StatusUnprocessableEntity
	case errors.ErrCodePlaybackLocked:
		return http.StatusConflict
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout, errors.ErrCodeExportCancelled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
