package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/nativemerge/pkg/buildinfo"
	"github.com/matzehuels/nativemerge/pkg/config"
	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/pipeline"
)

// mergeRequest is the body of every /v1 route.
type mergeRequest struct {
	Config    json.RawMessage `json:"config"`
	Graph     json.RawMessage `json:"graph"`
	Platforms []string        `json:"platforms,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`

	// Graph rendering, /v1/graph only.
	Format         string `json:"format,omitempty"`
	Detailed       bool   `json:"detailed,omitempty"`
	Reduce         bool   `json:"reduce,omitempty"`
	ClusterModules bool   `json:"cluster_modules,omitempty"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.execute(w, r)
	if !ok {
		return
	}
	s.writeDocument(w, r, func(buf *bytes.Buffer) error { return mio.WriteMapping(buf, res.Reports) })
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.execute(w, r)
	if !ok {
		return
	}
	s.writeDocument(w, r, func(buf *bytes.Buffer) error { return mio.WriteInspection(buf, res.Reports) })
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	res, req, ok := s.execute(w, r)
	if !ok {
		return
	}
	if len(res.Reports) != 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "graph rendering needs exactly one platform, got %d", len(res.Reports)))
		return
	}
	format := req.Format
	if format == "" {
		format = pipeline.FormatDOT
	}
	artifacts, err := pipeline.Render(r.Context(), res.Reports[0], pipeline.RenderOptions{
		Formats:        []string{format},
		Detailed:       req.Detailed,
		Reduce:         req.Reduce,
		ClusterModules: req.ClusterModules,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	contentType := "text/vnd.graphviz; charset=utf-8"
	if format == pipeline.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// execute decodes the request and runs the pipeline. On failure it writes
// the error response and returns false.
func (s *Server) execute(w http.ResponseWriter, r *http.Request) (*pipeline.Result, *mergeRequest, bool) {
	req, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	cfg, err := config.Parse(req.Config, config.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	doc, err := mio.ReadDocument(bytes.NewReader(req.Graph))
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}

	res, err := s.Runner.Execute(r.Context(), pipeline.Options{
		Config:    cfg,
		Document:  doc,
		Platforms: req.Platforms,
		Refresh:   req.Refresh,
		Logger:    s.Logger.With("run_id", RunID(r.Context())),
	})
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	return res, req, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*mergeRequest, error) {
	body := http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req mergeRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	if len(req.Config) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config is required")
	}
	if len(req.Graph) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph is required")
	}
	return &req, nil
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "run_id", RunID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCycleInInput, errors.ErrCodeCycleInLibraries, errors.ErrCodeInconsistentGraph:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
