package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/buildinfo"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

const maxBodyBytes = 64 * 1024

// GenerateRequest is the body of POST /v1/mazes. Zero fields take the
// server defaults.
type GenerateRequest struct {
	Seed           uint64  `json:"seed,omitempty"`
	Budget         int     `json:"budget,omitempty"`
	BudgetStep     int     `json:"budget_step,omitempty"`
	OverlapMargin  float64 `json:"overlap_margin,omitempty"`
	SelectAttempts int     `json:"select_attempts,omitempty"`
	Batteries      int     `json:"batteries,omitempty"`
	Strict         bool    `json:"strict,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errs.Code   `json:"code,omitempty"`
	Maze  *mio.Layout `json:"maze,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWith(w, r, err, nil)
}

// writeErrorWith reports err and attaches the layout a failed pass still
// produced.
func (s *Server) writeErrorWith(w http.ResponseWriter, r *http.Request, err error, l *mio.Layout) {
	status := errs.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	route := chi.RouteContext(r.Context()).RoutePattern()
	observability.HTTP().OnError(r.Context(), r.Method, route, err)
	writeJSON(w, status, errorResponse{Error: errs.UserMessage(err), Code: errs.GetCode(err), Maze: l})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
		Sessions int `json:"sessions"`
	}{"ok", buildinfo.Get(), s.Sessions()})
}

func (s *Server) options(req GenerateRequest) pipeline.Options {
	o := s.defaults
	o.Logger = s.logger
	if req.Seed != 0 {
		o.Seed = req.Seed
	}
	if req.Budget != 0 {
		o.Budget = req.Budget
	}
	if req.BudgetStep != 0 {
		o.BudgetStep = req.BudgetStep
	}
	if req.OverlapMargin != 0 {
		o.OverlapMargin = req.OverlapMargin
	}
	if req.SelectAttempts != 0 {
		o.SelectAttempts = req.SelectAttempts
	}
	if req.Batteries != 0 {
		o.Batteries = req.Batteries
	}
	o.Strict = o.Strict || req.Strict
	return o
}

func decodeRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request")
	}
	return req, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ps, err := pipeline.NewSession(s.lib, s.options(req), s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := uuid.NewString()
	l, genErr := ps.Generate(r.Context())
	l.ID = id
	s.addSession(id, ps)
	if err := s.archive(r, l); err != nil {
		s.writeError(w, r, err)
		return
	}
	if genErr != nil {
		s.writeErrorWith(w, r, genErr, l)
		return
	}
	w.Header().Set("Location", "/v1/mazes/"+id)
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ls, ok := s.session(id)
	if !ok {
		s.writeError(w, r, errs.New(errs.ErrCodeRunNotFound, "no live session %s", id))
		return
	}

	l, genErr := ls.Regenerate(r.Context())
	l.ID = id
	if err := s.archive(r, l); err != nil {
		s.writeError(w, r, err)
		return
	}
	if genErr != nil {
		s.writeErrorWith(w, r, genErr, l)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) archive(r *http.Request, l *mio.Layout) error {
	run, err := archive.NewRun(l)
	if err != nil {
		return err
	}
	return s.store.Put(r.Context(), run)
}

// layout returns the live session's layout, falling back to the archive.
func (s *Server) layout(r *http.Request, id string) (*mio.Layout, error) {
	if ls, ok := s.session(id); ok {
		if l := ls.Layout(); l != nil {
			l.ID = id
			return l, nil
		}
	}
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return run.Decode()
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.layout(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatTXT:  "text/plain; charset=utf-8",
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.layout(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{Formats: []string{format}, Detailed: r.URL.Query().Get("detailed") == "true"}
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil {
		opts.Width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil {
		opts.Height = v
	}
	artifacts, _, _, err := s.runner.RenderWithCacheInfo(r.Context(), l, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []archive.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
