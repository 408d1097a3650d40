package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"yeargrid/internal/export"
	"yeargrid/internal/log"
	"yeargrid/internal/services"
	"yeargrid/internal/session"
)

// maxFormBytes bounds a posted grid; MAX_TABLES x MAX_ROWS x 12 short fields
// stay far below it.
const maxFormBytes = 1 << 20

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.grids.Ping(ctx); err != nil {
		checks["session_store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["session_store"] = "ok"
	}

	checks["trace"] = s.trace.GetMetrics()

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex renders the full page for the visitor's form session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := s.grids.Open(ctx, sessionID(r))
	if err != nil {
		s.fail(w, r, "Failed to open form session", err, log.OpRead)
		return
	}
	setSessionCookie(w, r, st.ID, s.sessionTTL)

	g, err := s.grids.Layout(st)
	if err != nil {
		s.fail(w, r, "Failed to build grid", err, log.OpBuild)
		return
	}
	s.render(w, r, "index.html", http.StatusOK, newGridView(g, nil, nil, s.grids.Limits()), nil)
}

// handleAddRow adds one year to every table. Posted values are echoed
// back unvalidated.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	s.resize(w, r, s.grids.AddRow, log.OpAddRow)
}

// handleAddTable adds one table. Posted values are echoed back unvalidated.
func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	s.resize(w, r, s.grids.AddTable, log.OpAddTable)
}

func (s *Server) resize(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (session.State, error), opName string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	resp := NewHTMXResponse()
	st, err := op(r.Context(), sessionID(r))
	switch {
	case errors.Is(err, services.ErrLimitReached):
		resp.TriggerNotification(NotificationWarning, "The form cannot grow any further.", 4000)
	case err != nil:
		s.fail(w, r, "Failed to resize grid", err, opName)
		return
	}
	setSessionCookie(w, r, st.ID, s.sessionTTL)

	g, err := s.grids.Layout(st)
	if err != nil {
		s.fail(w, r, "Failed to build grid", err, log.OpBuild)
		return
	}
	fv := ParseGridForm(r.PostForm, g)
	s.render(w, r, "index.html", http.StatusOK, newGridView(g, &fv, nil, s.grids.Limits()), resp)
}

// handleSubmit validates the posted grid. Violations are shown per table
// and block aggregation; a valid grid is computed and announced.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, fv, ok := s.evaluate(w, r, true)
	if !ok {
		return
	}

	view := newGridView(res.Grid, fv, res.Violations, s.grids.Limits())
	resp := NewHTMXResponse().TriggerGridValidated(res.Violations)
	if !res.Valid() {
		s.events.LogGridRejected(r.Context(), res.State.ID, len(res.Violations), rejectedTables(res.Violations))
		resp.TriggerErrorNotification("Please fix the highlighted tables.")
		s.render(w, r, "index.html", http.StatusUnprocessableEntity, view, resp)
		return
	}

	s.events.LogGridSubmitted(r.Context(), res.State.ID, res.State.Tables, res.State.Rows)
	resp.TriggerSuccessNotification(statusValid)
	s.render(w, r, "index.html", http.StatusOK, view.withStatus(), resp)
}

// handleExport returns the computed grid as an .xlsx attachment, or the
// form with its violations when the grid is not valid.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, fv, ok := s.evaluate(w, r, false)
	if !ok {
		return
	}
	if !res.Valid() {
		view := newGridView(res.Grid, fv, res.Violations, s.grids.Limits())
		s.render(w, r, "index.html", http.StatusUnprocessableEntity, view, nil)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, res.Grid); err != nil {
		s.fail(w, r, "Failed to export grid", err, log.OpExport)
		return
	}

	filename := fmt.Sprintf("yeargrid-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// evaluate parses the posted grid against the visitor's session and runs
// validation. When submit is set the outcome is recorded and published.
func (s *Server) evaluate(w http.ResponseWriter, r *http.Request, submit bool) (services.Result, *FormValues, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return services.Result{}, nil, false
	}

	ctx := r.Context()
	st, err := s.grids.Open(ctx, sessionID(r))
	if err != nil {
		s.fail(w, r, "Failed to open form session", err, log.OpRead)
		return services.Result{}, nil, false
	}
	setSessionCookie(w, r, st.ID, s.sessionTTL)

	layout, err := s.grids.Layout(st)
	if err != nil {
		s.fail(w, r, "Failed to build grid", err, log.OpBuild)
		return services.Result{}, nil, false
	}
	fv := ParseGridForm(r.PostForm, layout)

	eval := s.grids.Evaluate
	if submit {
		eval = s.grids.Submit
	}
	res, err := eval(ctx, st.ID, fv.Submission, fv.Invalid)
	if err != nil {
		s.fail(w, r, "Failed to validate grid", err, log.OpValidate)
		return services.Result{}, nil, false
	}
	return res, &fv, true
}

// handleReset discards the form and starts over with one table of one row.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.grids.Reset(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, "Failed to reset form session", err, log.OpReset)
		return
	}
	setSessionCookie(w, r, st.ID, s.sessionTTL)

	g, err := s.grids.Layout(st)
	if err != nil {
		s.fail(w, r, "Failed to build grid", err, log.OpBuild)
		return
	}
	resp := NewHTMXResponse().TriggerFormReset()
	s.render(w, r, "index.html", http.StatusOK, newGridView(g, nil, nil, s.grids.Limits()), resp)
}

// render writes the full page, or only the grid partial for HTMX requests.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, status int, view gridView, resp *HTMXResponseBuilder) {
	if s.templates == nil {
		s.fail(w, r, "Templates not loaded", errors.New("templates not loaded"), log.OpRender)
		return
	}
	name := page
	if isHTMX(r) {
		name = "grid"
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, view); err != nil {
		s.fail(w, r, "Template execution failed", err, log.OpRender)
		return
	}

	if resp == nil {
		resp = NewHTMXResponse()
	}
	resp.Status(status).HTML(buf.Bytes()).Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	s.events.LogError(r.Context(), msg, err, log.ComponentHTTP, op, nil)
	InternalServerError("Something went wrong. Please try again.").
		TriggerErrorNotification("Something went wrong. Please try again.").
		Write(w)
}
