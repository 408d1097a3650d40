package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yeargrid/internal/amqp"
	"yeargrid/internal/core"
	"yeargrid/internal/metrics"
	"yeargrid/internal/session"
)

var ErrLimitReached = errors.New("limit reached")

// Publisher announces accepted grids.
type Publisher interface {
	PublishGridSubmitted(ctx context.Context, msg *amqp.GridSubmittedMessage) error
}

// Limits bound the form size. Zero means unbounded.
type Limits struct {
	MaxTables int
	MaxRows   int
}

type Options struct {
	Limits    Limits
	Zero      core.ZeroPolicy
	Publisher Publisher
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// GridService orchestrates form sessions, validation and aggregation.
type GridService struct {
	store     session.Store
	publisher Publisher
	metrics   *metrics.Metrics
	calc      core.Calculator
	validator core.Validator
	limits    Limits
	now       func() time.Time
}

func NewGridService(store session.Store, opts Options) *GridService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &GridService{
		store:     store,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		calc:      core.Calculator{Zero: opts.Zero},
		validator: core.Validator{Zero: opts.Zero},
		limits:    opts.Limits,
		now:       now,
	}
}

// Result is the outcome of checking a submission.
type Result struct {
	State      session.State
	Grid       core.Grid // filled with the submitted values; computed when valid
	Violations core.Violations
}

func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Open returns the session with id. A missing, malformed or expired id
// starts a new one-by-one session.
func (s *GridService) Open(ctx context.Context, id string) (session.State, error) {
	if session.ValidID(id) {
		st, err := s.store.Get(ctx, id)
		switch {
		case err == nil:
			return st, nil
		case !errors.Is(err, session.ErrNotFound):
			return session.State{}, fmt.Errorf("load session: %w", err)
		}
	}
	return s.start(ctx)
}

func (s *GridService) start(ctx context.Context) (session.State, error) {
	st := session.New(s.now())
	if err := s.store.Save(ctx, st); err != nil {
		return session.State{}, fmt.Errorf("save session: %w", err)
	}
	slog.InfoContext(ctx, "Form session started", "session_id", st.ID)
	return st, nil
}

// Layout builds the empty grid for a session's counts.
func (s *GridService) Layout(st session.State) (core.Grid, error) {
	return core.Build(st.Tables, st.Rows, s.now().Year())
}

// AddRow appends one older year to every table.
func (s *GridService) AddRow(ctx context.Context, id string) (session.State, error) {
	return s.update(ctx, id, func(st *session.State) error {
		if s.limits.MaxRows > 0 && st.Rows >= s.limits.MaxRows {
			return fmt.Errorf("%w: at most %d rows", ErrLimitReached, s.limits.MaxRows)
		}
		st.Rows++
		return nil
	})
}

// AddTable appends one table with the current row count.
func (s *GridService) AddTable(ctx context.Context, id string) (session.State, error) {
	return s.update(ctx, id, func(st *session.State) error {
		if s.limits.MaxTables > 0 && st.Tables >= s.limits.MaxTables {
			return fmt.Errorf("%w: at most %d tables", ErrLimitReached, s.limits.MaxTables)
		}
		st.Tables++
		return nil
	})
}

// update applies fn to the session and saves it. When fn refuses the
// change the unchanged session is returned along with its error.
func (s *GridService) update(ctx context.Context, id string, fn func(*session.State) error) (session.State, error) {
	st, err := s.Open(ctx, id)
	if err != nil {
		return session.State{}, err
	}
	if err := fn(&st); err != nil {
		return st, err
	}
	st.UpdatedAt = s.now()
	if err := s.store.Save(ctx, st); err != nil {
		return session.State{}, fmt.Errorf("save session: %w", err)
	}
	slog.InfoContext(ctx, "Form session resized",
		"session_id", st.ID,
		"table_count", st.Tables,
		"row_count", st.Rows)
	return st, nil
}

// Reset drops the session and starts a fresh one.
func (s *GridService) Reset(ctx context.Context, id string) (session.State, error) {
	if session.ValidID(id) {
		if err := s.store.Delete(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to delete form session", "session_id", id, "error", err)
		}
	}
	return s.start(ctx)
}

// Evaluate lays out the session's grid, fills in sub and validates it.
// Unparseable cells reported in invalid take precedence: when present the
// structural checks are skipped. A valid grid gets its aggregates computed.
func (s *GridService) Evaluate(ctx context.Context, id string, sub core.Submission, invalid core.Violations) (Result, error) {
	st, err := s.Open(ctx, id)
	if err != nil {
		return Result{}, err
	}
	g, err := s.Layout(st)
	if err != nil {
		return Result{}, err
	}
	g.Fill(sub)

	res := Result{State: st, Grid: g}
	if len(invalid) > 0 {
		res.Violations = invalid
		return res, nil
	}
	// validate what the grid holds, not what was posted, so stray
	// tables or rows beyond the session's counts are ignored
	res.Violations = s.validator.Validate(g.Submission())
	if res.Valid() {
		res.Grid.Compute(s.calc)
	}
	return res, nil
}

// Submit evaluates the submission, records the outcome and publishes
// accepted grids. Publishing failures are logged; the result stands.
func (s *GridService) Submit(ctx context.Context, id string, sub core.Submission, invalid core.Violations) (Result, error) {
	res, err := s.Evaluate(ctx, id, sub, invalid)
	if err != nil {
		return Result{}, err
	}
	s.metrics.ObserveSubmission(res.Violations)

	if !res.Valid() {
		return res, nil
	}
	if err := s.publish(ctx, res); err != nil {
		slog.ErrorContext(ctx, "Failed to publish grid submitted message",
			"session_id", res.State.ID,
			"error", err)
	}
	return res, nil
}

func (s *GridService) publish(ctx context.Context, res Result) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping grid submitted message")
		return nil
	}
	return s.publisher.PublishGridSubmitted(ctx, amqp.NewGridSubmittedMessage(res.State.ID, res.Grid, s.now()))
}

// Limits returns the configured form size bounds.
func (s *GridService) Limits() Limits {
	return s.limits
}

// Ping checks the session store.
func (s *GridService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
