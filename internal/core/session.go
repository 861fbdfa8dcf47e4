package core

// session.go runs validations in the background and keeps their results
// editable.
//
// A session is created per import: it compiles the mapping, takes a run
// slot, validates every row off the request goroutine and broadcasts
// progress to subscribers. Once the run completes the session holds an
// Editor over the cleaned table until it is closed or expires.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotReady is returned when a session's run has not completed.
	ErrSessionNotReady = errors.New("validation still running")
)

// Session defaults.
const (
	DefaultSessionTTL      = 2 * time.Hour
	DefaultResultRetention = 5 * time.Minute
	listenerBuffer         = 10
)

// ServiceConfig tunes the session service. Zero values use defaults.
type ServiceConfig struct {
	MaxConcurrentRuns int
	MaxWait           time.Duration
	SessionTTL        time.Duration
	ResultRetention   time.Duration // how long failed or cancelled sessions stay readable
	HistorySize       int
}

// Service owns validation sessions.
type Service struct {
	pipeline *Pipeline
	limiter  *RunLimiter
	cfg      ServiceConfig

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	ID        string
	Headers   []string
	Mapping   Mapping
	Plan      *Plan
	CreatedAt time.Time
	Cancel    context.CancelFunc
	Done      chan struct{}
	finished  sync.Once

	mu         sync.Mutex
	progress   RunProgress
	editor     *Editor
	lastAccess time.Time

	listenerMu sync.Mutex
	listeners  []chan RunProgress
	closed     bool
}

// NewService creates a session service around p.
func NewService(p *Pipeline, cfg ServiceConfig) *Service {
	if p == nil {
		p = NewPipeline()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.ResultRetention <= 0 {
		cfg.ResultRetention = DefaultResultRetention
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	return &Service{
		pipeline: p,
		limiter:  NewRunLimiter(cfg.MaxConcurrentRuns, cfg.MaxWait),
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Pipeline returns the pipeline runs are executed with.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Limiter exposes the run limiter for status reporting.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// StartValidation compiles mapping and validates rows in the background,
// returning the new session id. A nil mapping is inferred from headers, which
// then must not be empty.
//
// Returns ErrTooManyRuns if no run slot frees up in time.
func (s *Service) StartValidation(ctx context.Context, headers []string, rows []Row, mapping Mapping) (string, error) {
	if mapping == nil {
		if len(headers) == 0 {
			return "", ErrNoHeaders
		}
		mapping = InferMapping(headers)
	}
	plan, err := s.pipeline.Compile(mapping)
	if err != nil {
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.New().String()
	runCtx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	sess := &session{
		ID:        id,
		Headers:   append([]string(nil), headers...),
		Mapping:   mapping.Clone(),
		Plan:      plan,
		CreatedAt: now,
		Cancel:    cancel,
		Done:      make(chan struct{}),
		progress: RunProgress{
			SessionID: id,
			Phase:     PhaseStarting,
			TotalRows: len(rows),
		},
		lastAccess: now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	attrs := append([]any{"session_id", id, "rows", len(rows), "fields", len(plan.Entries)}, clientAttrs(ctx)...)
	slog.Info("validation session started", attrs...)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in validation run", "session_id", id, "panic", r)
				s.finish(sess, PhaseFailed, fmt.Sprintf("internal error: %v", r))
			}
		}()
		s.runSession(runCtx, sess, rows)
	}()

	return id, nil
}

func (s *Service) runSession(ctx context.Context, sess *session, rows []Row) {
	start := time.Now()
	sess.update(func(p *RunProgress) { p.Phase = PhaseValidating })

	result, err := s.pipeline.RunPlan(ctx, rows, sess.Plan, func(vp ValidationProgress) {
		if vp.IsComplete {
			return
		}
		sess.update(func(p *RunProgress) { p.applyMetadata(vp.Metadata) })
	})
	if err != nil {
		phase := PhaseFailed
		if errors.Is(err, context.Canceled) {
			phase = PhaseCancelled
		}
		slog.Warn("validation run stopped", "session_id", sess.ID, "phase", phase, "error", err)
		s.finish(sess, phase, err.Error())
		return
	}

	editor := NewEditor(s.pipeline, sess.Plan, result.State(), s.cfg.HistorySize)

	sess.mu.Lock()
	sess.editor = editor
	sess.progress.applyMetadata(result.Metadata)
	sess.mu.Unlock()

	slog.Info("validation session complete",
		"session_id", sess.ID,
		"rows", result.Metadata.TotalRows,
		"errors", result.Metadata.ErrorCount,
		"changes", result.Metadata.ChangeCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.finish(sess, PhaseComplete, "")
}

// finish publishes the terminal phase and closes subscribers.
func (s *Service) finish(sess *session, phase RunPhase, errMsg string) {
	sess.finished.Do(func() { s.finishOnce(sess, phase, errMsg) })
}

func (s *Service) finishOnce(sess *session, phase RunPhase, errMsg string) {
	sess.update(func(p *RunProgress) {
		p.Phase = phase
		p.IsComplete = phase == PhaseComplete
		p.Error = errMsg
		p.EstimatedTimeRemaining = 0
	})
	sess.closeListeners()
	close(sess.Done)

	if phase != PhaseComplete {
		s.cleanup(sess.ID, s.cfg.ResultRetention)
	}
}

func (p *RunProgress) applyMetadata(m ProgressMetadata) {
	p.TotalRows = m.TotalRows
	p.ProcessedRows = m.ProcessedRows
	p.ErrorCount = m.ErrorCount
	p.ChangeCount = m.ChangeCount
	p.EstimatedTimeRemaining = m.EstimatedTimeRemaining
}

// update mutates progress under the session lock and notifies listeners.
func (sess *session) update(fn func(*RunProgress)) {
	sess.mu.Lock()
	fn(&sess.progress)
	snapshot := sess.progress
	sess.mu.Unlock()

	sess.notify(snapshot)
}

func (sess *session) notify(p RunProgress) {
	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()

	for _, ch := range sess.listeners {
		select {
		case ch <- p:
		default:
			// slow listener, drop this update
		}
	}
}

func (sess *session) closeListeners() {
	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()

	for _, ch := range sess.listeners {
		close(ch)
	}
	sess.listeners = nil
	sess.closed = true
}

func (sess *session) touch() {
	sess.mu.Lock()
	sess.lastAccess = time.Now()
	sess.mu.Unlock()
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch()
	return sess, nil
}

// cleanup forgets a session after delay.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	})
}

// SubscribeProgress returns a channel of progress updates for a session.
// The current progress is delivered first; the channel closes when the run
// ends, immediately if it already has.
func (s *Service) SubscribeProgress(id string) (<-chan RunProgress, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan RunProgress, listenerBuffer)

	sess.mu.Lock()
	current := sess.progress
	sess.mu.Unlock()

	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()

	ch <- current
	if sess.closed {
		close(ch)
		return ch, nil
	}
	sess.listeners = append(sess.listeners, ch)
	return ch, nil
}

// GetProgress returns the latest progress without blocking.
func (s *Service) GetProgress(id string) (RunProgress, error) {
	sess, err := s.get(id)
	if err != nil {
		return RunProgress{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.progress, nil
}

// Wait blocks until the session's run ends or ctx is done.
func (s *Service) Wait(ctx context.Context, id string) (RunProgress, error) {
	sess, err := s.get(id)
	if err != nil {
		return RunProgress{}, err
	}
	select {
	case <-sess.Done:
	case <-ctx.Done():
		return RunProgress{}, ctx.Err()
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.progress, nil
}

// Editor returns the session's edit controller once its run has completed.
func (s *Service) Editor(id string) (*Editor, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.editor == nil {
		if sess.progress.Phase == PhaseFailed || sess.progress.Phase == PhaseCancelled {
			return nil, fmt.Errorf("session %s %s: %s", id, sess.progress.Phase, sess.progress.Error)
		}
		return nil, ErrSessionNotReady
	}
	return sess.editor, nil
}

// SessionInfo summarizes a session for clients.
type SessionInfo struct {
	ID        string      `json:"id"`
	Headers   []string    `json:"headers"`
	Mapping   Mapping     `json:"mapping"`
	Progress  RunProgress `json:"progress"`
	RowCount  int         `json:"rowCount"`
	CanUndo   bool        `json:"canUndo"`
	CanRedo   bool        `json:"canRedo"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Info describes a session. Counts reflect edits made since the run.
func (s *Service) Info(id string) (SessionInfo, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sess.mu.Lock()
	info := SessionInfo{
		ID:        sess.ID,
		Headers:   sess.Headers,
		Mapping:   sess.Mapping,
		Progress:  sess.progress,
		RowCount:  sess.progress.TotalRows,
		CreatedAt: sess.CreatedAt,
	}
	editor := sess.editor
	sess.mu.Unlock()

	if editor != nil {
		st := editor.State()
		info.RowCount = len(st.Rows)
		info.Progress.ErrorCount = len(st.Errors)
		info.Progress.ChangeCount = len(st.Changes)
		info.CanUndo = editor.History().CanUndo()
		info.CanRedo = editor.History().CanRedo()
	}
	return info, nil
}

// CloseSession cancels any running validation and forgets the session.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Cancel()
	slog.Info("validation session closed", "session_id", id)
	return nil
}

// ActiveSessions returns the number of tracked sessions.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired forgets finished sessions idle for longer than the TTL and
// returns how many were removed. Running sessions are never swept.
func (s *Service) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		select {
		case <-sess.Done:
		default:
			continue
		}
		sess.mu.Lock()
		idle := now.Sub(sess.lastAccess)
		sess.mu.Unlock()
		if idle > s.cfg.SessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// WaitForRuns blocks until every in-flight run has finished or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
