package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/capture"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
	"github.com/saturnino-fabrica-de-software/vivo/internal/session"
	"github.com/saturnino-fabrica-de-software/vivo/internal/webhook"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ws"
)

const (
	defaultSessionTTL      = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.Template, error)
	Replace(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, externalID string) error
}

type VerificationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.Verification) error
	ListByExternalID(ctx context.Context, externalID string, limit int) ([]*domain.Verification, error)
}

// IdempotencyStore is satisfied by *cache.Idempotency
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string, dst any) (bool, error)
	Reserve(ctx context.Context, key string, v any) (bool, error)
	Remember(ctx context.Context, key string, v any) error
	Forget(ctx context.Context, key string) error
}

// AttemptLimiter is satisfied by *ratelimit.Limiter
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int) error
}

// OutcomeNotifier is satisfied by *webhook.Service
type OutcomeNotifier interface {
	Notify(ctx context.Context, eventType string, sessionID uuid.UUID, data any) error
}

// EventPublisher is satisfied by *ws.Hub
type EventPublisher interface {
	Publish(sessionID uuid.UUID, eventType ws.EventType, data any)
}

// ConfigFunc yields the configuration for a new session. It is called once per
// session, so a randomized challenge order is fixed at creation.
type ConfigFunc func() (session.Config, error)

type CreateSessionInput struct {
	Mode           string
	ExternalID     string
	IdempotencyKey string
	// Replace allows an enroll session to overwrite an existing template
	Replace bool
}

// idempotentSession is what the idempotency store keeps per key
type idempotentSession struct {
	SessionID  uuid.UUID        `json:"session_id"`
	Mode       session.Mode     `json:"mode"`
	ExternalID string           `json:"external_id"`
	Outcome    *session.Outcome `json:"outcome,omitempty"`
}

// entry is one live session. mu serializes every request touching it.
type entry struct {
	mu        sync.Mutex
	s         *session.Session
	replace   bool
	lastSeen  time.Time
	persisted bool
}

type SessionService struct {
	templates     TemplateRepositoryInterface
	verifications VerificationRepositoryInterface
	detector      provider.FaceDetector
	embedder      provider.Embedder
	newConfig     ConfigFunc
	policy        embedding.MatchPolicy

	idem        IdempotencyStore
	limiter     AttemptLimiter
	createLimit int
	events      EventPublisher
	notifier    OutcomeNotifier
	auditLogger audit.Logger
	logger      *slog.Logger
	ttl         time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type ServiceOption func(*SessionService)

func WithIdempotency(store IdempotencyStore) ServiceOption {
	return func(s *SessionService) {
		s.idem = store
	}
}

// WithCreateLimit caps new sessions per external_id within the limiter's window
func WithCreateLimit(limiter AttemptLimiter, limit int) ServiceOption {
	return func(s *SessionService) {
		s.limiter = limiter
		s.createLimit = limit
	}
}

func WithEvents(events EventPublisher) ServiceOption {
	return func(s *SessionService) {
		s.events = events
	}
}

func WithNotifier(n OutcomeNotifier) ServiceOption {
	return func(s *SessionService) {
		s.notifier = n
	}
}

func WithAuditLogger(logger audit.Logger) ServiceOption {
	return func(s *SessionService) {
		s.auditLogger = logger
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// WithSessionTTL sets how long a session may sit idle before the sweep reclaims it
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *SessionService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func withClock(now func() time.Time) ServiceOption {
	return func(s *SessionService) {
		s.now = now
	}
}

func NewSessionService(
	templates TemplateRepositoryInterface,
	verifications VerificationRepositoryInterface,
	detector provider.FaceDetector,
	embedder provider.Embedder,
	newConfig ConfigFunc,
	policy embedding.MatchPolicy,
	opts ...ServiceOption,
) *SessionService {
	s := &SessionService{
		templates:     templates,
		verifications: verifications,
		detector:      detector,
		embedder:      embedder,
		newConfig:     newConfig,
		policy:        policy,
		auditLogger:   &audit.NoOpLogger{},
		logger:        slog.Default(),
		ttl:           defaultSessionTTL,
		now:           time.Now,
		sessions:      make(map[uuid.UUID]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session_service")
	return s
}

// Create opens a session. Verify sessions load the stored template up front;
// enroll sessions refuse to shadow an existing template unless Replace is set.
// A repeated idempotency key returns the session it was first used for.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (*session.State, error) {
	mode, err := session.ParseMode(in.Mode)
	if err != nil {
		return nil, err
	}
	if in.ExternalID == "" {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("external_id is required"))
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if state, ok, err := s.replay(ctx, in.IdempotencyKey); err != nil || ok {
			return state, err
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, "session:"+in.ExternalID, s.createLimit); err != nil {
			return nil, err
		}
	}

	opts := []session.Option{
		session.WithExternalID(in.ExternalID),
		session.WithIdempotencyKey(in.IdempotencyKey),
	}

	switch mode {
	case session.ModeVerify:
		tpl, err := s.templates.GetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithTemplate(tpl))
	case session.ModeEnroll:
		if !in.Replace {
			_, err := s.templates.GetByExternalID(ctx, in.ExternalID)
			if err == nil {
				return nil, domain.ErrTemplateExists
			}
			if !errors.Is(err, domain.ErrTemplateNotFound) {
				return nil, err
			}
		}
	}

	cfg, err := s.newConfig()
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("session config: %w", err))
	}

	sess, err := session.New(cfg, mode, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = &entry{s: sess, replace: in.Replace, lastSeen: s.now()}
	s.mu.Unlock()

	if in.IdempotencyKey != "" && s.idem != nil {
		rec := idempotentSession{SessionID: sess.ID(), Mode: mode, ExternalID: in.ExternalID}
		reserved, err := s.idem.Reserve(ctx, in.IdempotencyKey, rec)
		if err != nil || !reserved {
			s.mu.Lock()
			delete(s.sessions, sess.ID())
			s.mu.Unlock()
		}
		if err != nil {
			return nil, err
		}
		if !reserved {
			// a concurrent request with the same key won
			state, _, err := s.replay(ctx, in.IdempotencyKey)
			if err == nil && state == nil {
				err = domain.ErrIdempotencyConflict
			}
			return state, err
		}
	}

	state := sess.State()
	s.logger.Info("session created",
		slog.String("session_id", state.ID.String()),
		slog.String("mode", string(mode)),
		slog.Any("challenges", state.Liveness.Sequence),
	)
	s.audit(ctx, audit.Event{
		SessionID:  state.ID,
		EventType:  audit.EventSessionCreated,
		ExternalID: in.ExternalID,
		Success:    true,
		Metadata:   map[string]string{"mode": string(mode)},
	})

	return &state, nil
}

// replay resolves an idempotency key seen before. ok is false when the key is
// unknown or points at a session that vanished without an outcome.
func (s *SessionService) replay(ctx context.Context, key string) (*session.State, bool, error) {
	var rec idempotentSession
	found, err := s.idem.Lookup(ctx, key, &rec)
	if err != nil || !found {
		return nil, false, err
	}

	if e := s.lookup(rec.SessionID); e != nil {
		e.mu.Lock()
		state := e.s.State()
		e.mu.Unlock()
		return &state, true, nil
	}

	if rec.Outcome == nil {
		if err := s.idem.Forget(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	state := session.State{
		ID:         rec.SessionID,
		Mode:       rec.Mode,
		Phase:      phaseFor(rec.Outcome.Kind),
		ExternalID: rec.ExternalID,
		Outcome:    rec.Outcome,
	}
	return &state, true, nil
}

func phaseFor(kind domain.OutcomeKind) session.Phase {
	switch kind {
	case domain.OutcomeStopped:
		return session.PhaseStopped
	case domain.OutcomeLivenessFailed, domain.OutcomeUpstreamFailed:
		return session.PhaseFailed
	}
	return session.PhaseComplete
}

func (s *SessionService) lookup(id uuid.UUID) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// acquire returns the locked entry for id. Callers must unlock it.
func (s *SessionService) acquire(id uuid.UUID) (*entry, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	if s.now().Sub(e.lastSeen) > s.ttl && !e.s.Finished() {
		e.mu.Unlock()
		return nil, domain.ErrSessionExpired
	}
	e.lastSeen = s.now()
	return e, nil
}

// Exists reports whether id names a live session
func (s *SessionService) Exists(id uuid.UUID) bool {
	return s.lookup(id) != nil
}

func (s *SessionService) Get(_ context.Context, id uuid.UUID) (*session.State, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.s.State()
	return &state, nil
}

// PushFrame feeds one detector frame and publishes what it changed
func (s *SessionService) PushFrame(ctx context.Context, id uuid.UUID, frame session.Frame) (*session.StepResult, error) {
	e, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	// with frame dimensions a bad box is a contract violation; without them the gate treats it as absence
	if frame.Box != nil && frame.FrameWidth > 0 && frame.FrameHeight > 0 {
		box, err := capture.ValidateBox(*frame.Box, frame.FrameWidth, frame.FrameHeight)
		if err != nil {
			return nil, err
		}
		frame.Box = &box
	}

	res, err := e.s.Step(frame)
	if err != nil {
		return nil, err
	}

	if res.Completed != "" {
		s.publish(id, ws.EventChallengePassed, map[string]any{
			"challenge": res.Completed,
			"index":     res.Liveness.Index,
		})
		s.audit(ctx, audit.Event{
			SessionID:  id,
			EventType:  audit.EventChallengePassed,
			ExternalID: e.s.ExternalID(),
			Success:    true,
			Metadata:   map[string]string{"challenge": string(res.Completed)},
		})
	}
	if res.Advanced && res.Liveness.Status == liveness.StatusPassed {
		s.publish(id, ws.EventLivenessPassed, res.Liveness)
		s.audit(ctx, audit.Event{
			SessionID:  id,
			EventType:  audit.EventLivenessPassed,
			ExternalID: e.s.ExternalID(),
			Success:    true,
		})
	}
	if res.Capture != nil {
		s.publish(id, ws.EventCaptureReady, res.Capture)
	}
	s.publish(id, ws.EventStep, res)

	return &res, nil
}

// SubmitSample runs the captured still through detection and embedding and
// hands the result to the session. A photo without a face is rejected and
// the capture stays pending; provider failures end the session.
func (s *SessionService) SubmitSample(ctx context.Context, id uuid.UUID, image []byte) (*session.SampleResult, error) {
	e, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	// a completed session whose outcome failed to persist gets another try
	if e.s.Completed() && !e.persisted {
		if err := s.finish(ctx, e); err != nil {
			return nil, err
		}
		res := session.SampleResult{Outcome: e.s.Outcome()}
		return &res, nil
	}

	state := e.s.State()
	switch {
	case state.Phase == session.PhaseStopped:
		return nil, domain.ErrSessionStopped
	case e.s.Finished():
		return nil, domain.ErrSessionFinished
	case !state.AwaitingSample:
		return nil, domain.ErrSampleNotExpected
	}

	if len(image) == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}

	emb, err := s.embed(ctx, image)
	if err != nil {
		if isClientFault(err) {
			return nil, err
		}
		upstream := domain.ErrUpstreamFailure.WithError(err)
		s.failLocked(ctx, e, upstream)
		return nil, upstream
	}

	res, err := e.s.AddSample(emb)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Event{
		SessionID:  id,
		EventType:  audit.EventSampleCaptured,
		ExternalID: e.s.ExternalID(),
		Provider:   s.embedder.Model(),
		Success:    true,
		Metadata: map[string]string{
			"collected": strconv.Itoa(res.Collected),
			"required":  strconv.Itoa(res.Required),
		},
	})
	s.publish(id, ws.EventSampleCollected, res)

	if res.Outcome != nil {
		if err := s.finish(ctx, e); err != nil {
			return nil, err
		}
	}

	return &res, nil
}

// embed applies the single-subject policy: the first detection is the subject
func (s *SessionService) embed(ctx context.Context, image []byte) ([]float64, error) {
	faces, err := s.detector.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if _, ok := provider.FirstFace(faces); !ok {
		return nil, domain.ErrNoFaceDetected
	}

	emb, err := s.embedder.Embed(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("embed face: %w", err)
	}
	return emb, nil
}

func isClientFault(err error) bool {
	return errors.Is(err, domain.ErrNoFaceDetected) ||
		errors.Is(err, domain.ErrInvalidImage) ||
		errors.Is(err, domain.ErrInputContract)
}

// finish persists a completed outcome: the template for enrollment, the
// verification record for every mode, and the idempotent result.
func (s *SessionService) finish(ctx context.Context, e *entry) error {
	out := e.s.Outcome()
	id := e.s.ID()

	if out.Kind == domain.OutcomeEnrolled {
		out.Template.Model = s.embedder.Model()
		save := s.templates.Create
		if e.replace {
			save = s.templates.Replace
		}
		if err := save(ctx, out.Template); err != nil {
			s.logger.Error("persist template failed",
				slog.String("session_id", id.String()),
				slog.Any("error", err),
			)
			return err
		}
		s.audit(ctx, audit.Event{
			SessionID:  id,
			EventType:  audit.EventTemplateEnrolled,
			ExternalID: e.s.ExternalID(),
			Provider:   out.Template.Model,
			Success:    true,
			Metadata:   map[string]string{"sample_count": strconv.Itoa(out.Template.SampleCount)},
		})
	}

	if out.Kind == domain.OutcomeMatched || out.Kind == domain.OutcomeNoMatch {
		s.audit(ctx, audit.Event{
			SessionID:  id,
			EventType:  audit.EventFaceVerified,
			ExternalID: e.s.ExternalID(),
			Success:    out.Kind == domain.OutcomeMatched,
			Metadata:   map[string]string{"distance": strconv.FormatFloat(out.Match.Distance, 'f', 4, 64)},
		})
	}

	s.record(ctx, e)
	e.persisted = true

	s.logger.Info("session completed",
		slog.String("session_id", id.String()),
		slog.String("outcome", string(out.Kind)),
	)
	s.publish(id, ws.EventSessionCompleted, out)
	return nil
}

// record writes the verification row and the idempotent result. Both are
// best effort: the outcome is already decided.
func (s *SessionService) record(ctx context.Context, e *entry) {
	state := e.s.State()
	out := state.Outcome

	v := &domain.Verification{
		SessionID:      state.ID,
		ExternalID:     state.ExternalID,
		Outcome:        out.Kind,
		LivenessPassed: state.Liveness.Status == liveness.StatusPassed,
		Challenges:     challengeNames(state.Liveness.Sequence),
		LatencyMs:      s.now().Sub(state.CreatedAt).Milliseconds(),
	}
	if out.Template != nil && out.Template.ID != uuid.Nil {
		v.TemplateID = &out.Template.ID
	}
	if out.Match != nil {
		d := out.Match.Distance
		v.Distance = &d
		v.Matched = out.Match.Match
	}

	if err := s.verifications.Create(ctx, v); err != nil {
		s.logger.Error("persist verification failed",
			slog.String("session_id", state.ID.String()),
			slog.Any("error", err),
		)
	}

	if s.notifier != nil {
		eventType := webhook.EventSessionCompleted
		if out.Kind.IsFailure() {
			eventType = webhook.EventSessionFailed
		}
		if err := s.notifier.Notify(ctx, eventType, state.ID, v); err != nil {
			s.logger.Warn("queue outcome webhook failed",
				slog.String("session_id", state.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	if key := e.s.IdempotencyKey(); key != "" && s.idem != nil {
		rec := idempotentSession{SessionID: state.ID, Mode: state.Mode, ExternalID: state.ExternalID, Outcome: out}
		if err := s.idem.Remember(ctx, key, rec); err != nil {
			s.logger.Warn("store idempotent result failed",
				slog.String("session_id", state.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}

func challengeNames(seq []liveness.Challenge) []string {
	out := make([]string, len(seq))
	for i, c := range seq {
		out[i] = string(c)
	}
	return out
}

func (s *SessionService) failLocked(ctx context.Context, e *entry, err error) {
	if !e.s.Fail(err) {
		return
	}
	id := e.s.ID()
	out := e.s.Outcome()

	s.logger.Warn("session failed",
		slog.String("session_id", id.String()),
		slog.String("outcome", string(out.Kind)),
		slog.Any("error", err),
	)
	s.audit(ctx, audit.Event{
		SessionID:  id,
		EventType:  audit.EventSessionFailed,
		ExternalID: e.s.ExternalID(),
		Success:    false,
		Error:      err.Error(),
		Metadata:   map[string]string{"outcome": string(out.Kind)},
	})
	s.record(ctx, e)
	e.persisted = true
	s.publish(id, ws.EventSessionFailed, out)
}

// Stop aborts a session. Stopping a stopped session is a no-op.
func (s *SessionService) Stop(ctx context.Context, id uuid.UUID) (*session.State, error) {
	e, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if e.s.Finished() {
		return nil, domain.ErrSessionFinished
	}

	if e.s.Stop() {
		s.audit(ctx, audit.Event{
			SessionID:  id,
			EventType:  audit.EventSessionStopped,
			ExternalID: e.s.ExternalID(),
			Success:    true,
		})
		s.publish(id, ws.EventSessionStopped, nil)
	}

	state := e.s.State()
	return &state, nil
}

// ReportFailure ends a session because the caller's detector or model failed.
// It is recorded as an upstream failure, never as a liveness failure.
func (s *SessionService) ReportFailure(ctx context.Context, id uuid.UUID, reason string) (*session.State, error) {
	e, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if e.s.Finished() {
		return nil, domain.ErrSessionFinished
	}
	if reason == "" {
		reason = "unspecified"
	}
	s.failLocked(ctx, e, domain.ErrUpstreamFailure.WithError(fmt.Errorf("client reported: %s", reason)))

	state := e.s.State()
	return &state, nil
}

// Reset discards captured samples and the stability counter
func (s *SessionService) Reset(ctx context.Context, id uuid.UUID) (*session.State, error) {
	e, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if err := e.s.Reset(); err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Event{
		SessionID:  id,
		EventType:  audit.EventSessionReset,
		ExternalID: e.s.ExternalID(),
		Success:    true,
	})
	state := e.s.State()
	s.publish(id, ws.EventSessionReset, state)
	return &state, nil
}

// Compare scores two embeddings under the deployment's match policy
func (s *SessionService) Compare(live, stored []float64) (embedding.MatchResult, error) {
	return embedding.Verify(live, stored, s.policy)
}

func (s *SessionService) DeleteTemplate(ctx context.Context, externalID string) error {
	if err := s.templates.Delete(ctx, externalID); err != nil {
		return err
	}
	s.audit(ctx, audit.Event{
		EventType:  audit.EventTemplateDeleted,
		ExternalID: externalID,
		Success:    true,
	})
	return nil
}

func (s *SessionService) ListVerifications(ctx context.Context, externalID string, limit int) ([]*domain.Verification, error) {
	return s.verifications.ListByExternalID(ctx, externalID, limit)
}

// CleanupExpired evicts finished sessions and sessions idle past the TTL.
// An idle session still in liveness is recorded as a liveness failure, any
// other unrecorded session as stopped.
func (s *SessionService) CleanupExpired(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	candidates := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		candidates = append(candidates, e)
	}
	s.mu.Unlock()

	removed := 0
	for _, e := range candidates {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen) > s.ttl
		if !idle {
			e.mu.Unlock()
			continue
		}

		id := e.s.ID()
		switch {
		case e.s.Completed() && !e.persisted:
			// last chance for an outcome whose first write failed
			if err := s.finish(ctx, e); err != nil {
				s.logger.Error("expired session outcome lost",
					slog.String("session_id", id.String()),
					slog.String("outcome", string(e.s.Outcome().Kind)),
					slog.Any("error", err),
				)
			}
		case e.s.Finished():
		case e.s.Phase() == session.PhaseLiveness:
			s.failLocked(ctx, e, domain.ErrLivenessFailed.WithError(fmt.Errorf("no challenge progress within %s", s.ttl)))
		default:
			// capture in progress, or stopped by the caller and never resumed
			e.s.Stop()
			if !e.persisted {
				s.record(ctx, e)
				e.persisted = true
			}
		}
		e.mu.Unlock()

		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		removed++
	}

	if removed > 0 {
		s.logger.Info("expired sessions removed", slog.Int("count", removed))
	}
	return removed
}

// StartCleanup runs CleanupExpired on a ticker until ctx is done
func (s *SessionService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired(ctx)
		}
	}
}

func (s *SessionService) publish(id uuid.UUID, t ws.EventType, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(id, t, data)
}

// audit is fire-and-forget; audit failures never fail a request
func (s *SessionService) audit(ctx context.Context, event audit.Event) {
	_ = s.auditLogger.Log(ctx, event)
}
