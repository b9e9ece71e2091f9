// Package session holds the application-level scan state: the current screen,
// the result being displayed, and the scan pipeline that turns a decoded or
// manually entered URL into a recorded verdict. There is exactly one logical
// actor mutating this state; the mutex only guards against a second submission
// racing an in-flight assessment.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"qrshield/internal/capture"
	"qrshield/internal/models"
	"qrshield/internal/store"
)

// Screen identifies the active view. Any screen may navigate to any other via
// explicit actions; this is a state holder, not a strict transition table.
type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenScanning Screen = "scanning"
	ScreenResult   Screen = "result"
	ScreenHistory  Screen = "history"
)

var (
	// ErrBusy is returned when a submission arrives while an assessment is
	// already in flight. One assessment at a time per session.
	ErrBusy = errors.New("assessment already in progress")

	// ErrEmptyURL is returned for an empty submission.
	ErrEmptyURL = errors.New("url is empty")

	// ErrNotFound is returned when a history item id is unknown.
	ErrNotFound = errors.New("history item not found")
)

// Assessor is the error-free assessment contract: it always returns a
// well-formed assessment, degraded or genuine.
type Assessor interface {
	Assess(ctx context.Context, url string) models.Assessment
}

// Session drives the scan-to-verdict flow.
type Session struct {
	store    *store.Store
	assessor Assessor
	logger   *slog.Logger
	onAlert  func(models.ScanResult)
	now      func() time.Time
	newID    func() string

	mu         sync.Mutex
	screen     Screen
	current    *models.ScanResult
	busy       bool
	cancelScan context.CancelFunc
}

type Option func(*Session)

// WithAlertFunc registers the callback raised for blocking alerts (high-risk
// verdicts and previously blocked URLs).
func WithAlertFunc(fn func(models.ScanResult)) Option {
	return func(s *Session) { s.onAlert = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDFunc overrides result id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

func New(st *store.Store, assessor Assessor, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		store:    st,
		assessor: assessor,
		logger:   logger,
		onAlert:  func(models.ScanResult) {},
		now:      time.Now,
		newID:    uuid.NewString,
		screen:   ScreenHome,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen returns the active screen.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Current returns the result being displayed, if any.
func (s *Session) Current() (models.ScanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.ScanResult{}, false
	}
	return *s.current, true
}

// Submit runs the scan pipeline for a decoded payload or manual entry.
//
// A URL already on the block list short-circuits: the session synthesizes a
// score-100 high-risk result representing the cached verdict, raises the
// blocking alert, and neither calls the assessor nor touches the history.
// Otherwise the URL is assessed, recorded, and blocked on a high-risk verdict.
func (s *Session) Submit(ctx context.Context, url string) (models.ScanResult, error) {
	if url == "" {
		return models.ScanResult{}, ErrEmptyURL
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return models.ScanResult{}, ErrBusy
	}
	if s.store.IsBlocked(url) {
		result := s.blockedResult(url)
		s.current = &result
		s.screen = ScreenResult
		s.mu.Unlock()
		s.logger.Info("blocked url short-circuited", "url", url)
		s.onAlert(result)
		return result, nil
	}
	s.busy = true
	s.screen = ScreenScanning
	s.mu.Unlock()

	assessment := s.assessor.Assess(ctx, url)
	result := s.resultFrom(url, assessment)

	if err := s.store.Record(result); err != nil {
		s.logger.Warn("failed to persist history", "error", err)
	}
	highRisk := result.RiskLevel == models.RiskHighRisk
	if highRisk {
		if err := s.store.Block(result.URL); err != nil {
			s.logger.Warn("failed to persist block list", "error", err)
		}
	}

	s.mu.Lock()
	s.busy = false
	s.current = &result
	s.screen = ScreenResult
	s.mu.Unlock()

	if highRisk {
		s.onAlert(result)
	}
	return result, nil
}

// Scan runs the live-capture path: enter the scanning screen, poll the loop
// until a payload or cancellation, then feed the payload through Submit. The
// loop owns the capture resource and releases it on every exit path.
func (s *Session) Scan(ctx context.Context, loop *capture.Loop) (models.ScanResult, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return models.ScanResult{}, ErrBusy
	}
	scanCtx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.screen = ScreenScanning
	s.mu.Unlock()
	defer cancel()

	payload, err := loop.Run(scanCtx)

	s.mu.Lock()
	s.cancelScan = nil
	if err != nil {
		s.screen = ScreenHome
		s.mu.Unlock()
		return models.ScanResult{}, err
	}
	s.mu.Unlock()

	return s.Submit(ctx, payload)
}

// Cancel aborts an in-progress live capture and returns home. The in-flight
// decode is discarded without invoking the assessor.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancelScan
	s.screen = ScreenHome
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GoHome navigates to the home screen.
func (s *Session) GoHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = ScreenHome
}

// ShowHistory navigates to the history screen.
func (s *Session) ShowHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = ScreenHistory
}

// SelectHistoryItem displays an already-persisted result without re-running
// its assessment.
func (s *Session) SelectHistoryItem(id string) (models.ScanResult, error) {
	result, ok := s.store.Find(id)
	if !ok {
		return models.ScanResult{}, ErrNotFound
	}
	s.mu.Lock()
	s.current = &result
	s.screen = ScreenResult
	s.mu.Unlock()
	return result, nil
}

// History returns the persisted history, newest first.
func (s *Session) History() []models.ScanResult {
	return s.store.History()
}

// Blocked returns the blocked URLs.
func (s *Session) Blocked() []string {
	return s.store.Blocked()
}

// resultFrom builds the immutable record from an assessment, defaulting any
// missing field. The score-0/level-"suspicious" pair is an intentional literal
// fallback, not derived from the classifier.
func (s *Session) resultFrom(url string, a models.Assessment) models.ScanResult {
	level := a.RiskLevel
	if level == "" {
		level = models.RiskSuspicious
	}
	indicators := a.Indicators
	if indicators == nil {
		indicators = []string{}
	}
	return models.ScanResult{
		ID:             s.newID(),
		URL:            url,
		Timestamp:      s.now(),
		RiskScore:      a.RiskScore,
		RiskLevel:      level,
		Indicators:     indicators,
		Recommendation: a.Recommendation,
		Analysis:       a.Analysis,
	}
}

func (s *Session) blockedResult(url string) models.ScanResult {
	return models.ScanResult{
		ID:             s.newID(),
		URL:            url,
		Timestamp:      s.now(),
		RiskScore:      100,
		RiskLevel:      models.RiskHighRisk,
		Indicators:     []string{models.BlockedIndicator},
		Recommendation: models.BlockedRecommendation,
		Analysis:       models.BlockedAnalysis,
	}
}
