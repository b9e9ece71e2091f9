package session

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"qrshield/internal/capture"
	"qrshield/internal/models"
	"qrshield/internal/store"
)

type fakeAssessor struct {
	assessment models.Assessment
	calls      int32
	block      chan struct{} // when set, Assess waits until closed
}

func (f *fakeAssessor) Assess(ctx context.Context, url string) models.Assessment {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	return f.assessment
}

func (f *fakeAssessor) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

func newTestSession(t *testing.T, assessor Assessor, opts ...Option) (*Session, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(st, assessor, nil, opts...), st
}

func TestSubmitEmptyURL(t *testing.T) {
	s, _ := newTestSession(t, &fakeAssessor{})
	if _, err := s.Submit(context.Background(), ""); err != ErrEmptyURL {
		t.Fatalf("err = %v, want ErrEmptyURL", err)
	}
}

func TestSubmitRecordsResultAndShowsIt(t *testing.T) {
	assessor := &fakeAssessor{assessment: models.Assessment{
		RiskScore:      10,
		RiskLevel:      models.RiskSafe,
		Indicators:     []string{},
		Recommendation: "Looks fine",
		Analysis:       "Nothing suspicious.",
	}}
	s, st := newTestSession(t, assessor)

	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if s.Screen() != ScreenResult {
		t.Errorf("screen = %q, want result", s.Screen())
	}
	if cur, ok := s.Current(); !ok || cur.ID != result.ID {
		t.Error("current result not set")
	}
	h := st.History()
	if len(h) != 1 || h[0].ID != result.ID {
		t.Errorf("history = %v, want single entry %s", h, result.ID)
	}
	if result.ID == "" || result.Timestamp.IsZero() {
		t.Error("result id/timestamp not generated")
	}
}

func TestSubmitHighRiskBlocksAndAlerts(t *testing.T) {
	assessor := &fakeAssessor{assessment: models.Assessment{
		RiskScore:      85,
		RiskLevel:      models.RiskHighRisk,
		Indicators:     []string{"lookalike domain"},
		Recommendation: "Do not visit",
		Analysis:       "...",
	}}
	var alerts []models.ScanResult
	s, st := newTestSession(t, assessor, WithAlertFunc(func(r models.ScanResult) {
		alerts = append(alerts, r)
	}))

	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if result.RiskLevel != models.RiskHighRisk {
		t.Errorf("riskLevel = %q, want high-risk", result.RiskLevel)
	}
	if !st.IsBlocked("http://example.com") {
		t.Error("high-risk URL not blocked")
	}
	if h := st.History(); len(h) != 1 || h[0].ID != result.ID {
		t.Error("history[0] is not the new result")
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
}

func TestSubmitBlockedURLShortCircuits(t *testing.T) {
	assessor := &fakeAssessor{assessment: models.Assessment{
		RiskScore: 85, RiskLevel: models.RiskHighRisk, Indicators: []string{"x"},
	}}
	var alerts int
	s, st := newTestSession(t, assessor, WithAlertFunc(func(models.ScanResult) { alerts++ }))

	// first submission assesses and blocks
	if _, err := s.Submit(context.Background(), "http://example.com"); err != nil {
		t.Fatal(err)
	}
	if assessor.callCount() != 1 {
		t.Fatalf("assess calls = %d, want 1", assessor.callCount())
	}
	historyBefore := len(st.History())

	// second submission takes the blocked branch
	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if assessor.callCount() != 1 {
		t.Errorf("assess calls = %d after blocked submit, want still 1", assessor.callCount())
	}
	if result.RiskScore != 100 || result.RiskLevel != models.RiskHighRisk {
		t.Errorf("blocked result = score %d level %q, want 100/high-risk", result.RiskScore, result.RiskLevel)
	}
	if len(result.Indicators) != 1 || result.Indicators[0] != models.BlockedIndicator {
		t.Errorf("indicators = %v, want fixed blocked indicator", result.Indicators)
	}
	if len(st.History()) != historyBefore {
		t.Error("blocked branch must not append to history")
	}
	if alerts != 2 {
		t.Errorf("alerts = %d, want 2 (high-risk + blocked)", alerts)
	}
	if s.Screen() != ScreenResult {
		t.Errorf("screen = %q, want result", s.Screen())
	}
}

func TestSubmitDefaultsMissingFields(t *testing.T) {
	// zero-value assessment stands in for a response missing every field
	s, _ := newTestSession(t, &fakeAssessor{assessment: models.Assessment{}})

	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	// literal fallback pair, intentionally inconsistent with the classifier
	if result.RiskScore != 0 {
		t.Errorf("riskScore = %d, want 0", result.RiskScore)
	}
	if result.RiskLevel != models.RiskSuspicious {
		t.Errorf("riskLevel = %q, want suspicious", result.RiskLevel)
	}
	if result.Indicators == nil || len(result.Indicators) != 0 {
		t.Errorf("indicators = %#v, want empty non-nil slice", result.Indicators)
	}
	if result.Recommendation != "" || result.Analysis != "" {
		t.Error("missing text fields must default to empty strings")
	}
}

func TestSubmitDegradedAssessmentIsRecordedVerbatim(t *testing.T) {
	s, _ := newTestSession(t, &fakeAssessor{assessment: models.DegradedAssessment()})

	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	want := models.DegradedAssessment()
	if result.RiskScore != want.RiskScore || result.RiskLevel != want.RiskLevel ||
		result.Recommendation != want.Recommendation || result.Analysis != want.Analysis ||
		len(result.Indicators) != 1 || result.Indicators[0] != want.Indicators[0] {
		t.Errorf("degraded result = %+v, want field-for-field %+v", result, want)
	}
}

func TestSubmitRejectsConcurrentAssessment(t *testing.T) {
	assessor := &fakeAssessor{block: make(chan struct{})}
	s, _ := newTestSession(t, assessor)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Submit(context.Background(), "http://first.example")
	}()

	// wait for the first submission to reach the assessor
	for i := 0; assessor.callCount() == 0 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}
	if _, err := s.Submit(context.Background(), "http://second.example"); err != ErrBusy {
		t.Errorf("concurrent submit err = %v, want ErrBusy", err)
	}

	close(assessor.block)
	<-done
}

func TestNavigation(t *testing.T) {
	assessor := &fakeAssessor{assessment: models.Assessment{RiskScore: 5, RiskLevel: models.RiskSafe, Indicators: []string{}}}
	s, _ := newTestSession(t, assessor)

	if s.Screen() != ScreenHome {
		t.Fatalf("initial screen = %q, want home", s.Screen())
	}
	result, err := s.Submit(context.Background(), "http://example.com")
	if err != nil {
		t.Fatal(err)
	}

	s.ShowHistory()
	if s.Screen() != ScreenHistory {
		t.Errorf("screen = %q, want history", s.Screen())
	}

	selected, err := s.SelectHistoryItem(result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if selected.ID != result.ID || s.Screen() != ScreenResult {
		t.Error("selecting a history item must display it")
	}
	if assessor.callCount() != 1 {
		t.Errorf("assess calls = %d, selecting history must not re-assess", assessor.callCount())
	}

	if _, err := s.SelectHistoryItem("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	s.GoHome()
	if s.Screen() != ScreenHome {
		t.Errorf("screen = %q, want home", s.Screen())
	}
}

type staticSource struct {
	closed atomic.Bool
}

func (s *staticSource) Frame(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (s *staticSource) Close() error {
	s.closed.Store(true)
	return nil
}

type payloadDecoder struct{ payload string }

func (d payloadDecoder) AttemptDecode(img image.Image) (string, bool) {
	if d.payload == "" {
		return "", false
	}
	return d.payload, true
}

func TestScanFeedsDecodedPayloadThroughPipeline(t *testing.T) {
	assessor := &fakeAssessor{assessment: models.Assessment{RiskScore: 5, RiskLevel: models.RiskSafe, Indicators: []string{}}}
	s, st := newTestSession(t, assessor)

	src := &staticSource{}
	loop := &capture.Loop{Source: src, Decoder: payloadDecoder{payload: "http://example.com"}, Interval: time.Millisecond}

	result, err := s.Scan(context.Background(), loop)
	if err != nil {
		t.Fatal(err)
	}
	if result.URL != "http://example.com" {
		t.Errorf("result.URL = %q", result.URL)
	}
	if !src.closed.Load() {
		t.Error("capture source not released")
	}
	if len(st.History()) != 1 {
		t.Error("scan result not recorded")
	}
}

func TestCancelDiscardsScanWithoutAssessing(t *testing.T) {
	assessor := &fakeAssessor{}
	s, _ := newTestSession(t, assessor)

	src := &staticSource{}
	loop := &capture.Loop{Source: src, Decoder: payloadDecoder{}, Interval: time.Millisecond}

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Scan(context.Background(), loop)
		errCh <- err
	}()

	// wait until the scanning screen is active, then cancel
	for i := 0; s.Screen() != ScreenScanning && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}
	s.Cancel()

	if err := <-errCh; err == nil {
		t.Fatal("expected cancellation error")
	}
	if assessor.callCount() != 0 {
		t.Errorf("assess calls = %d, cancel must not assess", assessor.callCount())
	}
	if !src.closed.Load() {
		t.Error("capture source not released on cancel")
	}
	if s.Screen() != ScreenHome {
		t.Errorf("screen = %q, want home after cancel", s.Screen())
	}
}
