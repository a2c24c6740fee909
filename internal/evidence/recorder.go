package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/expense-e2e/internal/logging"
)

// ErrCapture wraps failures of the capture sink.
var ErrCapture = errors.New("evidence capture failed")

// ScreenshotOptions is what the recorder asks of a capture sink.
type ScreenshotOptions struct {
	Path               string
	FullPage           bool
	AnimationsDisabled bool
}

// CaptureSink performs the actual pixel capture, typically a browser page.
type CaptureSink interface {
	Screenshot(ctx context.Context, opts ScreenshotOptions) error
}

// CaptureFunc adapts a function to CaptureSink.
type CaptureFunc func(ctx context.Context, opts ScreenshotOptions) error

// Screenshot calls f.
func (f CaptureFunc) Screenshot(ctx context.Context, opts ScreenshotOptions) error {
	return f(ctx, opts)
}

// Recorder captures named screenshots for one test of one feature.
// It holds no mutable state; concurrent use is safe if the sink allows it.
type Recorder struct {
	sink     CaptureSink
	feature  string
	testName string
	layout   Layout
	now      func() time.Time
	logger   *log.Logger
	steps    StepReporter
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithLayout sets the output root.
func WithLayout(l Layout) Option {
	return func(r *Recorder) { r.layout = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the logger used for capture lines.
func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithStepReporter sets the step boundary used by CaptureStep.
func WithStepReporter(s StepReporter) Option {
	return func(r *Recorder) { r.steps = s }
}

// NewRecorder binds a recorder to a sink, test and feature.
func NewRecorder(sink CaptureSink, testName, feature string, opts ...Option) *Recorder {
	r := &Recorder{
		sink:     sink,
		feature:  feature,
		testName: testName,
		layout:   NewLayout(""),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	if r.steps == nil {
		r.steps = NewLogReporter(r.logger)
	}
	return r
}

// Feature returns the feature label.
func (r *Recorder) Feature() string { return r.feature }

// TestName returns the unsanitized test name.
func (r *Recorder) TestName() string { return r.testName }

// Layout returns the output layout.
func (r *Recorder) Layout() Layout { return r.layout }

// Artifact derives the artifact for stepLabel at the current instant
// without capturing anything.
func (r *Recorder) Artifact(stepLabel string) Artifact {
	a := Artifact{
		Feature:   r.feature,
		TestName:  Sanitize(r.testName),
		StepName:  Sanitize(stepLabel),
		Status:    StatusSuccess,
		Timestamp: Timestamp(r.now()),
	}
	a.Path = r.layout.ScreenshotPath(a.Filename())
	return a
}

// CaptureSuccess writes a full-page, animation-free screenshot named after
// stepLabel. Sink failures are wrapped with ErrCapture and the filename;
// errors.Is and errors.As still reach the sink's error. Nothing is retried.
func (r *Recorder) CaptureSuccess(ctx context.Context, stepLabel string) (Artifact, error) {
	a := r.Artifact(stepLabel)
	err := r.sink.Screenshot(ctx, ScreenshotOptions{
		Path:               a.Path,
		FullPage:           true,
		AnimationsDisabled: true,
	})
	if err != nil {
		return a, fmt.Errorf("%w: %s: %w", ErrCapture, a.Filename(), err)
	}
	r.logger.Info("evidence captured", "file", a.Filename())
	return a, nil
}

// CaptureStep runs CaptureSuccess inside a reportable step. A non-empty
// description is logged as a secondary line and has no other effect.
func (r *Recorder) CaptureStep(ctx context.Context, stepLabel, description string) error {
	step := StepInfo{
		Name:     "Capture evidence: " + stepLabel,
		Feature:  r.feature,
		TestName: r.testName,
	}
	return r.steps.Step(ctx, step, func(ctx context.Context) error {
		if _, err := r.CaptureSuccess(ctx, stepLabel); err != nil {
			return err
		}
		if description != "" {
			r.logger.Info("step description", "description", description)
		}
		return nil
	})
}
