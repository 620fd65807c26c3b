package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/matzehuels/menuboard/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// stepSpinner animates a single terminal line naming the pipeline step in
// progress. It receives the runner's pipeline events and passes each one on
// to next, so log hooks keep working while it is installed.
type stepSpinner struct {
	w    io.Writer
	next observability.PipelineHooks

	mu    sync.Mutex
	step  string
	width int

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

var _ observability.PipelineHooks = (*stepSpinner)(nil)

func newStepSpinner(ctx context.Context, w io.Writer, step string, next observability.PipelineHooks) *stepSpinner {
	if next == nil {
		next = observability.NoopPipelineHooks{}
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &stepSpinner{w: w, next: next, ctx: sctx, cancel: cancel, stopped: make(chan struct{})}
	s.setStep(step)
	return s
}

// Step returns the message currently shown.
func (s *stepSpinner) Step() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *stepSpinner) setStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	if n := utf8.RuneCountInString(step); n > s.width {
		s.width = n
	}
}

// Start draws frames until Stop is called or the context ends.
func (s *stepSpinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.step))
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line. It may be called more than once.
func (s *stepSpinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+4))
	})
}

func (s *stepSpinner) OnFetchStart(ctx context.Context, source, rng string) {
	s.setStep(fmt.Sprintf("reading %s range %s", source, rng))
	s.next.OnFetchStart(ctx, source, rng)
}

func (s *stepSpinner) OnFetchComplete(ctx context.Context, source, rng string, rows int, d time.Duration, err error) {
	if err == nil {
		s.setStep(fmt.Sprintf("read %s from %s", plural(rows, "row"), rng))
	}
	s.next.OnFetchComplete(ctx, source, rng, rows, d, err)
}

func (s *stepSpinner) OnReconcile(ctx context.Context, rows, visibleIDs int) {
	s.setStep(fmt.Sprintf("matched %s to %s", plural(rows, "row"), plural(visibleIDs, "visible id")))
	s.next.OnReconcile(ctx, rows, visibleIDs)
}

func (s *stepSpinner) OnRenderStart(ctx context.Context, format string) {
	s.setStep("rendering " + format)
	s.next.OnRenderStart(ctx, format)
}

func (s *stepSpinner) OnRenderComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	s.next.OnRenderComplete(ctx, format, size, d, err)
}

// withSteps runs fn while a spinner on stderr follows its pipeline events.
func withSteps(ctx context.Context, initial string, fn func(context.Context) error) error {
	return withStepsTo(ctx, os.Stderr, initial, fn)
}

func withStepsTo(ctx context.Context, w io.Writer, initial string, fn func(context.Context) error) error {
	prev := observability.Pipeline()
	s := newStepSpinner(ctx, w, initial, prev)
	observability.SetPipelineHooks(s)
	defer observability.SetPipelineHooks(prev)

	s.Start()
	defer s.Stop()
	return fn(ctx)
}
