package progress

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/covault-org/covault-cli/internal/usecase"
)

// SpinnerSink shows lifecycle progress as an animated spinner with the
// current step as its suffix.
type SpinnerSink struct {
	spinner *spinner.Spinner
}

// NewSpinnerSink creates a spinner-based progress sink.
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.HideCursor = false
	return &SpinnerSink{spinner: s}
}

// Step starts or retargets the spinner at a new step.
func (r *SpinnerSink) Step(message string) {
	if !r.spinner.Active() {
		r.spinner.Start()
	}
	r.spinner.Suffix = " " + message
}

// Info prints a message without disturbing an active spinner.
func (r *SpinnerSink) Info(message string) {
	r.interject(func() {
		color.New(color.FgCyan).Println(message)
	})
}

// Error prints an error line without disturbing an active spinner.
func (r *SpinnerSink) Error(message string) {
	r.interject(func() {
		color.New(color.FgRed).Println(message)
	})
}

// Stop halts the spinner, printing nothing further.
func (r *SpinnerSink) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerSink) interject(print func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	print()
	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
