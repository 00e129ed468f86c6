package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
)

const spinnerInterval = 80 * time.Millisecond

var (
	spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Spinner animates a single status line until it is stopped.
type Spinner struct {
	w     io.Writer
	msg   string
	start time.Time

	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// StartSpinner draws msg behind an animated frame on w.
func StartSpinner(w io.Writer, msg string) *Spinner {
	s := &Spinner{
		w:       w,
		msg:     msg,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Spinner) loop() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		fmt.Fprintf(s.w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), s.msg)
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// halt stops the animation and reports whether this call did it.
func (s *Spinner) halt() bool {
	first := false
	s.once.Do(func() {
		first = true
		close(s.done)
	})
	<-s.stopped
	return first
}

// Clear stops the spinner and erases its line. Safe to call more than once.
func (s *Spinner) Clear() {
	if s.halt() {
		fmt.Fprint(s.w, "\r\x1b[2K")
	}
}

// Stop replaces the spinner with a mark for err and the elapsed time.
func (s *Spinner) Stop(err error) time.Duration {
	elapsed := time.Since(s.start)
	if s.halt() {
		fmt.Fprintf(s.w, "\r  %s %s %s\n",
			Mark(err),
			s.msg,
			StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
		)
	}
	return elapsed
}

// Step shows a spinner while fn runs and returns fn's error.
func Step(w io.Writer, msg string, fn func() error) error {
	s := StartSpinner(w, msg)
	err := fn()
	s.Stop(err)
	return err
}
