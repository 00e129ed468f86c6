package cliui

import (
	"io"
	"strings"
	"sync"
)

// LivePrinter writes a growing text to a terminal as it arrives. Each Update
// carries the full text so far; only the part not yet printed is written.
// It is safe for concurrent use.
type LivePrinter struct {
	mu      sync.Mutex
	w       io.Writer
	printed string
}

func NewLivePrinter(w io.Writer) *LivePrinter {
	return &LivePrinter{w: w}
}

// Update prints the new tail of text. If text does not extend what was
// already printed, it starts over on a fresh line.
func (p *LivePrinter) Update(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delta, ok := strings.CutPrefix(text, p.printed)
	if !ok {
		if _, err := io.WriteString(p.w, "\n"); err != nil {
			return err
		}
		delta = text
	}

	if _, err := io.WriteString(p.w, delta); err != nil {
		return err
	}
	p.printed = text
	return nil
}

// Finish ends the current line if anything was printed and resets the
// printer for the next text.
func (p *LivePrinter) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		_, err = io.WriteString(p.w, "\n")
	}
	p.printed = ""
	return err
}

// Printed returns the text written since the last Finish.
func (p *LivePrinter) Printed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}
