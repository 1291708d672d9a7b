package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const barWidth = 24

// Progress draws a single-line bar that is redrawn in place. It is safe
// for concurrent use.
type Progress struct {
	mu      sync.Mutex
	label   string
	target  int
	current int
	start   time.Time
	drawn   bool
}

// NewProgress creates a bar counting towards target. A target of zero
// draws a plain counter.
func NewProgress(label string, target int) *Progress {
	return &Progress{label: label, target: target, start: time.Now()}
}

// Set updates the count and redraws.
func (p *Progress) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = n
	fmt.Fprint(Output, "\r"+p.render())
	p.drawn = true
}

// Done ends the line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(Output)
		p.drawn = false
	}
}

// Rate returns items per minute since the bar was created.
func (p *Progress) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(p.current) / elapsed
}

func (p *Progress) render() string {
	if p.target <= 0 {
		return fmt.Sprintf("%s %d", labelStyle.Render(p.label), p.current)
	}

	filled := barWidth * min(p.current, p.target) / p.target
	bar := barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s [%s] %d/%d", labelStyle.Render(p.label), bar, p.current, p.target)
}
