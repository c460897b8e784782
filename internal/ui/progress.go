package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// Progress is a single-line progress bar. It is a no-op when its output is
// not a terminal.
type Progress struct {
	mu              sync.Mutex
	out             io.Writer
	enabled         bool
	total           int
	current         int
	lastRenderWidth int
	bar             progress.Model
}

// NewProgress creates a progress bar for total items on stderr.
func NewProgress(total int) *Progress {
	return newProgress(os.Stderr, isTerminal(os.Stderr), total)
}

func newProgress(out io.Writer, enabled bool, total int) *Progress {
	if total <= 0 {
		total = 1
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 36
	if cols, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && cols > 0 {
		bar.Width = min(max(cols-40, 16), 64)
	}
	return &Progress{out: out, enabled: enabled, total: total, bar: bar}
}

// Advance moves the bar by one and shows label next to it.
func (p *Progress) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.current = min(p.current+1, p.total)
	p.render(label)
}

// Done terminates the progress line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.lastRenderWidth == 0 {
		return
	}
	fmt.Fprint(p.out, "\n")
	p.lastRenderWidth = 0
}

func (p *Progress) render(label string) {
	percent := float64(p.current) / float64(p.total)
	line := fmt.Sprintf("%s %3.0f%% %d/%d %s", p.bar.ViewAs(percent), percent*100, p.current, p.total, strings.TrimSpace(label))
	pad := ""
	if p.lastRenderWidth > len(line) {
		pad = strings.Repeat(" ", p.lastRenderWidth-len(line))
	}
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
	p.lastRenderWidth = len(line)
}

func isTerminal(f *os.File) bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
