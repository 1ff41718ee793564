package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerInterval = 80 * time.Millisecond

// Spinner shows an animated label while a blocking call (an SSH round trip,
// usually) is in flight.
type Spinner struct {
	mu        sync.Mutex
	label     string
	state     SpinnerState
	frame     int
	startTime time.Time
	stopChan  chan struct{}
	doneChan  chan struct{}
	out       io.Writer
	running   bool
	lastWidth int
}

// NewSpinner creates a spinner that draws on out.
func NewSpinner(label string, out io.Writer) *Spinner {
	return &Spinner{label: label, out: out}
}

// Start begins the animation. Calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	s.render()
	go s.animate()
}

// Stop halts the animation without changing state.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	<-s.doneChan
}

// Success stops the spinner and prints a check with the elapsed time.
func (s *Spinner) Success() {
	s.finish(SpinnerSuccess)
}

// Fail stops the spinner and prints a cross with the elapsed time.
func (s *Spinner) Fail() {
	s.finish(SpinnerFailed)
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Spinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

func (s *Spinner) finish(state SpinnerState) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state

	symbol := StatusSymbol(state == SpinnerSuccess)
	s.clear()
	fmt.Fprintf(s.out, "%s %s %s\n", symbol, s.label, MutedStyle().Render(FormatDuration(time.Since(s.startTime))))
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	defer close(s.doneChan)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	color := SpinnerColors[(s.frame/2)%len(SpinnerColors)]
	line := fmt.Sprintf("%s %s...", lipgloss.NewStyle().Foreground(color).Render(spinnerFrames[s.frame]), s.label)

	s.clear()
	fmt.Fprint(s.out, line)
	s.lastWidth = lipgloss.Width(line)
}

// clear blanks the current line. Must be called with mu held.
func (s *Spinner) clear() {
	if s.lastWidth > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.lastWidth)+"\r")
		s.lastWidth = 0
	}
}

// FormatDuration formats short timings for display (e.g., "0.05s", "1.2s").
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
