package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const repaintInterval = 50 * time.Millisecond

var spinnerFrames = []string{"-", "\\", "|", "/"}

// Reporter renders a single-line status indicator for one in-flight
// operation at a time.
type Reporter struct {
	out      io.Writer
	animate  bool
	interval time.Duration

	mu     sync.Mutex
	active *Progress
}

// NewReporter returns a Reporter writing to w. The spinner is only animated
// when w is a terminal; otherwise just the final line of each operation is written.
func NewReporter(w io.Writer) *Reporter {
	return newReporter(w, isTerminal(w), repaintInterval)
}

func newReporter(w io.Writer, animate bool, interval time.Duration) *Reporter {
	return &Reporter{out: w, animate: animate, interval: interval}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress is the handle for the active operation. It is obtained from
// Begin and released by End.
type Progress struct {
	r     *Reporter
	title string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// Begin starts the indicator for title. Only one operation may be active;
// starting a second one before the first has ended panics.
func (r *Reporter) Begin(title string) *Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		panic(fmt.Sprintf("ui: progress %q started while %q is still active", title, r.active.title))
	}

	p := &Progress{
		r:     r,
		title: title,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	r.active = p

	if r.animate {
		go p.repaint()
	} else {
		close(p.done)
	}
	return p
}

func (p *Progress) repaint() {
	defer close(p.done)

	ticker := time.NewTicker(p.r.interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		fmt.Fprintf(p.r.out, "\r\033[K%s %s", p.title, spinnerFrames[i%len(spinnerFrames)])
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}
	}
}

// End stops the indicator and writes the final line. An empty detail is
// rendered as "ok" on success and "[fail]" on failure. Calls after the first are ignored.
func (p *Progress) End(success bool, detail string) {
	p.once.Do(func() {
		close(p.stop)
		<-p.done

		detail = strings.TrimSpace(detail)
		var line string
		if success {
			if detail == "" {
				detail = "ok"
			}
			line = fmt.Sprintf("%s %s [%s]", color.GreenString("✔"), p.title, color.New(color.FgGreen, color.Bold).Sprint(detail))
		} else {
			if detail == "" {
				line = fmt.Sprintf("%s %s [%s]", color.RedString("✖"), p.title, color.New(color.FgRed).Sprint("fail"))
			} else {
				line = fmt.Sprintf("%s %s %s", color.RedString("✖"), p.title, color.New(color.FgRed).Sprint(detail))
			}
		}

		if p.r.animate {
			fmt.Fprint(p.r.out, "\r\033[K")
		}
		fmt.Fprintln(p.r.out, line)

		p.r.mu.Lock()
		p.r.active = nil
		p.r.mu.Unlock()
	})
}
