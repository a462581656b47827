package cli

import (
	"fmt"
	"io"
	"strings"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/model"
)

// progressLine redraws a single terminal line per job and prints the
// job's log line when it finishes. Redraws only happen when the percentage
// changes, so per-record progress does not flood the terminal.
type progressLine struct {
	enabled bool
	out     io.Writer

	index int
	total int
	last  int
}

func newProgressLine(enabled bool, out io.Writer, total int) *progressLine {
	return &progressLine{enabled: enabled, out: out, total: total, last: -1}
}

func (p *progressLine) Handle(ev batch.Event) {
	if ev.Terminal() {
		p.finish(ev)
		return
	}
	prog := ev.Progress()
	if !p.enabled || prog.Percent == p.last {
		return
	}
	if p.last < 0 {
		p.index++
	}
	p.last = prog.Percent
	fmt.Fprintf(p.out, "\r\033[2K%s", p.render(prog))
}

func (p *progressLine) finish(ev batch.Event) {
	line := batch.LogLine(*ev.Result)
	if ev.Result.OK() {
		line = fmt.Sprintf("%s (%d records)", line, ev.Result.Records)
	}
	if p.last < 0 {
		p.index++
	}
	p.last = -1
	if p.enabled {
		fmt.Fprintf(p.out, "\r\033[2K%s\n", line)
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *progressLine) render(ev model.ProgressEvent) string {
	counter := fmt.Sprintf("[%d/%d]", p.index, p.total)
	if p.total <= 0 {
		counter = fmt.Sprintf("[#%d]", p.index)
	}
	parts := []string{counter, renderBar(ev.Percent, 20), fmt.Sprintf("%3d%%", ev.Percent)}
	if msg := strings.TrimSpace(ev.Message); msg != "" {
		parts = append(parts, "| "+truncateRunes(msg, 60))
	}
	return strings.Join(parts, "  ")
}

func renderBar(percent, width int) string {
	percent = clampInt(percent, 0, 100)
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
