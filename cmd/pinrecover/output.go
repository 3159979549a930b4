package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
)

// printer renders command results. Styles follow the terminal behind w,
// so redirected output stays plain text.
type printer struct {
	w      io.Writer
	reveal bool

	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newPrinter(w io.Writer, reveal bool) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		reveal:  reveal,
		label:   r.NewStyle().Foreground(lipgloss.Color("45")),
		value:   r.NewStyle().Foreground(lipgloss.Color("231")).Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("245")),
		success: r.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// pin renders a candidate, masked unless reveal is set.
func (p *printer) pin(c extraction.Candidate) string {
	if p.reveal {
		return c.Value()
	}
	return strings.Repeat("*", len(c))
}

// status prints a progress line for the recovery flow.
func (p *printer) status(s recovery.Status) {
	fmt.Fprintln(p.w, p.dim.Render("› "+string(s)))
}

// report prints the outcome of one scan.
func (p *printer) report(r *recovery.Report) {
	if !r.Found() {
		fmt.Fprintln(p.w, p.failure.Render("✗ PIN not found"))
		if r.Path != "" {
			p.field("File", r.Path)
		}
		if r.Result != nil {
			p.field("Reason", r.Result.Outcome())
		}
		return
	}

	fmt.Fprintln(p.w, p.success.Render("✓ PIN found"))
	p.field("PIN", p.pin(r.Candidate()))
	if !p.reveal {
		fmt.Fprintln(p.w, p.dim.Render("  (use --reveal to show digits)"))
	}
	if r.Path != "" {
		p.field("File", r.Path)
	}
	p.field("Strategy", r.Result.Match.Strategy)
	p.field("Offset", fmt.Sprintf("%d", r.Result.Offset))
	p.field("Scan ID", r.ScanID)
}

// event prints one watch-mode result on a single line.
func (p *printer) event(e recovery.WatchEvent) {
	ts := p.dim.Render(e.Timestamp.Format(time.TimeOnly))
	if e.Found {
		fmt.Fprintf(p.w, "%s %s %s %s\n", ts, p.success.Render("✓"), e.Path, p.value.Render(p.pin(e.Candidate)))
		return
	}
	fmt.Fprintf(p.w, "%s %s %s\n", ts, p.failure.Render("✗"), e.Path)
}

func (p *printer) field(name, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", p.label.Render(fmt.Sprintf("%-9s", name+":")), p.value.Render(value))
}
