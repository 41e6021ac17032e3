package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/runs"
)

// errIncomplete marks a run that finished without every job completing. The
// failure has already been printed.
var errIncomplete = errors.New("generation did not complete")

// progressPrinter writes each new log line of a run as it appears.
type progressPrinter struct {
	w       io.Writer
	printed int
	color   bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, color: infra.IsTerminal(w)}
}

func (p *progressPrinter) publish(view runs.View) {
	for ; p.printed < len(view.Log); p.printed++ {
		line := view.Log[p.printed]
		if p.printed == len(view.Log)-1 && view.Done() {
			line = p.paint(view.State, line)
		}
		fmt.Fprintln(p.w, line)
	}
}

func (p *progressPrinter) paint(state runs.State, s string) string {
	if !p.color {
		return s
	}
	switch state {
	case runs.StateCompleted:
		return text.FgGreen.Sprint(s)
	case runs.StateFailed:
		return text.FgRed.Sprint(s)
	default:
		return s
	}
}

// finish prints the result of a finished run and reports whether it fully
// completed.
func finish(w io.Writer, view runs.View) error {
	switch {
	case view.Batch != nil:
		fmt.Fprintln(w, renderBatchTable(view.Batch.Jobs))
	case view.Job != nil && view.Job.Status == domain.JobStatusCompleted:
		fmt.Fprintln(w, view.Job.ResultURL())
	}
	if view.State != runs.StateCompleted {
		return errIncomplete
	}
	return nil
}

func renderBatchTable(jobs []domain.Job) string {
	rows := make([][]string, 0, len(jobs))
	for i, job := range jobs {
		outcome := job.ResultURL()
		if job.Status != domain.JobStatusCompleted {
			outcome = job.ErrorDetail
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), job.Prompt, string(job.Status), outcome})
	}
	return renderTable(
		[]string{"#", "Prompt", "Status", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
