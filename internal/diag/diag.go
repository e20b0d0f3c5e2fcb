// Package diag collects the results of a connectivity check and prints
// them as a checklist.
package diag

import (
	"fmt"
	"io"
)

// Status of one check.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Result is one line of a report.
type Result struct {
	Name    string
	Status  Status
	Message string
	// Hints are printed under failed or warned checks.
	Hints []string
}

// Report accumulates check results in order.
type Report struct {
	Title   string
	Results []Result
}

// New returns an empty report.
func New(title string) *Report {
	return &Report{Title: title}
}

// Pass records a successful check.
func (r *Report) Pass(name, format string, args ...any) {
	r.add(name, StatusOK, fmt.Sprintf(format, args...), nil)
}

// Warn records a check that did not fail but needs attention.
func (r *Report) Warn(name, message string, hints ...string) {
	r.add(name, StatusWarn, message, hints)
}

// Fail records a failed check.
func (r *Report) Fail(name, message string, hints ...string) {
	r.add(name, StatusError, message, hints)
}

func (r *Report) add(name string, status Status, message string, hints []string) {
	r.Results = append(r.Results, Result{Name: name, Status: status, Message: message, Hints: hints})
}

// Counts returns how many checks passed, warned and failed.
func (r *Report) Counts() (ok, warn, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusOK:
			ok++
		case StatusWarn:
			warn++
		case StatusError:
			failed++
		}
	}
	return ok, warn, failed
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	_, _, failed := r.Counts()
	return failed > 0
}

// Err returns an error summarizing the failures, or nil.
func (r *Report) Err() error {
	_, _, failed := r.Counts()
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%s: %d check(s) failed", r.Title, failed)
}

// Print writes the checklist and summary to w. Color codes are emitted
// only when color is true.
func (r *Report) Print(w io.Writer, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return "\033[" + code + "m" + s + "\033[0m"
	}

	if r.Title != "" {
		fmt.Fprintln(w, paint("1", r.Title))
		fmt.Fprintln(w)
	}
	for _, res := range r.Results {
		switch res.Status {
		case StatusOK:
			fmt.Fprintf(w, "%s %s: %s\n", paint("32", "✓"), res.Name, res.Message)
		case StatusWarn:
			fmt.Fprintf(w, "%s %s: %s\n", paint("33", "⚠"), res.Name, res.Message)
		case StatusError:
			fmt.Fprintf(w, "%s %s: %s\n", paint("31", "✗"), res.Name, res.Message)
		}
		for _, h := range res.Hints {
			fmt.Fprintf(w, "    %s\n", h)
		}
	}

	ok, warn, failed := r.Counts()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %s", paint("32", fmt.Sprintf("%d passed", ok)))
	if warn > 0 {
		fmt.Fprintf(w, "  %s", paint("33", fmt.Sprintf("%d warnings", warn)))
	}
	if failed > 0 {
		fmt.Fprintf(w, "  %s", paint("31", fmt.Sprintf("%d errors", failed)))
	}
	fmt.Fprintln(w)
}
