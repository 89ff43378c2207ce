// Package report aggregates per-entry outcomes of a sync pass into a
// summary the CLI can render, including the specific reason for every
// entry that did not converge.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"dotconf/pkg/errors"
	"dotconf/pkg/types"
)

// divergence diffs are elided beyond this size; large or binary files
// produce noise, not insight
const maxDiffInput = 64 * 1024

// Outcome is the terminal state of one entry after a sync pass.
type Outcome struct {
	Entry  types.TrackedEntry
	Status types.EntryStatus
	// Reason explains a Conflicted or Failed status; nil when converged
	Reason error
	// Detail optionally carries a human-readable divergence diff
	Detail string
}

// Summary collects the outcomes of one reconciliation pass.
type Summary struct {
	Direction types.SyncDirection
	Outcomes  []Outcome
}

// NewSummary creates an empty summary for a pass in the given direction
func NewSummary(direction types.SyncDirection) *Summary {
	return &Summary{Direction: direction}
}

// Add records one entry's outcome
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Counts returns the number of converged, conflicted and failed entries
func (s *Summary) Counts() (converged, conflicted, failed int) {
	for _, o := range s.Outcomes {
		switch o.Status {
		case types.StatusConverged:
			converged++
		case types.StatusConflicted:
			conflicted++
		case types.StatusFailed:
			failed++
		}
	}
	return
}

// Ok reports whether every entry converged
func (s *Summary) Ok() bool {
	_, conflicted, failed := s.Counts()
	return conflicted == 0 && failed == 0
}

// Render writes a human-readable report. Converged entries are listed
// tersely; every non-converged entry names its path and reason.
func (s *Summary) Render(w io.Writer) {
	converged, conflicted, failed := s.Counts()
	fmt.Fprintf(w, "%d converged, %d conflicted, %d failed\n", converged, conflicted, failed)

	for _, o := range s.Outcomes {
		switch o.Status {
		case types.StatusConverged:
			continue
		case types.StatusConflicted:
			fmt.Fprintf(w, "  conflict  %s: %s\n", o.Entry.FilesystemPath, reasonText(o.Reason))
		case types.StatusFailed:
			fmt.Fprintf(w, "  failed    %s: %s\n", o.Entry.FilesystemPath, reasonText(o.Reason))
		default:
			fmt.Fprintf(w, "  unresolved %s\n", o.Entry.FilesystemPath)
		}
		if o.Detail != "" {
			for _, line := range strings.Split(strings.TrimRight(o.Detail, "\n"), "\n") {
				fmt.Fprintf(w, "            %s\n", line)
			}
		}
	}
}

func reasonText(err error) string {
	if err == nil {
		return "unknown reason"
	}
	return err.Error()
}

// CodeOf returns the error code behind an outcome's reason, for stable
// assertions and exit-code decisions.
func CodeOf(o Outcome) errors.ErrorCode {
	if o.Reason == nil {
		return ""
	}
	return errors.GetErrorCode(o.Reason)
}

// Divergence produces a compact line diff between the filesystem and
// source-control copies of a conflicted entry. Binary or oversized inputs
// yield an empty string.
func Divergence(fsCopy, scCopy []byte) string {
	if len(fsCopy) > maxDiffInput || len(scCopy) > maxDiffInput {
		return ""
	}
	if bytes.ContainsRune(fsCopy, 0) || bytes.ContainsRune(scCopy, 0) {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(scCopy), string(fsCopy), true)
	dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		text := strings.TrimRight(d.Text, "\n")
		if text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writePrefixed(&b, "+", text)
		case diffmatchpatch.DiffDelete:
			writePrefixed(&b, "-", text)
		}
	}
	return b.String()
}

func writePrefixed(b *strings.Builder, prefix, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(prefix)
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
