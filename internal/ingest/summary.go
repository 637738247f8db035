package ingest

import (
	"fmt"
	"strings"
)

// Failure records why one row did not produce an asset. Row is 1-based.
type Failure struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason"`
}

func (f Failure) String() string {
	return fmt.Sprintf("Row %d (%s): %s", f.Row, f.Name, f.Reason)
}

// Summary is the outcome of one ingestion batch. Failures are ordered by row.
type Summary struct {
	Total       int       `json:"total"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Failures    []Failure `json:"errors"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abort_reason,omitempty"`
}

// OK reports whether the batch ran to completion without a failed row.
func (s *Summary) OK() bool {
	return !s.Aborted && s.Failed == 0
}

// FailedRows lists the 1-based row numbers that need a re-run.
func (s *Summary) FailedRows() []int {
	rows := make([]int, 0, len(s.Failures))
	for _, f := range s.Failures {
		rows = append(rows, f.Row)
	}
	return rows
}

func (s *Summary) abort(err error) {
	s.Aborted = true
	s.AbortReason = err.Error()
}

const rule = "============================================================"

// String renders the report printed at the end of a batch.
func (s *Summary) String() string {
	var b strings.Builder

	b.WriteString(rule + "\nUPLOAD SUMMARY\n" + rule + "\n")
	if s.Aborted {
		fmt.Fprintf(&b, "Aborted: %s\n", s.AbortReason)
	}
	fmt.Fprintf(&b, "Total images: %d\n", s.Total)
	fmt.Fprintf(&b, "Successful: %d\n", s.Successful)
	fmt.Fprintf(&b, "Failed: %d\n", s.Failed)
	if s.Total > 0 {
		fmt.Fprintf(&b, "Success rate: %.1f%%\n", float64(s.Successful)/float64(s.Total)*100)
	}

	if len(s.Failures) > 0 {
		b.WriteString("\nErrors:\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	b.WriteString(rule + "\n")
	return b.String()
}
