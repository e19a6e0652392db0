package models

import "strings"

// ImportRow is a candidate roster entry from an uploaded file. Rows are
// transient; they only reach the record store through the student, school
// and class entities they resolve or create.
type ImportRow struct {
	Name   string `json:"name"`
	TaxID  string `json:"tax_id,omitempty"`
	School string `json:"school"`
	Class  string `json:"class,omitempty"`
}

// DedupKey identifies duplicate rows within one batch.
func (r ImportRow) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(r.Name)) + "|" + strings.ToLower(strings.TrimSpace(r.School))
}

// ImportState names the phases of a roster import run.
type ImportState string

const (
	ImportStateValidating    ImportState = "VALIDATING"
	ImportStateDeduplicating ImportState = "DEDUPLICATING"
	ImportStateDispatching   ImportState = "DISPATCHING"
	ImportStateCompleted     ImportState = "COMPLETED"
	ImportStatePartial       ImportState = "PARTIAL"
)

// ImportRowError records a single row failure; it never aborts the batch.
type ImportRowError struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ImportReport accumulates per-row outcomes of one import invocation.
// NextOffset is set when more rows remain, so callers resume with an
// advancing offset instead of one long-running call.
type ImportReport struct {
	ID         string           `json:"id"`
	State      ImportState      `json:"state"`
	Imported   int              `json:"imported"`
	Skipped    int              `json:"skipped"`
	Duplicates int              `json:"duplicates"`
	Errors     []ImportRowError `json:"errors,omitempty"`
	NextOffset *int             `json:"next_offset,omitempty"`
}
