package dataset

import "fmt"

// ErrorKind classifies ingestion failures.
type ErrorKind string

const (
	FetchFailure ErrorKind = "fetch"
	ParseFailure ErrorKind = "parse"
)

// IngestError is returned by Store.Load when the source cannot be fetched
// or parsed. The store stays empty and a later Load retries.
type IngestError struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	switch e.Kind {
	case FetchFailure:
		return fmt.Sprintf("failed to fetch dataset %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("failed to parse dataset %s: %v", e.Source, e.Err)
	}
}

func (e *IngestError) Unwrap() error { return e.Err }

// ParseWarning records a malformed row or cell. Warnings never abort a load.
type ParseWarning struct {
	Row     int // 1-based data row, header excluded; 0 for header-level issues
	Field   string
	Message string
}

func (w ParseWarning) String() string {
	if w.Field != "" {
		return fmt.Sprintf("row %d (%s): %s", w.Row, w.Field, w.Message)
	}
	return fmt.Sprintf("row %d: %s", w.Row, w.Message)
}
