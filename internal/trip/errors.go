package trip

import (
	"errors"
	"fmt"
)

// ErrNotCleaned is returned when cleaned data is read before Clean has run.
var ErrNotCleaned = errors.New("trip has not been cleaned: call Clean first")

// ErrNotCalculated is returned when summary data is read before Calculate has run.
var ErrNotCalculated = errors.New("summary has not been calculated: call Calculate first")

// FormatError reports a structural violation of the CATS trip file format:
// missing timestamp column, fewer than the expected number of columns, or an
// unparseable timestamp after invalid-date filtering. It aborts processing of
// the trip and carries the file identity.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("trip file %s: %s", e.Path, e.Reason)
}

// DecodeError reports a waveform token that could not be parsed as a number.
// It identifies the raw row, the waveform column and the offending token so a
// caller can decide between skipping the row and aborting the file.
type DecodeError struct {
	Row    int
	Column string
	Token  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("waveform decode failed at row %d column %s: token %q: %v",
		e.Row, e.Column, e.Token, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
