package transform

import (
	"errors"
	"fmt"
	"strings"
)

// MissingColumnError reports statistic codes a column spec needs that the
// raw rows do not carry. It signals a schema mismatch with the data source.
type MissingColumnError struct {
	Table string
	Codes []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing columns in the dataset: %s", e.Table, strings.Join(e.Codes, ", "))
}

// IsTransient returns false: refetching returns the same schema
func (e *MissingColumnError) IsTransient() bool {
	return false
}

// InvalidValueError reports a cell that must be numeric but is not
type InvalidValueError struct {
	Table string
	Code  string
	Row   int
	Value interface{}
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: column %s row %d: expected a number, got %v", e.Table, e.Code, e.Row, e.Value)
}

// IsTransient returns false as the value comes from stored data
func (e *InvalidValueError) IsTransient() bool {
	return false
}

// IsTableUnavailable reports whether err means the raw data does not fit
// the column spec, as opposed to a failure fetching it.
func IsTableUnavailable(err error) bool {
	var missing *MissingColumnError
	var invalid *InvalidValueError
	return errors.As(err, &missing) || errors.As(err, &invalid)
}
