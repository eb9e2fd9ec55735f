package analysis

import "errors"

// Validation failures. They are returned before any row is reduced; callers
// match them with errors.Is.
var (
	ErrEmptyInput            = errors.New("input has no rows")
	ErrMissingRequiredColumn = errors.New(`missing "Ex" or "Em" column (case-insensitive)`)
	ErrNoMeasurementColumns  = errors.New("no dilution columns found")
	ErrInvalidFactor         = errors.New("correction factor must be a finite number >= 0")
)
