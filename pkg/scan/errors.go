package scan

import "errors"

// ErrNothingExtracted is returned when neither a name nor an identifier could
// be read from the scan; such a result must never be persisted.
var ErrNothingExtracted = errors.New("no name or identifier extracted")
