package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFormats indicates Download was called before any format was added.
var ErrNoFormats = errors.New("no download formats added")

// ProcessError reports a mux process that exited nonzero. Output carries the
// captured standard-error text.
type ProcessError struct {
	Output string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("mux process failed: %s", strings.TrimSpace(e.Output))
}
