//go:build windows

package osfiles

import (
	"errors"
	"io"
)

var errPipeUnsupported = errors.New("named pipes are not supported on this platform")

// NamedPipe is unavailable on Windows; callers fall back to running the mux
// process without the live status side-channel.
func NamedPipe() (string, error) {
	return "", errPipeUnsupported
}

func OpenPipeReader(path string) (io.ReadCloser, error) {
	return nil, errPipeUnsupported
}
