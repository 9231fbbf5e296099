//go:build unix

package osfiles

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// NamedPipe creates a FIFO in the temp directory and returns its path.
func NamedPipe() (string, error) {
	path := TempPath(".fifo")
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// OpenPipeReader opens the read side of a FIFO. The pipe is opened
// read-write so the open never blocks waiting for a writer and the reader
// never observes EOF before being cancelled; the caller closes it when the
// producing process has exited.
func OpenPipeReader(path string) (io.ReadCloser, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
