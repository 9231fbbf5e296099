package downloader

import (
	"fmt"
	"strings"
)

// FetchError reports that a segment could not be retrieved after exhausting
// all retry attempts. It carries the last underlying error.
type FetchError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("giving up on segment %d after %d attempts: %v", e.Index, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecryptError reports that a fetched segment could not be decrypted. It is
// fatal immediately and never retried.
type DecryptError struct {
	Index int
	Err   error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("failed to decrypt segment %d: %v", e.Index, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }

// ReassemblyError reports that all worker lanes finished but segments are
// permanently missing, leaving later segments stranded in the reorder buffer.
type ReassemblyError struct {
	Missing []int
}

func (e *ReassemblyError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, idx := range e.Missing {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return fmt.Sprintf("reassembly buffer is not empty, missing segments: %s", strings.Join(parts, ", "))
}
