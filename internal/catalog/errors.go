package catalog

import (
	"fmt"
	"strings"
)

// notFoundError signals that zero files matched the include patterns.
type notFoundError struct {
	dir      string
	patterns []string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("no entrypoint found in %s matching %s", e.dir, strings.Join(e.patterns, ", "))
}

// IsNotFound reports whether err indicates zero matching artifact files.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// ambiguousError signals multiple non-sharded candidates. Resolution refuses
// to guess between them.
type ambiguousError struct {
	candidates []string
}

func (e ambiguousError) Error() string {
	return "ambiguous entrypoint, multiple non-sharded candidates: " + strings.Join(e.candidates, ", ")
}

// IsAmbiguous reports whether err indicates more than one non-sharded match.
func IsAmbiguous(err error) bool {
	_, ok := err.(ambiguousError)
	return ok
}

// upstreamFetchError wraps a failed artifact download. Fatal, never retried.
type upstreamFetchError struct {
	repoID string
	err    error
}

func (e upstreamFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.repoID, e.err)
}

func (e upstreamFetchError) Unwrap() error { return e.err }

// IsUpstreamFetch reports whether err is a failed artifact download.
func IsUpstreamFetch(err error) bool {
	_, ok := err.(upstreamFetchError)
	return ok
}
