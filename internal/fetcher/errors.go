package fetcher

import (
	"fmt"

	"github.com/rpromhub/rpromhub/internal/target"
)

// Kind classifies why a fetch failed.
type Kind int

const (
	// KindTransport is a network or connection failure; no response was read.
	KindTransport Kind = iota
	// KindHTTPStatus is a non-success response status.
	KindHTTPStatus
	// KindDecode means the body could not be parsed into the branch shape.
	KindDecode
	// KindMissingField means commit.commit.author.date was absent.
	KindMissingField
	// KindTimestampParse means the date was present but not RFC 3339.
	KindTimestampParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	case KindMissingField:
		return "missing_field"
	case KindTimestampParse:
		return "timestamp_parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FetchError is returned by Fetch for every failure. It is scoped to a single
// target; callers log it and move on.
type FetchError struct {
	Kind   Kind
	Target target.Target
	// StatusCode is the upstream HTTP status, or 0 if none was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.Target, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Target, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
