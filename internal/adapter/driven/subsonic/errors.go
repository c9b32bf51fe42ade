package subsonic

import "fmt"

// The client classifies every failed request into exactly one of these
// types, so callers can decide retry behavior with errors.As instead of
// string matching.

// TransportError is a network-level failure: DNS, connect, timeout. There
// is no response to decode. Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-200 response. The body is not decoded. 5xx responses
// are worth retrying with backoff; 4xx are not.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// Retryable reports whether the status suggests a transient server problem.
func (e *HTTPError) Retryable() bool { return e.StatusCode >= 500 }

// MalformedResponseError is a 200 response whose body is not valid JSON or
// lacks the subsonic-response container. Not retryable without fixing a
// protocol mismatch.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ProtocolError is a well-formed envelope with status "failed". Code is the
// classified error code; RawCode keeps whatever number the server actually
// sent, which matters when Code is ErrCodeUnrecognized.
type ProtocolError struct {
	Code    ErrorCode
	RawCode int
	Message string
	HelpURL string
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "(no message)"
	}
	s := fmt.Sprintf("server error %d (%s): %s", e.RawCode, e.Code, msg)
	if e.HelpURL != "" {
		s += " (" + e.HelpURL + ")"
	}
	return s
}

// EntityDecodeError is one malformed record inside an otherwise good
// payload. The sync engine skips and logs these; they never abort a sync.
type EntityDecodeError struct {
	// Kind is "artist", "album", or "song".
	Kind string
	// Field is the wire field that was missing or unparseable.
	Field string
	Err   error
}

func (e *EntityDecodeError) Error() string {
	switch {
	case e.Err != nil && e.Field != "":
		return fmt.Sprintf("decode %s: field %q: %v", e.Kind, e.Field, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("decode %s: missing required field %q", e.Kind, e.Field)
	}
}

func (e *EntityDecodeError) Unwrap() error { return e.Err }
