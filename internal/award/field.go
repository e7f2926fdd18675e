package award

import "fmt"

// Status tells whether a field was read from the page
type Status int

const (
	// Found means the value was captured
	Found Status = iota
	// NotFound means the anchor was located but the value line did not match
	NotFound
	// NoMatch means the anchor text never appeared on the page
	NoMatch
)

// String returns the status name used in JSON
func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case NoMatch:
		return "no_match"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "found":
		*s = Found
	case "not_found":
		*s = NotFound
	case "no_match":
		*s = NoMatch
	default:
		return fmt.Errorf("unknown field status: %q", string(text))
	}
	return nil
}

// Field is a tagged extraction result. Value is only meaningful when
// Status is Found.
type Field struct {
	Status Status `json:"status"`
	Value  string `json:"value,omitempty"`
}

// Value builds a found field
func Value(v string) Field {
	return Field{Status: Found, Value: v}
}

// Missing builds a sentinel field with the given status
func Missing(s Status) Field {
	return Field{Status: s}
}

// OK reports whether the field holds a captured value
func (f Field) OK() bool {
	return f.Status == Found
}

// String returns the value, or the sentinel name in angle brackets
func (f Field) String() string {
	if f.OK() {
		return f.Value
	}
	return "<" + f.Status.String() + ">"
}

// Or returns the value when found, otherwise fallback
func (f Field) Or(fallback string) string {
	if f.OK() {
		return f.Value
	}
	return fallback
}
