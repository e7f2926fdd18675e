package listing

import (
	"regexp"
	"strings"
)

// LineType is the category of one listing line
type LineType int

const (
	Other LineType = iota
	DirectoryHeader
	HTMLAwardFile
	ImageAwardFile
	BlankSeparator
)

// String returns the category name
func (t LineType) String() string {
	switch t {
	case DirectoryHeader:
		return "directory"
	case HTMLAwardFile:
		return "html"
	case ImageAwardFile:
		return "image"
	case BlankSeparator:
		return "blank"
	default:
		return "other"
	}
}

// Line is a classified listing line. Value holds the normalized directory path
// for headers and the trimmed filename for award files.
type Line struct {
	Type  LineType
	Value string
}

var (
	directoryPattern = regexp.MustCompile(`^(?:\./)?([0-9/]+):`)
	htmlPattern      = regexp.MustCompile(`^\d+\.html$`)
	imagePattern     = regexp.MustCompile(`^\d+\.jpg$`)
)

// Classify categorizes one raw listing line. It is a pure function of the text.
func Classify(raw string) Line {
	if m := directoryPattern.FindStringSubmatch(raw); m != nil {
		return Line{Type: DirectoryHeader, Value: normalizeDirectory(m[1])}
	}

	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return Line{Type: BlankSeparator}
	case htmlPattern.MatchString(trimmed):
		return Line{Type: HTMLAwardFile, Value: trimmed}
	case imagePattern.MatchString(trimmed):
		return Line{Type: ImageAwardFile, Value: trimmed}
	}

	return Line{Type: Other}
}

// normalizeDirectory guarantees exactly one trailing slash
func normalizeDirectory(path string) string {
	return strings.TrimRight(path, "/") + "/"
}
