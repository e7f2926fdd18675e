package award

import (
	"fmt"
	"strings"
)

// Kind identifies the type of resource a Reference points at
type Kind int

const (
	KindHTML Kind = iota
	KindImage
)

// String returns the lowercase name used in output and logs
func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "html":
		*k = KindHTML
	case "image":
		*k = KindImage
	default:
		return fmt.Errorf("unknown reference kind: %q", string(text))
	}
	return nil
}

// Reference is one award resource discovered in a listing.
// Directory is normalized with a trailing slash and no leading "./".
type Reference struct {
	Directory string `json:"directory"`
	Filename  string `json:"filename"`
	Kind      Kind   `json:"kind"`
}

// URL joins domain, directory and filename. No validation is performed.
func (r Reference) URL(domain string) string {
	return domain + r.Directory + r.Filename
}

// Path returns the site-relative path of the resource
func (r Reference) Path() string {
	return r.Directory + r.Filename
}

// ID returns the filename stem, which is the award number on this site
func (r Reference) ID() string {
	if i := strings.LastIndexByte(r.Filename, '.'); i > 0 {
		return r.Filename[:i]
	}
	return r.Filename
}

// Key identifies the reference uniquely within a crawl (award and kind)
func (r Reference) Key() string {
	return r.Path()
}

// Image returns the photo reference that accompanies an award page.
// Image references are returned unchanged.
func (r Reference) Image() Reference {
	if r.Kind == KindImage {
		return r
	}
	return Reference{
		Directory: r.Directory,
		Filename:  r.ID() + ".jpg",
		Kind:      KindImage,
	}
}
