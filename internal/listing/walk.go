package listing

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

// crawlState is owned by one walk and never shared
type crawlState struct {
	currentDirectory string
	open             bool
}

func (s *crawlState) reference(l Line) (award.Reference, bool) {
	if !s.open {
		return award.Reference{}, false
	}
	kind := award.KindHTML
	if l.Type == ImageAwardFile {
		kind = award.KindImage
	}
	return award.Reference{
		Directory: s.currentDirectory,
		Filename:  l.Value,
		Kind:      kind,
	}, true
}

// Walk lazily yields the award references found in a listing, in line order.
// Each call of the returned sequence starts from a fresh state, so walking the
// same restartable input twice yields the same references.
func Walk(lines iter.Seq[string]) iter.Seq[award.Reference] {
	return func(yield func(award.Reference) bool) {
		var state crawlState

		for raw := range lines {
			l := Classify(raw)
			switch l.Type {
			case DirectoryHeader:
				// a new header replaces the open directory
				state.currentDirectory = l.Value
				state.open = true
			case HTMLAwardFile, ImageAwardFile:
				ref, ok := state.reference(l)
				if !ok {
					continue
				}
				if !yield(ref) {
					return
				}
			case BlankSeparator:
				state = crawlState{}
			}
		}
	}
}

// WalkLines walks an in-memory listing
func WalkLines(lines []string) iter.Seq[award.Reference] {
	return Walk(slices.Values(lines))
}

// ReadLines reads a listing into memory, dropping line terminators
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	return lines, nil
}

// Collect reads a whole listing and returns its references
func Collect(r io.Reader) ([]award.Reference, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return slices.Collect(WalkLines(lines)), nil
}
