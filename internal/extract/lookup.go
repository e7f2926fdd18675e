package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

// MatchPolicy selects which line containing a marker serves as the anchor
type MatchPolicy string

const (
	FirstMatch     MatchPolicy = "first"
	LastMatch      MatchPolicy = "last"
	RejectMultiple MatchPolicy = "reject-multiple"
)

// Validate rejects unknown policy names. The empty policy means FirstMatch.
func (p MatchPolicy) Validate() error {
	switch p {
	case "", FirstMatch, LastMatch, RejectMultiple:
		return nil
	default:
		return fmt.Errorf("unknown match policy %q", string(p))
	}
}

// Lookup finds the first line containing marker and applies capture to the
// line offset lines away from it, returning the trimmed first group.
func Lookup(marker string, lines []string, capture *regexp.Regexp, offset int) award.Field {
	idx, status := locate(lines, marker, FirstMatch)
	if status != award.Found {
		return award.Missing(status)
	}
	return readAt(lines, idx+offset, capture)
}

// locate returns the index of the anchor line chosen by policy.
// The position is recorded while scanning; lines are never searched by content.
func locate(lines []string, marker string, policy MatchPolicy) (int, award.Status) {
	idx, count := -1, 0
	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}
		count++
		if policy == FirstMatch || policy == "" {
			return i, award.Found
		}
		idx = i
	}

	switch {
	case count == 0:
		return -1, award.NoMatch
	case policy == RejectMultiple && count > 1:
		return -1, award.NotFound
	}
	return idx, award.Found
}

// readAt applies capture to lines[target]. Out of range targets are NotFound.
func readAt(lines []string, target int, capture *regexp.Regexp) award.Field {
	if target < 0 || target >= len(lines) {
		return award.Missing(award.NotFound)
	}
	m := capture.FindStringSubmatch(lines[target])
	if len(m) < 2 {
		return award.Missing(award.NotFound)
	}
	return award.Value(strings.TrimSpace(m[1]))
}

// Rule is the declarative form of one anchored field lookup
type Rule struct {
	Marker  string      `yaml:"marker"`
	Offset  int         `yaml:"offset"`
	Pattern string      `yaml:"pattern"`
	Policy  MatchPolicy `yaml:"policy,omitempty"`
}

// compiledRule is a Rule with its pattern compiled
type compiledRule struct {
	Rule
	capture *regexp.Regexp
}

func (r Rule) compile(name string) (compiledRule, error) {
	if r.Marker == "" {
		return compiledRule{}, fmt.Errorf("rule %s: empty marker", name)
	}
	if err := r.Policy.Validate(); err != nil {
		return compiledRule{}, fmt.Errorf("rule %s: %w", name, err)
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return compiledRule{}, fmt.Errorf("rule %s: compiling pattern: %w", name, err)
	}
	if re.NumSubexp() < 1 {
		return compiledRule{}, fmt.Errorf("rule %s: pattern %q has no capture group", name, r.Pattern)
	}
	return compiledRule{Rule: r, capture: re}, nil
}

// apply runs the rule against a page
func (r compiledRule) apply(lines []string) award.Field {
	idx, status := locate(lines, r.Marker, r.Policy)
	if status != award.Found {
		return award.Missing(status)
	}
	return readAt(lines, idx+r.Offset, r.capture)
}
