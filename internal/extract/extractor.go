package extract

import (
	"errors"
	"regexp"
	"strings"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

// clonePattern captures the clone name from the trailing quote pair of a title
var clonePattern = regexp.MustCompile(`'([^']+)'$`)

// Extractor runs a compiled layout against award pages.
// It holds no per-page state and is safe for concurrent use.
type Extractor struct {
	layout *compiledLayout
}

// New compiles a layout into an extractor
func New(layout Layout) (*Extractor, error) {
	compiled, err := layout.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{layout: compiled}, nil
}

// Default returns an extractor for DefaultLayout
func Default() *Extractor {
	e, err := New(DefaultLayout())
	if err != nil {
		panic("extract: default layout does not compile: " + err.Error())
	}
	return e
}

// SplitLines splits page text into lines without their terminators
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// ExtractText splits text into lines and extracts it
func (e *Extractor) ExtractText(text string) (*award.Record, error) {
	return e.Extract(SplitLines(text))
}

// Extract reads one award page. The record is always returned, with sentinel
// fields where data is missing. The error is non-nil only for structural
// failures; it joins one *StructuralParseError per failed step.
func (e *Extractor) Extract(lines []string) (*award.Record, error) {
	l := e.layout
	rec := award.NewRecord()

	errs := []error{
		e.extractTitle(lines, rec),
		e.extractAward(lines, rec),
		e.extractDescription(lines, rec),
	}

	date := l.dateLocation.apply(lines)
	rec.AwardDate, rec.Location = splitDateLocation(date)
	rec.CrossParentage = l.cross.apply(lines)

	rec.Exhibitor = l.exhibitor.apply(lines)
	rec.Photographer = l.photographer.apply(lines)
	rec.AwardNumber = l.awardNumber.apply(lines)

	for _, m := range l.measurements {
		rec.Measurements[m.code] = m.rule.apply(lines)
	}

	rec.FlowerCount = l.flowers.apply(lines)
	rec.BudCount = l.buds.apply(lines)
	rec.InflorescenceCount = l.infl.apply(lines)

	return rec, errors.Join(errs...)
}

func (e *Extractor) extractTitle(lines []string, rec *award.Record) error {
	title := e.layout.title.apply(lines)
	rec.PlantName = title
	if !title.OK() {
		rec.Genus = award.Missing(title.Status)
		rec.SpeciesOrHybrid = award.Missing(title.Status)
		rec.Clone = award.Missing(title.Status)
		return structural(StepTitle, "page title is %s", title.Status)
	}

	name := title.Value
	loc := clonePattern.FindStringSubmatchIndex(name)
	if loc == nil {
		rec.Genus = award.Missing(award.NotFound)
		rec.SpeciesOrHybrid = award.Missing(award.NotFound)
		rec.Clone = award.Missing(award.NotFound)
		return structural(StepTitle, "no quoted clone in title %q", name)
	}
	rec.Clone = award.Value(strings.TrimSpace(name[loc[2]:loc[3]]))

	// genus and species/hybrid come from the words before the clone's opening quote
	words := strings.Fields(name[:loc[0]])
	switch len(words) {
	case 0:
		rec.Genus = award.Missing(award.NotFound)
		rec.SpeciesOrHybrid = award.Missing(award.NotFound)
	case 1:
		rec.Genus = award.Value(words[0])
		rec.SpeciesOrHybrid = award.Missing(award.NotFound)
	default:
		rec.Genus = award.Value(words[0])
		rec.SpeciesOrHybrid = award.Value(strings.Join(words[1:], " "))
	}

	return nil
}

// splitDateLocation splits "October 12, 2024 - San Francisco" on the first hyphen
func splitDateLocation(f award.Field) (date, location award.Field) {
	if !f.OK() {
		return f, f
	}
	d, loc, ok := strings.Cut(f.Value, "-")
	if !ok {
		return award.Value(strings.TrimSpace(d)), award.Missing(award.NotFound)
	}
	return award.Value(strings.TrimSpace(d)), award.Value(strings.TrimSpace(loc))
}

func (e *Extractor) extractAward(lines []string, rec *award.Record) error {
	line := e.layout.award.apply(lines)
	if !line.OK() {
		rec.AwardCode = line
		rec.AwardPoints = line
		return nil
	}

	tokens := strings.Fields(line.Value)
	if len(tokens) != 2 {
		rec.AwardCode = award.Missing(award.NotFound)
		rec.AwardPoints = award.Missing(award.NotFound)
		return structural(StepAward, "award line %q has %d tokens, want code and points", line.Value, len(tokens))
	}

	rec.AwardCode = award.Value(tokens[0])
	rec.AwardPoints = award.Value(tokens[1])
	return nil
}

func (e *Extractor) extractDescription(lines []string, rec *award.Record) error {
	rule := e.layout.description

	label, status := locate(lines, rule.Start, rule.Policy)
	if status != award.Found {
		rec.Description = award.Missing(status)
		return nil
	}

	start := label + 1
	end := -1
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], rule.End) {
			end = i
			break
		}
	}
	if end < 0 {
		rec.Description = award.Missing(award.NotFound)
		return structural(StepDescription, "no %q after description label on line %d", rule.End, label+1)
	}

	parts := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		clean := strings.TrimSpace(strings.ReplaceAll(line, `"`, "'"))
		if clean != "" {
			parts = append(parts, clean)
		}
	}
	rec.Description = award.Value(strings.TrimSpace(strings.Join(parts, " ")))

	return nil
}
