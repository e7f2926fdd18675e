package extract

import (
	"fmt"
	"os"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"gopkg.in/yaml.v3"
)

// MeasurementRule binds a certificate code to its lookup rule
type MeasurementRule struct {
	Code award.CertCode `yaml:"code"`
	Rule `yaml:",inline"`
}

// DescriptionRule delimits the free-text description block. The block starts
// on the line after Start and stops before the next line containing End.
type DescriptionRule struct {
	Start  string      `yaml:"start"`
	End    string      `yaml:"end"`
	Policy MatchPolicy `yaml:"policy,omitempty"`
}

// Layout is the complete set of anchors for one award page template
type Layout struct {
	Title        Rule `yaml:"title"`
	DateLocation Rule `yaml:"date_location"`
	Cross        Rule `yaml:"cross"`
	Exhibitor    Rule `yaml:"exhibitor"`
	Award        Rule `yaml:"award"`
	Photographer Rule `yaml:"photographer"`
	AwardNumber  Rule `yaml:"award_number"`

	Measurements []MeasurementRule `yaml:"measurements"`

	FlowerCount        Rule `yaml:"flower_count"`
	BudCount           Rule `yaml:"bud_count"`
	InflorescenceCount Rule `yaml:"inflorescence_count"`

	Description DescriptionRule `yaml:"description"`
}

const (
	tagValuePattern   = `">(.+?)$`
	cellValuePattern  = `>(.+?)<`
	countValuePattern = `">(.+?)</`
)

// DefaultLayout returns the anchors of the award page template in use since 2017.
//
// The date/location/cross and award rules anchor on the last matching line;
// every other rule anchors on the first.
func DefaultLayout() Layout {
	measurements := make([]MeasurementRule, 0, len(award.CertCodes))
	for _, code := range award.CertCodes {
		measurements = append(measurements, MeasurementRule{
			Code: code,
			Rule: Rule{Marker: ";" + string(code), Offset: 2, Pattern: cellValuePattern},
		})
	}

	return Layout{
		Title:        Rule{Marker: "<title>", Offset: 0, Pattern: `<title>(.+?)</title>`, Policy: FirstMatch},
		DateLocation: Rule{Marker: "<title>", Offset: 7, Pattern: tagValuePattern, Policy: LastMatch},
		Cross:        Rule{Marker: "<title>", Offset: 9, Pattern: tagValuePattern, Policy: LastMatch},
		Exhibitor:    Rule{Marker: "Exhibited", Offset: 0, Pattern: `by: (.+?)$`, Policy: FirstMatch},
		Award:        Rule{Marker: "Exhibited", Offset: -1, Pattern: tagValuePattern, Policy: LastMatch},
		Photographer: Rule{Marker: "Photographer", Offset: 0, Pattern: `Photographer: (.+?)$`, Policy: FirstMatch},
		AwardNumber:  Rule{Marker: "Award 2", Offset: 0, Pattern: `Award (.+?)<`, Policy: FirstMatch},

		Measurements: measurements,

		FlowerCount:        Rule{Marker: " flwrs<", Offset: 2, Pattern: countValuePattern, Policy: FirstMatch},
		BudCount:           Rule{Marker: " buds<", Offset: 2, Pattern: countValuePattern, Policy: FirstMatch},
		InflorescenceCount: Rule{Marker: " infl<", Offset: 2, Pattern: countValuePattern, Policy: FirstMatch},

		Description: DescriptionRule{
			Start:  `"+1">Description</font`,
			End:    "</font>",
			Policy: LastMatch,
		},
	}
}

// ParseLayout decodes YAML over the default layout; keys that are not present
// keep their default value. A measurements list replaces the default list.
func ParseLayout(data []byte) (Layout, error) {
	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parsing layout: %w", err)
	}
	return layout, nil
}

// LoadLayout reads a YAML layout file
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("reading layout: %w", err)
	}
	return ParseLayout(data)
}

type compiledMeasurement struct {
	code award.CertCode
	rule compiledRule
}

type compiledLayout struct {
	title, dateLocation, cross compiledRule
	exhibitor, award           compiledRule
	photographer, awardNumber  compiledRule
	measurements               []compiledMeasurement
	flowers, buds, infl        compiledRule
	description                DescriptionRule
}

func (l Layout) compile() (*compiledLayout, error) {
	var (
		c   compiledLayout
		err error
	)

	rules := []struct {
		name string
		rule Rule
		dst  *compiledRule
	}{
		{"title", l.Title, &c.title},
		{"date_location", l.DateLocation, &c.dateLocation},
		{"cross", l.Cross, &c.cross},
		{"exhibitor", l.Exhibitor, &c.exhibitor},
		{"award", l.Award, &c.award},
		{"photographer", l.Photographer, &c.photographer},
		{"award_number", l.AwardNumber, &c.awardNumber},
		{"flower_count", l.FlowerCount, &c.flowers},
		{"bud_count", l.BudCount, &c.buds},
		{"inflorescence_count", l.InflorescenceCount, &c.infl},
	}
	for _, r := range rules {
		if *r.dst, err = r.rule.compile(r.name); err != nil {
			return nil, err
		}
	}

	seen := make(map[award.CertCode]bool)
	for _, m := range l.Measurements {
		if m.Code == "" {
			return nil, fmt.Errorf("measurement rule without code")
		}
		if seen[m.Code] {
			return nil, fmt.Errorf("duplicate measurement rule for %s", m.Code)
		}
		seen[m.Code] = true

		rule, err := m.Rule.compile("measurement " + string(m.Code))
		if err != nil {
			return nil, err
		}
		c.measurements = append(c.measurements, compiledMeasurement{code: m.Code, rule: rule})
	}

	if l.Description.Start == "" || l.Description.End == "" {
		return nil, fmt.Errorf("description rule needs start and end markers")
	}
	if err := l.Description.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("description rule: %w", err)
	}
	c.description = l.Description

	return &c, nil
}
