package extract

import (
	"testing"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout_Compiles(t *testing.T) {
	layout := DefaultLayout()
	require.Len(t, layout.Measurements, len(award.CertCodes))

	_, err := New(layout)
	require.NoError(t, err)
}

func TestLoadLayout(t *testing.T) {
	layout, err := LoadLayout("testdata/layout.yml")
	require.NoError(t, err)

	assert.Equal(t, Rule{Marker: "Photo by", Offset: 1, Pattern: `">(.+?)<`, Policy: FirstMatch}, layout.Photographer)

	// partially specified rules keep their defaults
	assert.Equal(t, FirstMatch, layout.Award.Policy)
	assert.Equal(t, "Exhibited", layout.Award.Marker)
	assert.Equal(t, -1, layout.Award.Offset)
	assert.Equal(t, DefaultLayout().Title, layout.Title)

	assert.Equal(t, "<h3>Description</h3>", layout.Description.Start)
	assert.Equal(t, LastMatch, layout.Description.Policy)

	require.Len(t, layout.Measurements, 1)
	assert.Equal(t, award.NaturalSpread, layout.Measurements[0].Code)

	e, err := New(layout)
	require.NoError(t, err)

	rec, _ := e.Extract([]string{
		"<title>Cattleya hybrid 'Clonename'</title>",
		"<td>Natural spread</td>",
		"<td>12.0</td>",
		`<p class="credit">Photo by`,
		`<span class="name">Joe Lens</span>`,
		"<h3>Description</h3>",
		"Large flowers.",
		"</p>",
	})

	assert.Equal(t, award.Value("12.0"), rec.Measurement(award.NaturalSpread))
	assert.Equal(t, award.Missing(award.NoMatch), rec.Measurement(award.LipLength))
	assert.Equal(t, award.Value("Joe Lens"), rec.Photographer)
	assert.Equal(t, award.Value("Large flowers."), rec.Description)
}

func TestLoadLayout_Errors(t *testing.T) {
	_, err := LoadLayout("testdata/missing.yml")
	assert.Error(t, err)

	_, err = ParseLayout([]byte("title: [not, a, rule]"))
	assert.Error(t, err)
}

func TestNew_InvalidLayouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"bad title pattern", func(l *Layout) { l.Title.Pattern = "(" }},
		{"duplicate measurement", func(l *Layout) { l.Measurements = append(l.Measurements, l.Measurements[0]) }},
		{"measurement without code", func(l *Layout) { l.Measurements[0].Code = "" }},
		{"description without end", func(l *Layout) { l.Description.End = "" }},
		{"description bad policy", func(l *Layout) { l.Description.Policy = "any" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := DefaultLayout()
			tt.mutate(&layout)
			_, err := New(layout)
			assert.Error(t, err)
		})
	}
}
