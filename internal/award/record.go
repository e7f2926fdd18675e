package award

import "time"

// CertCode names a certificate measurement taken by the judging team
type CertCode string

const (
	NaturalSpread         CertCode = "NS"
	NaturalSpreadVertical CertCode = "NSV"
	DorsalSepalWidth      CertCode = "DSW"
	DorsalSepalLength     CertCode = "DSL"
	PetalWidth            CertCode = "PETW"
	PetalLength           CertCode = "PETL"
	LateralSepalWidth     CertCode = "LSW"
	LateralSepalLength    CertCode = "LSL"
	LipWidth              CertCode = "LIPW"
	LipLength             CertCode = "LIPL"
)

// CertCodes lists every measurement in the order it appears on award pages
var CertCodes = []CertCode{
	NaturalSpread,
	NaturalSpreadVertical,
	DorsalSepalWidth,
	DorsalSepalLength,
	PetalWidth,
	PetalLength,
	LateralSepalWidth,
	LateralSepalLength,
	LipWidth,
	LipLength,
}

// Record is the data recovered from one award page.
// Fields left as sentinels are expected; a partial record is still valid output.
type Record struct {
	PlantName       Field `json:"plant_name"`
	Genus           Field `json:"genus"`
	SpeciesOrHybrid Field `json:"species_or_hybrid"`
	Clone           Field `json:"clone"`
	AwardDate       Field `json:"award_date"`
	Location        Field `json:"location"`
	CrossParentage  Field `json:"cross_parentage"`
	AwardCode       Field `json:"award_code"`
	AwardPoints     Field `json:"award_points"`
	Exhibitor       Field `json:"exhibitor"`
	Photographer    Field `json:"photographer"`
	AwardNumber     Field `json:"award_number"`

	Measurements map[CertCode]Field `json:"measurements"`

	FlowerCount        Field `json:"flower_count"`
	BudCount           Field `json:"bud_count"`
	InflorescenceCount Field `json:"inflorescence_count"`

	Description Field `json:"description"`

	// Provenance, filled in by the crawl pipeline
	SourceURL   string    `json:"source_url,omitempty"`
	Photo       string    `json:"photo,omitempty"`
	ExtractedAt time.Time `json:"extracted_at,omitzero"`
}

// NewRecord returns a record with every field set to NoMatch
func NewRecord() *Record {
	none := Missing(NoMatch)
	r := &Record{
		PlantName:          none,
		Genus:              none,
		SpeciesOrHybrid:    none,
		Clone:              none,
		AwardDate:          none,
		Location:           none,
		CrossParentage:     none,
		AwardCode:          none,
		AwardPoints:        none,
		Exhibitor:          none,
		Photographer:       none,
		AwardNumber:        none,
		Measurements:       make(map[CertCode]Field, len(CertCodes)),
		FlowerCount:        none,
		BudCount:           none,
		InflorescenceCount: none,
		Description:        none,
	}
	for _, code := range CertCodes {
		r.Measurements[code] = none
	}
	return r
}

// Measurement returns the field for a certificate code
func (r *Record) Measurement(code CertCode) Field {
	if f, ok := r.Measurements[code]; ok {
		return f
	}
	return Missing(NoMatch)
}

// Key returns the identifier used to store the record.
// It prefers the award number printed on the page, then the source filename.
func (r *Record) Key(fallback string) string {
	if r.AwardNumber.OK() && r.AwardNumber.Value != "" {
		return r.AwardNumber.Value
	}
	return fallback
}

// FoundCount returns how many fields (measurements included) hold a value
func (r *Record) FoundCount() int {
	n := 0
	for _, f := range r.fields() {
		if f.OK() {
			n++
		}
	}
	for _, f := range r.Measurements {
		if f.OK() {
			n++
		}
	}
	return n
}

func (r *Record) fields() []Field {
	return []Field{
		r.PlantName, r.Genus, r.SpeciesOrHybrid, r.Clone,
		r.AwardDate, r.Location, r.CrossParentage,
		r.AwardCode, r.AwardPoints, r.Exhibitor, r.Photographer, r.AwardNumber,
		r.FlowerCount, r.BudCount, r.InflorescenceCount,
		r.Description,
	}
}
