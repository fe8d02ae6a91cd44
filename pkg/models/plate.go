package models

import "strings"

// PlateRecord is one catalog entry describing a license plate design.
// Only Region, Title and Image are required; everything else comes from the
// enhanced catalog columns and stays zero when the catalog omits them.
type PlateRecord struct {
	Region          string   `json:"region"`
	Title           string   `json:"title"`
	Image           string   `json:"image"`
	BackgroundColor string   `json:"background_color,omitempty"`
	TextColor       string   `json:"text_color,omitempty"`
	VisualElements  []string `json:"visual_elements,omitempty"`
	Category        string   `json:"category,omitempty"`
	Rarity          string   `json:"rarity,omitempty"`
	Layout          string   `json:"layout,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// Key returns the identity of the record.
func (p PlateRecord) Key() PlateKey {
	return NewPlateKey(p.Region, p.Title)
}

// HasEnhanced reports whether any enhanced field is populated.
func (p PlateRecord) HasEnhanced() bool {
	return p.BackgroundColor != "" || p.TextColor != "" || len(p.VisualElements) > 0 ||
		p.Category != "" || p.Rarity != "" || p.Layout != "" || p.Confidence != nil ||
		p.Notes != "" || p.Source != ""
}

// PlateKey identifies a plate by region and title.
type PlateKey struct {
	Region string
	Title  string
}

// NewPlateKey normalizes region to upper case and title to lower case so two
// spellings of the same plate compare equal.
func NewPlateKey(region, title string) PlateKey {
	return PlateKey{
		Region: NormalizeRegion(region),
		Title:  strings.ToLower(strings.TrimSpace(title)),
	}
}

func (k PlateKey) String() string {
	return k.Region + "/" + k.Title
}

// NormalizeRegion trims and upper-cases a region code ("ca " -> "CA").
func NormalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}
