package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"platehub/pkg/models"
)

// Schema tells which column set a catalog was read with.
type Schema string

const (
	SchemaMinimal  Schema = "minimal"
	SchemaEnhanced Schema = "enhanced"
)

const (
	colRegion          = "region"
	colTitle           = "title"
	colImage           = "image"
	colBackgroundColor = "background_color"
	colTextColor       = "text_color"
	colVisualElements  = "visual_elements"
	colCategory        = "category"
	colRarity          = "rarity"
	colLayout          = "layout"
	colConfidence      = "confidence"
	colNotes           = "notes"
	colSource          = "source"
)

var requiredColumns = []string{colRegion, colTitle, colImage}

var enhancedColumns = []string{
	colBackgroundColor, colTextColor, colVisualElements, colCategory, colRarity,
	colLayout, colConfidence, colNotes, colSource,
}

// canonical header mapping
var headerAliases = map[string]string{
	"region":      colRegion,
	"state":       colRegion,
	"state_code":  colRegion,
	"region_code": colRegion,

	"title":       colTitle,
	"name":        colTitle,
	"plate":       colTitle,
	"plate_title": colTitle,

	"image":      colImage,
	"image_name": colImage,
	"image_ref":  colImage,
	"image_file": colImage,
	"filename":   colImage,

	"background_color": colBackgroundColor,
	"bg_color":         colBackgroundColor,
	"background":       colBackgroundColor,
	"text_color":       colTextColor,
	"font_color":       colTextColor,
	"visual_elements":  colVisualElements,
	"elements":         colVisualElements,
	"tags":             colVisualElements,
	"category":         colCategory,
	"type":             colCategory,
	"rarity":           colRarity,
	"rarity_tier":      colRarity,
	"layout":           colLayout,
	"layout_style":     colLayout,
	"confidence":       colConfidence,
	"confidence_score": colConfidence,
	"notes":            colNotes,
	"note":             colNotes,
	"source":           colSource,
	"attribution":      colSource,
	"source_url":       colSource,
}

// ParseError is a catalog-level failure: the header lacks the minimal
// columns, the input is not CSV at all, or no row was usable.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "catalog: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("catalog line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowError describes a skipped row. It never aborts a load.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// LoadResult is the outcome of reading one catalog source.
type LoadResult struct {
	Records    []models.PlateRecord
	Schema     Schema
	Rows       int        // data rows seen, excluding the header
	Fallbacks  int        // rows that failed the enhanced schema and were read as minimal
	Duplicates int        // rows dropped because the (region, title) was already loaded
	Skipped    []RowError // rows dropped for missing or malformed required values
}

type columns map[string]int

func (c columns) value(row []string, key string) string {
	idx, ok := c[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Load reads a delimited plate catalog. The enhanced schema is tried first for
// every row when the header carries enhanced columns; a row whose enhanced
// values do not parse is read with the minimal schema instead. Rows without a
// region, title or image are skipped.
func Load(r io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Reason: "empty catalog"}
		}
		return nil, &ParseError{Line: 1, Reason: "read header", Err: err}
	}

	cols := make(columns, len(header))
	for i, h := range header {
		if canonical, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, &ParseError{Line: 1, Reason: "missing required column " + req}
		}
	}

	res := &LoadResult{Schema: SchemaMinimal}
	for _, c := range enhancedColumns {
		if _, ok := cols[c]; ok {
			res.Schema = SchemaEnhanced
			break
		}
	}

	seen := make(map[models.PlateKey]struct{})
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rows++
				res.Skipped = append(res.Skipped, RowError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, &ParseError{Reason: "read row", Err: err}
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		res.Rows++

		var rec models.PlateRecord
		if res.Schema == SchemaEnhanced {
			rec, err = parseEnhanced(cols, len(header), row)
			if err != nil {
				rec, err = parseMinimal(cols, row)
				if err == nil {
					res.Fallbacks++
				}
			}
		} else {
			rec, err = parseMinimal(cols, row)
		}
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 {
		return res, &ParseError{Reason: fmt.Sprintf("no usable rows (%d skipped)", len(res.Skipped))}
	}
	return res, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseMinimal(cols columns, row []string) (models.PlateRecord, error) {
	rec := models.PlateRecord{
		Region: models.NormalizeRegion(cols.value(row, colRegion)),
		Title:  cols.value(row, colTitle),
		Image:  cols.value(row, colImage),
	}
	switch {
	case rec.Region == "":
		return models.PlateRecord{}, errors.New("missing region")
	case rec.Title == "":
		return models.PlateRecord{}, errors.New("missing title")
	case rec.Image == "":
		return models.PlateRecord{}, errors.New("missing image")
	}
	return rec, nil
}

func parseEnhanced(cols columns, width int, row []string) (models.PlateRecord, error) {
	if len(row) < width {
		return models.PlateRecord{}, fmt.Errorf("short row: %d of %d fields", len(row), width)
	}
	rec, err := parseMinimal(cols, row)
	if err != nil {
		return models.PlateRecord{}, err
	}

	rec.BackgroundColor = cols.value(row, colBackgroundColor)
	rec.TextColor = cols.value(row, colTextColor)
	rec.VisualElements = splitList(cols.value(row, colVisualElements))
	rec.Category = cols.value(row, colCategory)
	rec.Rarity = strings.ToLower(cols.value(row, colRarity))
	rec.Layout = cols.value(row, colLayout)
	rec.Notes = cols.value(row, colNotes)
	rec.Source = cols.value(row, colSource)

	if raw := cols.value(row, colConfidence); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PlateRecord{}, fmt.Errorf("confidence %q: %w", raw, err)
		}
		if f < 0 {
			return models.PlateRecord{}, fmt.Errorf("confidence %q is negative", raw)
		}
		rec.Confidence = &f
	}
	return rec, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '|' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
