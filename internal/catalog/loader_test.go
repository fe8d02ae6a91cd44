package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enhancedCSV = `state,title,image,background_color,text_color,visual_elements,category,rarity,layout_style,confidence,notes,source
CA,Sequoia,ca_sequoia.png,white,green,tree;mountain,Specialty,Rare,centered,0.9,,dmv.ca.gov
CA,Gold Rush,ca_gold.png,gold,black,,Standard,common,,0.75,,
NV,Home Means Nevada,nv_home.png,blue,white,,,,,not-a-number,,
TX,,tx_blank.png,,,,,,,,,
`

func TestLoadEnhanced(t *testing.T) {
	res, err := Load(strings.NewReader(enhancedCSV))
	require.NoError(t, err)

	assert.Equal(t, SchemaEnhanced, res.Schema)
	assert.Equal(t, 4, res.Rows)
	require.Len(t, res.Records, 3)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 5, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "missing title")

	seq := res.Records[0]
	assert.Equal(t, "CA", seq.Region)
	assert.Equal(t, "Sequoia", seq.Title)
	assert.Equal(t, []string{"tree", "mountain"}, seq.VisualElements)
	assert.Equal(t, "rare", seq.Rarity)
	assert.Equal(t, "centered", seq.Layout)
	require.NotNil(t, seq.Confidence)
	assert.InDelta(t, 0.9, *seq.Confidence, 1e-9)
}

func TestLoadBadEnhancedValueFallsBackToMinimal(t *testing.T) {
	res, err := Load(strings.NewReader(enhancedCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Fallbacks)
	nv := res.Records[2]
	assert.Equal(t, "NV", nv.Region)
	assert.Equal(t, "nv_home.png", nv.Image)
	assert.False(t, nv.HasEnhanced(), "fallback rows carry only minimal fields")
}

func TestLoadShortRowFallsBack(t *testing.T) {
	input := "region,title,image,category,rarity\nAZ,Grand Canyon,az.png\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Fallbacks)
	assert.Empty(t, res.Records[0].Category)
}

func TestLoadMinimalOnly(t *testing.T) {
	input := "Region,Title,Image\n ca ,Sequoia,seq.png\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, SchemaMinimal, res.Schema)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "CA", rec.Region)
	assert.False(t, rec.HasEnhanced())
	assert.Nil(t, rec.Confidence)
	assert.Nil(t, rec.VisualElements)
}

func TestLoadSkipsRowMissingRequiredValue(t *testing.T) {
	input := "region,title,image\nCA,Sequoia,\nOR,Tree,or.png\n,Nowhere,x.png\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "OR", res.Records[0].Region)
	assert.Len(t, res.Skipped, 2)
}

func TestLoadDropsDuplicates(t *testing.T) {
	input := "region,title,image\nCA,Sequoia,a.png\nca,SEQUOIA,b.png\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "a.png", res.Records[0].Image)
	assert.Equal(t, 1, res.Duplicates)
}

func TestLoadIgnoresBlankAndCommentLines(t *testing.T) {
	input := "region,title,image\n# comment\n\nCA,Sequoia,a.png\n,,\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Len(t, res.Records, 1)
}

func TestLoadMalformedQuoteIsRowLevel(t *testing.T) {
	input := "region,title,image\nCA,\"Seq\"uoia,a.png\nOR,Tree,b.png\n"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "OR", res.Records[0].Region)
	assert.Len(t, res.Skipped, 1)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty catalog"},
		{"missing image column", "region,title\nCA,Sequoia\n", "missing required column image"},
		{"no usable rows", "region,title,image\nCA,,\n", "no usable rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
