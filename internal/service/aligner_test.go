package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-portfolio/internal/model"
)

func ts(dayOffset int) int64 {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset).Unix()
}

func series(symbol string, dayOffsets []int, closes []float64) *model.PriceSeries {
	timestamps := make([]int64, len(dayOffsets))
	for i, offset := range dayOffsets {
		timestamps[i] = ts(offset)
	}
	return &model.PriceSeries{
		Symbol:     symbol,
		Timestamps: timestamps,
		Open:       closes,
		High:       closes,
		Low:        closes,
		Close:      closes,
	}
}

func TestNewSeriesAligner_Validation(t *testing.T) {
	tests := []struct {
		name   string
		series map[string]*model.PriceSeries
	}{
		{
			name:   "empty series",
			series: map[string]*model.PriceSeries{"VTI": {Symbol: "VTI"}},
		},
		{
			name: "mismatched parallel arrays",
			series: map[string]*model.PriceSeries{
				"VTI": {Symbol: "VTI", Timestamps: []int64{1, 2, 3}, Close: []float64{100}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeriesAligner(tt.series)
			var validationErr *model.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestSeriesAligner_CommonRange(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"VTI":  series("VTI", []int{0, 10, 20, 30}, []float64{100, 101, 102, 103}),
		"SCHD": series("SCHD", []int{5, 15, 25}, []float64{70, 71, 72}),
	})
	require.NoError(t, err)

	start, end, err := aligner.CommonRange([]string{"VTI", "SCHD"})
	require.NoError(t, err)
	assert.Equal(t, ts(5), start, "max of first timestamps")
	assert.Equal(t, ts(25), end, "min of last timestamps")
}

func TestSeriesAligner_CommonRange_NoOverlap(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"OLD": series("OLD", []int{0, 1}, []float64{1, 2}),
		"NEW": series("NEW", []int{100, 101}, []float64{3, 4}),
	})
	require.NoError(t, err)

	_, _, err = aligner.CommonRange([]string{"OLD", "NEW"})
	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSeriesAligner_CommonRange_UnknownSymbol(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"VTI": series("VTI", []int{0, 1}, []float64{100, 101}),
	})
	require.NoError(t, err)

	_, _, err = aligner.CommonRange([]string{"VTI", "MISSING"})
	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSeriesAligner_CeilingPrice(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"VTI": series("VTI", []int{0, 10, 20}, []float64{100, 110, 120}),
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		at        int64
		wantPrice float64
		wantFound bool
	}{
		{name: "exact timestamp", at: ts(10), wantPrice: 110, wantFound: true},
		{name: "between timestamps rounds up", at: ts(5), wantPrice: 110, wantFound: true},
		{name: "before first timestamp", at: ts(-5), wantPrice: 100, wantFound: true},
		{name: "past last timestamp", at: ts(25), wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, found := aligner.CeilingPrice("VTI", tt.at)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantPrice, price)
			}
		})
	}
}

func TestSeriesAligner_SortsUnorderedInput(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"VTI": {
			Symbol:     "VTI",
			Timestamps: []int64{ts(20), ts(0), ts(10)},
			Close:      []float64{120, 100, 110},
		},
	})
	require.NoError(t, err)

	price, found := aligner.CeilingPrice("VTI", ts(5))
	require.True(t, found)
	assert.Equal(t, 110.0, price, "parallel arrays stay aligned after reordering")
}

func TestSeriesAligner_UnionTimestamps(t *testing.T) {
	aligner, err := NewSeriesAligner(map[string]*model.PriceSeries{
		"VTI":  series("VTI", []int{0, 10, 20}, []float64{100, 110, 120}),
		"SCHD": series("SCHD", []int{5, 10, 25}, []float64{70, 71, 72}),
	})
	require.NoError(t, err)

	union := aligner.UnionTimestamps([]string{"VTI", "SCHD"}, ts(0), ts(20))

	assert.Equal(t, []int64{ts(0), ts(5), ts(10), ts(20)}, union, "sorted, deduplicated, clipped to window")
}
