package service

import (
	"sort"

	"golang-portfolio/internal/model"
)

// symbolIndex is one symbol's price history prepared for fast lookups:
// timestamps ascending, closes parallel, dividends sorted by date.
type symbolIndex struct {
	timestamps []int64
	closes     []float64
	dividends  []model.DividendEvent
}

// SeriesAligner computes the common valid window across symbols and answers
// ceiling lookups (price at the first timestamp >= t) in O(log n).
type SeriesAligner struct {
	symbols map[string]*symbolIndex
}

// NewSeriesAligner indexes the given price series. Series with mismatched
// parallel arrays or no data points are rejected up front.
func NewSeriesAligner(series map[string]*model.PriceSeries) (*SeriesAligner, error) {
	aligner := &SeriesAligner{symbols: make(map[string]*symbolIndex, len(series))}

	for symbol, ps := range series {
		if ps == nil || len(ps.Timestamps) == 0 {
			return nil, model.NewValidationError("price_series", "symbol %s has no data points", symbol)
		}
		if len(ps.Close) != len(ps.Timestamps) {
			return nil, model.NewValidationError("price_series",
				"symbol %s has %d timestamps but %d close prices", symbol, len(ps.Timestamps), len(ps.Close))
		}

		idx := &symbolIndex{
			timestamps: ps.Timestamps,
			closes:     ps.Close,
			dividends:  ps.Dividends,
		}

		// External feeds occasionally deliver out-of-order bars; reorder the
		// parallel arrays through a permutation instead of trusting them.
		if !sort.SliceIsSorted(idx.timestamps, func(i, j int) bool { return idx.timestamps[i] < idx.timestamps[j] }) {
			order := make([]int, len(idx.timestamps))
			for i := range order {
				order[i] = i
			}
			sort.Slice(order, func(i, j int) bool { return idx.timestamps[order[i]] < idx.timestamps[order[j]] })

			ts := make([]int64, len(order))
			cl := make([]float64, len(order))
			for i, from := range order {
				ts[i] = idx.timestamps[from]
				cl[i] = idx.closes[from]
			}
			idx.timestamps = ts
			idx.closes = cl
		}

		if !sort.SliceIsSorted(idx.dividends, func(i, j int) bool { return idx.dividends[i].Date.Before(idx.dividends[j].Date) }) {
			dividends := make([]model.DividendEvent, len(idx.dividends))
			copy(dividends, idx.dividends)
			sort.Slice(dividends, func(i, j int) bool { return dividends[i].Date.Before(dividends[j].Date) })
			idx.dividends = dividends
		}

		aligner.symbols[symbol] = idx
	}

	return aligner, nil
}

// CommonRange returns the window in which every given symbol has data:
// [max over symbols of first timestamp, min over symbols of last timestamp].
func (a *SeriesAligner) CommonRange(symbols []string) (int64, int64, error) {
	if len(symbols) == 0 {
		return 0, 0, model.NewValidationError("symbols", "no symbols to align")
	}

	var start, end int64
	for i, symbol := range symbols {
		idx, ok := a.symbols[symbol]
		if !ok {
			return 0, 0, model.NewValidationError("price_series", "no price series for symbol %s", symbol)
		}
		first := idx.timestamps[0]
		last := idx.timestamps[len(idx.timestamps)-1]
		if i == 0 || first > start {
			start = first
		}
		if i == 0 || last < end {
			end = last
		}
	}

	if start > end {
		return 0, 0, model.NewValidationError("price_series", "symbols share no overlapping date range")
	}
	return start, end, nil
}

// CeilingPrice returns the close price at the first timestamp >= ts for the
// symbol. The second return value is false when no such timestamp exists.
func (a *SeriesAligner) CeilingPrice(symbol string, ts int64) (float64, bool) {
	idx, ok := a.symbols[symbol]
	if !ok {
		return 0, false
	}
	i := sort.Search(len(idx.timestamps), func(i int) bool { return idx.timestamps[i] >= ts })
	if i == len(idx.timestamps) {
		return 0, false
	}
	return idx.closes[i], true
}

// Dividends returns the symbol's dividend events sorted by date.
func (a *SeriesAligner) Dividends(symbol string) []model.DividendEvent {
	idx, ok := a.symbols[symbol]
	if !ok {
		return nil
	}
	return idx.dividends
}

// UnionTimestamps returns the sorted union of all distinct timestamps of the
// given symbols that fall within [start, end].
func (a *SeriesAligner) UnionTimestamps(symbols []string, start, end int64) []int64 {
	seen := make(map[int64]struct{})
	var union []int64
	for _, symbol := range symbols {
		idx, ok := a.symbols[symbol]
		if !ok {
			continue
		}
		from := sort.Search(len(idx.timestamps), func(i int) bool { return idx.timestamps[i] >= start })
		for _, ts := range idx.timestamps[from:] {
			if ts > end {
				break
			}
			if _, dup := seen[ts]; !dup {
				seen[ts] = struct{}{}
				union = append(union, ts)
			}
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
	return union
}
