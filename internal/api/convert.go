package api

import (
	"photodup/internal/index"
)

// FromRecord converts an index record to its API representation.
func FromRecord(rec index.Record) FileInfo {
	info := FileInfo{
		ID:        rec.ID,
		RelPath:   rec.RelPath,
		Name:      rec.Name,
		SizeBytes: rec.SizeBytes,
	}
	if !rec.ModTime.IsZero() {
		info.MTimeISO = rec.ModTime.Format(mtimeFormat)
	}
	if rec.HasDims {
		w, h := rec.Width, rec.Height
		info.Width = &w
		info.Height = &h
	}
	return info
}

// FromPage converts a pair-list page. Pairs is always a non-nil slice so the
// wire form is an empty array rather than null.
func FromPage(page index.Page) PairsPage {
	pairs := make([]Pair, 0, len(page.Pairs))
	for _, pair := range page.Pairs {
		pairs = append(pairs, Pair{
			PairID:   pair.PairID,
			GroupKey: pair.GroupLabel,
			Left:     FromRecord(pair.Base),
			Right:    FromRecord(pair.Other),
		})
	}
	return PairsPage{
		Pairs:      pairs,
		NextCursor: page.NextCursor,
		Done:       page.Done,
		TotalPairs: page.TotalPairs,
	}
}

// FromGroupView converts the single-group navigation view.
func FromGroupView(view index.GroupView) CurrentGroup {
	if view.Done {
		return CurrentGroup{Done: true}
	}
	left := FromRecord(view.Left)
	right := FromRecord(view.Right)
	return CurrentGroup{
		GroupKey:   view.Label,
		GroupIndex: view.Index,
		GroupCount: view.Count,
		Left:       &left,
		Right:      &right,
	}
}

// FromStats converts generation statistics.
func FromStats(stats index.Stats) Status {
	return Status{
		Generation: stats.Generation,
		Subfolder:  stats.Subfolder,
		Records:    stats.Records,
		Groups:     stats.Groups,
		TotalPairs: stats.Pairs,
	}
}
