package index

import "time"

// Record is one indexed image file. IDs are dense integers assigned in
// sorted discovery order and are never reused within one index generation.
type Record struct {
	ID        int
	RelPath   string
	Name      string
	SizeBytes int64
	ModTime   time.Time
	Width     int
	Height    int
	// HasDims is false when the header sniffer could not determine the
	// pixel dimensions. Such records are excluded from aspect-filtered
	// pairing but still indexed and deletable.
	HasDims bool
}

// aspect returns width/height when both dimensions are known and usable.
func (r Record) aspect() (float64, bool) {
	if !r.HasDims || r.Width <= 0 || r.Height <= 0 {
		return 0, false
	}
	return float64(r.Width) / float64(r.Height), true
}

// Group is an ordered set of record ids sharing a folder and normalized name
// key. Membership shrinks as records are deleted; a group is only a duplicate
// candidate while it holds at least two ids.
type Group struct {
	Label string
	IDs   []int
}

// Pair is one duplicate candidate: a canonical base record and one other
// group member that passed the aspect-ratio filter. The pair list is
// immutable once built; a pair's position in it is its durable pair id.
type Pair struct {
	BaseID     int
	OtherID    int
	GroupLabel string
}

// PagedPair is a pair resolved against the live record set for one page.
type PagedPair struct {
	PairID     int
	GroupLabel string
	Base       Record
	Other      Record
}

// Page is the result of a stable cursor read over the pair list.
type Page struct {
	Pairs      []PagedPair
	NextCursor int
	Done       bool
	// TotalPairs counts every pair built for this generation, including
	// entries that have since been invalidated by deletions.
	TotalPairs int
}

// GroupView is the legacy single-group cursor read model.
type GroupView struct {
	Done  bool
	Label string
	// Index is 1-based for display; Count is the total group count.
	Index int
	Count int
	Left  Record
	Right Record
}

// Stats summarizes the current generation for status reporting.
type Stats struct {
	Generation string
	Subfolder  string
	Records    int
	Groups     int
	Pairs      int
}
