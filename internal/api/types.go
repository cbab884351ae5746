package api

// mtimeFormat renders modification times at second precision, matching the
// values clients display next to each photo.
const mtimeFormat = "2006-01-02T15:04:05"

// FileInfo describes one indexed photo in a transport-friendly format.
// Width and Height are null when the dimensions could not be sniffed.
type FileInfo struct {
	ID        int    `json:"id"`
	RelPath   string `json:"relpath"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MTimeISO  string `json:"mtime_iso"`
	Width     *int   `json:"width"`
	Height    *int   `json:"height"`
}

// Pair is one duplicate candidate: the canonical base on the left and the
// suspected copy on the right. PairID is the pair's stable index in the
// generation's pair list.
type Pair struct {
	PairID   int      `json:"pair_id"`
	GroupKey string   `json:"group_key"`
	Left     FileInfo `json:"left"`
	Right    FileInfo `json:"right"`
}

// PairsPage is the response of a cursor read over the pair list.
type PairsPage struct {
	Pairs      []Pair `json:"pairs"`
	NextCursor int    `json:"next_cursor"`
	Done       bool   `json:"done"`
	TotalPairs int    `json:"total_candidate_pairs"`
}

// CurrentGroup is the single-group navigation view. All fields except Done
// are omitted once the group cursor is exhausted.
type CurrentGroup struct {
	Done       bool      `json:"done"`
	GroupKey   string    `json:"group_key,omitempty"`
	GroupIndex int       `json:"group_index,omitempty"`
	GroupCount int       `json:"group_count,omitempty"`
	Left       *FileInfo `json:"left,omitempty"`
	Right      *FileInfo `json:"right,omitempty"`
}

// Subfolders lists the selectable scan scopes. Current is null when the
// whole root is being reviewed.
type Subfolders struct {
	Subfolders []string `json:"subfolders"`
	Current    *string  `json:"current"`
}

// DeleteResult acknowledges a successful delete.
type DeleteResult struct {
	OK        bool `json:"ok"`
	DeletedID int  `json:"deleted_id"`
}

// SetSubfolderResult acknowledges a scan-scope change.
type SetSubfolderResult struct {
	OK        bool   `json:"ok"`
	Subfolder string `json:"subfolder"`
}

// UndoResult acknowledges restoring the most recently trashed file.
type UndoResult struct {
	OK       bool   `json:"ok"`
	Restored string `json:"restored"`
}

// Status summarizes the live index generation and the delete mode in effect.
type Status struct {
	Root            string `json:"root"`
	Generation      string `json:"generation"`
	Subfolder       string `json:"subfolder"`
	Records         int    `json:"records"`
	Groups          int    `json:"groups"`
	TotalPairs      int    `json:"total_candidate_pairs"`
	PermanentDelete bool   `json:"permanent_delete"`
}

// Error is the uniform error payload.
type Error struct {
	Message string `json:"error"`
}
