package index

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"photodup/internal/imagemeta"
	"photodup/internal/naming"
)

// aspectTolerance is the maximum relative difference between the base's and
// a candidate's width/height ratio for the two to count as duplicates.
const aspectTolerance = 0.001

// snapshot is one fully built index generation. All four structures are
// replaced together and the pair list is never reordered afterwards.
type snapshot struct {
	generation string
	paths      map[int]string
	records    map[int]Record
	groups     []Group
	pairs      []Pair
}

func emptySnapshot() *snapshot {
	return &snapshot{
		generation: uuid.NewString(),
		paths:      map[int]string{},
		records:    map[int]Record{},
	}
}

type groupKey struct {
	folder string
	name   string
}

func (k groupKey) label() string {
	if k.folder == "." {
		return k.name
	}
	return k.folder + " / " + k.name
}

// buildSnapshot turns the sorted path listing into records, groups, and the
// immutable candidate-pair list. sniff is injectable for tests.
func buildSnapshot(root string, imagePaths []string, sniff func(string) (imagemeta.Dims, bool)) *snapshot {
	snap := emptySnapshot()

	for id, path := range imagePaths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rec := Record{
			ID:      id,
			RelPath: filepath.ToSlash(rel),
			Name:    filepath.Base(path),
		}
		if info, err := os.Stat(path); err == nil {
			rec.SizeBytes = info.Size()
			rec.ModTime = info.ModTime().Truncate(time.Second)
		}
		if dims, ok := sniff(path); ok {
			rec.Width = dims.Width
			rec.Height = dims.Height
			rec.HasDims = true
		}
		snap.paths[id] = path
		snap.records[id] = rec
	}

	buckets := map[groupKey][]int{}
	for id, path := range imagePaths {
		key := groupKey{
			folder: naming.FolderKey(root, path),
			name:   naming.NameKey(path),
		}
		buckets[key] = append(buckets[key], id)
	}

	for key, ids := range buckets {
		if len(ids) < 2 {
			continue
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return naming.Fold(snap.records[ids[i]].Name) < naming.Fold(snap.records[ids[j]].Name)
		})
		label := key.label()
		snap.groups = append(snap.groups, Group{Label: label, IDs: append([]int(nil), ids...)})
		snap.pairs = append(snap.pairs, pairGroup(snap, key, ids)...)
	}

	sort.Slice(snap.groups, func(i, j int) bool {
		a, b := naming.Fold(snap.groups[i].Label), naming.Fold(snap.groups[j].Label)
		if a != b {
			return a < b
		}
		return snap.groups[i].Label < snap.groups[j].Label
	})
	sort.Slice(snap.pairs, func(i, j int) bool {
		return pairLess(snap, snap.pairs[i], snap.pairs[j])
	})
	return snap
}

// pairGroup selects the group's base record and emits (base, other) pairs
// that pass the aspect-ratio filter. ids must already be in case-insensitive
// name order.
func pairGroup(snap *snapshot, key groupKey, ids []int) []Pair {
	base := ids[0]
	for _, id := range ids {
		stem := naming.Stem(snap.records[id].Name)
		if naming.Fold(stem) == key.name && !naming.HasCopySuffix(stem) {
			base = id
			break
		}
	}

	// A base without known dimensions suppresses the whole group: pairing
	// is conservative when the aspect filter cannot run.
	baseAspect, ok := snap.records[base].aspect()
	if !ok {
		return nil
	}

	label := key.label()
	var pairs []Pair
	for _, other := range ids {
		if other == base {
			continue
		}
		otherAspect, ok := snap.records[other].aspect()
		if !ok {
			continue
		}
		if math.Abs(baseAspect-otherAspect)/baseAspect > aspectTolerance {
			continue
		}
		pairs = append(pairs, Pair{BaseID: base, OtherID: other, GroupLabel: label})
	}
	return pairs
}

func pairLess(snap *snapshot, a, b Pair) bool {
	if la, lb := naming.Fold(a.GroupLabel), naming.Fold(b.GroupLabel); la != lb {
		return la < lb
	}
	if na, nb := naming.Fold(snap.records[a.BaseID].Name), naming.Fold(snap.records[b.BaseID].Name); na != nb {
		return na < nb
	}
	if na, nb := naming.Fold(snap.records[a.OtherID].Name), naming.Fold(snap.records[b.OtherID].Name); na != nb {
		return na < nb
	}
	return a.OtherID < b.OtherID
}
