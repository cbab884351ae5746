package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photodup/internal/config"
	"photodup/internal/imagemeta"
	"photodup/internal/logging"
)

// ErrUnknownID reports a record id that is absent from the live index, either
// because it never existed in this generation or because it was deleted.
var ErrUnknownID = errors.New("unknown record id")

// ErrInvalidSubfolder reports a scan-scope request that does not name an
// indexable immediate child of the root.
var ErrInvalidSubfolder = errors.New("invalid subfolder")

const (
	minPageLimit = 1
	maxPageLimit = 200
)

// Remover performs the filesystem side of a record deletion. absPath is the
// file's current location; relPath is its path relative to the scan root,
// which trash implementations mirror.
type Remover interface {
	Remove(ctx context.Context, absPath, relPath string) error
}

// Catalog owns all generation-scoped index state: the live record map, the
// group list, the immutable pair list, and the legacy group cursor. One
// mutex covers rebuilds, paged reads, and deletions so no reader ever
// observes a partially built generation.
type Catalog struct {
	root         string
	trashDirName string
	exts         map[string]struct{}
	remover      Remover
	logger       *slog.Logger

	mu        sync.Mutex
	subfolder string
	snap      *snapshot
	groupIdx  int
}

// New creates an empty catalog for the configured root. Call Rebuild to
// populate it.
func New(cfg *config.Config, remover Remover, logger *slog.Logger) *Catalog {
	return &Catalog{
		root:         cfg.Paths.Root,
		trashDirName: cfg.Paths.TrashDirName,
		exts:         cfg.ExtensionSet(),
		remover:      remover,
		logger:       logging.WithComponent(logger, "index"),
		subfolder:    cfg.Scan.Subfolder,
		snap:         emptySnapshot(),
	}
}

// Rebuild discards the current generation and indexes the scan scope from
// scratch. The new snapshot is built outside the lock and swapped in
// atomically; concurrent readers see the previous generation until the swap.
func (c *Catalog) Rebuild(ctx context.Context) error {
	c.mu.Lock()
	scanRoot, err := c.scanRootLocked(c.subfolder)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	started := time.Now()
	paths, err := collectImagePaths(ctx, scanRoot, c.trashDirName, c.exts)
	if err != nil {
		return err
	}
	snap := buildSnapshot(c.root, paths, imagemeta.Sniff)

	c.mu.Lock()
	c.snap = snap
	c.groupIdx = 0
	c.mu.Unlock()

	c.logger.Info("index rebuilt",
		logging.String("generation", snap.generation),
		logging.String("scan_root", scanRoot),
		logging.Int("records", len(snap.records)),
		logging.Int("groups", len(snap.groups)),
		logging.Int("pairs", len(snap.pairs)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// SetSubfolder validates the requested scan scope and rebuilds the index for
// it. An empty name selects the whole root. Invalid requests leave the
// current generation untouched.
func (c *Catalog) SetSubfolder(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	c.mu.Lock()
	if _, err := c.scanRootLocked(name); err != nil {
		c.mu.Unlock()
		return err
	}
	previous := c.subfolder
	c.subfolder = name
	c.mu.Unlock()

	if err := c.Rebuild(ctx); err != nil {
		c.mu.Lock()
		c.subfolder = previous
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Catalog) scanRootLocked(subfolder string) (string, error) {
	if subfolder == "" {
		return c.root, nil
	}
	if strings.ContainsAny(subfolder, `/\`) || subfolder == ".." ||
		strings.HasPrefix(subfolder, ".") || subfolder == c.trashDirName {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubfolder, subfolder)
	}
	path := filepath.Join(c.root, subfolder)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubfolder, subfolder)
	}
	return path, nil
}

// Subfolder returns the currently selected scan scope ("" = whole root).
func (c *Catalog) Subfolder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subfolder
}

// ListSubfolders returns the sorted immediate child directories of the root,
// excluding hidden entries and the trash directory.
func (c *Catalog) ListSubfolders() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == c.trashDirName {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// PairsPage scans the immutable pair list starting at cursor and collects up
// to limit pairs whose records are both still live. Deleted entries are
// skipped but still advance the cursor, so repeated calls with the returned
// NextCursor make monotonic forward progress.
func (c *Catalog) PairsPage(cursor, limit int) Page {
	if limit < minPageLimit {
		limit = minPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if cursor < 0 {
		cursor = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []PagedPair
	i := cursor
	for i < len(c.snap.pairs) && len(out) < limit {
		pair := c.snap.pairs[i]
		pairID := i
		i++
		base, baseLive := c.snap.records[pair.BaseID]
		other, otherLive := c.snap.records[pair.OtherID]
		if !baseLive || !otherLive {
			continue
		}
		out = append(out, PagedPair{
			PairID:     pairID,
			GroupLabel: pair.GroupLabel,
			Base:       base,
			Other:      other,
		})
	}

	return Page{
		Pairs:      out,
		NextCursor: i,
		Done:       i >= len(c.snap.pairs),
		TotalPairs: len(c.snap.pairs),
	}
}

// CurrentGroup returns the legacy group-cursor view, auto-advancing past
// groups that have dropped below two live members.
func (c *Catalog) CurrentGroup() GroupView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentGroupLocked()
}

// SkipGroup advances the legacy cursor one group and returns the new view.
func (c *Catalog) SkipGroup() GroupView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groupIdx++
	return c.currentGroupLocked()
}

func (c *Catalog) currentGroupLocked() GroupView {
	for c.groupIdx < len(c.snap.groups) && len(c.snap.groups[c.groupIdx].IDs) < 2 {
		c.groupIdx++
	}
	if c.groupIdx >= len(c.snap.groups) {
		return GroupView{Done: true}
	}
	group := c.snap.groups[c.groupIdx]
	return GroupView{
		Label: group.Label,
		Index: c.groupIdx + 1,
		Count: len(c.snap.groups),
		Left:  c.snap.records[group.IDs[0]],
		Right: c.snap.records[group.IDs[1]],
	}
}

// Delete removes id from the live index after the remover's filesystem
// action succeeds. On remover failure the index is left untouched. Pair
// entries referencing id stay in place as tombstones.
func (c *Catalog) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, ok := c.snap.paths[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	rec := c.snap.records[id]

	if err := c.remover.Remove(ctx, path, rec.RelPath); err != nil {
		return fmt.Errorf("remove %s: %w", rec.RelPath, err)
	}

	for gi := range c.snap.groups {
		ids := c.snap.groups[gi].IDs
		for i, member := range ids {
			if member == id {
				c.snap.groups[gi].IDs = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	delete(c.snap.paths, id)
	delete(c.snap.records, id)

	c.logger.Info("record deleted",
		logging.Int("id", id),
		logging.String("relpath", rec.RelPath),
	)
	return nil
}

// RecordPath resolves id to its current on-disk path.
func (c *Catalog) RecordPath(id int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.snap.paths[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return path, nil
}

// Record returns the live record for id.
func (c *Catalog) Record(id int) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.snap.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return rec, nil
}

// Stats summarizes the current generation.
func (c *Catalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Generation: c.snap.generation,
		Subfolder:  c.subfolder,
		Records:    len(c.snap.records),
		Groups:     len(c.snap.groups),
		Pairs:      len(c.snap.pairs),
	}
}
