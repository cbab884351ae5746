package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photodup/internal/config"
	"photodup/internal/index"
	"photodup/internal/testsupport"
)

type fsRemover struct {
	fail    bool
	removed []string
}

func (r *fsRemover) Remove(_ context.Context, absPath, relPath string) error {
	if r.fail {
		return errors.New("remover failure")
	}
	if err := os.Remove(absPath); err != nil {
		return err
	}
	r.removed = append(r.removed, relPath)
	return nil
}

func newCatalog(t *testing.T, opts ...testsupport.ConfigOption) (*index.Catalog, *config.Config, *fsRemover) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	remover := &fsRemover{}
	return index.New(cfg, remover, nil), cfg, remover
}

func rebuild(t *testing.T, catalog *index.Catalog) {
	t.Helper()
	if err := catalog.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
}

func TestRebuildPrefersUnsuffixedBase(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	year := filepath.Join(cfg.Paths.Root, "2024")
	img := testsupport.PNGBytes(640, 480)
	testsupport.WriteFile(t, filepath.Join(year, "2E1B4361 (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(year, "2E1B4361 (3).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(year, "2E1B4361.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(year, "other.jpg"), img)
	rebuild(t, catalog)

	page := catalog.PairsPage(0, 10)
	if page.TotalPairs != 2 {
		t.Fatalf("expected 2 candidate pairs, got %d", page.TotalPairs)
	}
	if len(page.Pairs) != 2 {
		t.Fatalf("expected 2 live pairs, got %d", len(page.Pairs))
	}
	for _, pair := range page.Pairs {
		if pair.Base.Name != "2E1B4361.jpg" {
			t.Fatalf("expected unsuffixed base, got %q", pair.Base.Name)
		}
	}
	if page.Pairs[0].Other.Name != "2E1B4361 (2).jpg" || page.Pairs[1].Other.Name != "2E1B4361 (3).jpg" {
		t.Fatalf("unexpected pair order: %q, %q", page.Pairs[0].Other.Name, page.Pairs[1].Other.Name)
	}
	if !page.Done {
		t.Fatal("expected done with limit above pair count")
	}
}

func TestRebuildFallsBackToFirstNameAsBase(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(100, 100)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A (3).jpg"), img)
	rebuild(t, catalog)

	page := catalog.PairsPage(0, 10)
	if len(page.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(page.Pairs))
	}
	if page.Pairs[0].Base.Name != "A (2).jpg" || page.Pairs[0].Other.Name != "A (3).jpg" {
		t.Fatalf("unexpected pair: %+v", page.Pairs[0])
	}
}

func TestPairsNeverCrossFolders(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(800, 600)
	for _, folder := range []string{"2023", "2024"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, folder, "A.jpg"), img)
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, folder, "A (2).jpg"), img)
	}
	rebuild(t, catalog)

	page := catalog.PairsPage(0, 50)
	if page.TotalPairs != 2 {
		t.Fatalf("expected one pair per folder, got %d", page.TotalPairs)
	}
	for _, pair := range page.Pairs {
		baseDir := filepath.Dir(pair.Base.RelPath)
		otherDir := filepath.Dir(pair.Other.RelPath)
		if baseDir != otherDir {
			t.Fatalf("pair crosses folders: %q vs %q", pair.Base.RelPath, pair.Other.RelPath)
		}
	}
}

func TestHiddenAndTrashDirectoriesIgnored(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(10, 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, ".hidden", "X.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, ".hidden", "X (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.TrashDir(), "Y.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.TrashDir(), "Y (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, ".DS_Store.jpg"), img)
	rebuild(t, catalog)

	if stats := catalog.Stats(); stats.Records != 0 {
		t.Fatalf("expected no records, got %d", stats.Records)
	}
}

func TestAspectRatioFilter(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B.png"), testsupport.PNGBytes(10000, 10000))
	// Within 0.1% relative tolerance of the base's 1.0 ratio.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B (2).png"), testsupport.PNGBytes(10001, 10000))
	// Resized copy with the identical ratio.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B (3).png"), testsupport.PNGBytes(500, 500))
	// Well outside tolerance: a different photo that shares the name key.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B (4).png"), testsupport.PNGBytes(1600, 900))
	rebuild(t, catalog)

	page := catalog.PairsPage(0, 10)
	if page.TotalPairs != 2 {
		t.Fatalf("expected 2 pairs after aspect filtering, got %d", page.TotalPairs)
	}
	for _, pair := range page.Pairs {
		if pair.Other.Name == "B (4).png" {
			t.Fatal("wide-aspect candidate should have been filtered")
		}
	}
}

func TestUnknownDimensionsSuppressPairing(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	junk := []byte("not an image, just named like one, long enough to probe")

	// Base sniff fails: the whole group is suppressed.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "C.jpg"), junk)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "C (2).jpg"), testsupport.PNGBytes(10, 10))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "C (3).jpg"), testsupport.PNGBytes(10, 10))

	// One candidate sniff fails: only that candidate is skipped.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "D.jpg"), testsupport.PNGBytes(20, 20))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "D (2).jpg"), junk)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "D (3).jpg"), testsupport.PNGBytes(40, 40))
	rebuild(t, catalog)

	page := catalog.PairsPage(0, 10)
	if page.TotalPairs != 1 {
		t.Fatalf("expected exactly 1 pair, got %d", page.TotalPairs)
	}
	pair := page.Pairs[0]
	if pair.Base.Name != "D.jpg" || pair.Other.Name != "D (3).jpg" {
		t.Fatalf("unexpected pair: base=%q other=%q", pair.Base.Name, pair.Other.Name)
	}
	if stats := catalog.Stats(); stats.Groups != 2 {
		t.Fatalf("suppressed groups still count as groups, got %d", stats.Groups)
	}
}

func TestDeletionKeepsCursorStable(t *testing.T) {
	catalog, cfg, remover := newCatalog(t)
	img := testsupport.PNGBytes(30, 30)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A (2).jpg"), img)
	rebuild(t, catalog)

	before := catalog.PairsPage(0, 10)
	if len(before.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(before.Pairs))
	}
	otherID := before.Pairs[0].Other.ID

	if err := catalog.Delete(context.Background(), otherID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(remover.removed) != 1 || remover.removed[0] != "A (2).jpg" {
		t.Fatalf("unexpected remover calls: %v", remover.removed)
	}

	after := catalog.PairsPage(0, 10)
	if len(after.Pairs) != 0 || !after.Done {
		t.Fatalf("expected empty final page, got %+v", after)
	}
	if after.TotalPairs != before.TotalPairs {
		t.Fatalf("TotalPairs changed: %d -> %d", before.TotalPairs, after.TotalPairs)
	}

	if err := catalog.Delete(context.Background(), otherID); !errors.Is(err, index.ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID on double delete, got %v", err)
	}
	if _, err := catalog.RecordPath(otherID); !errors.Is(err, index.ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID from RecordPath, got %v", err)
	}
}

func TestDeleteFailureLeavesIndexIntact(t *testing.T) {
	catalog, cfg, remover := newCatalog(t)
	img := testsupport.PNGBytes(30, 30)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A (2).jpg"), img)
	rebuild(t, catalog)

	id := catalog.PairsPage(0, 10).Pairs[0].Other.ID
	remover.fail = true
	if err := catalog.Delete(context.Background(), id); err == nil {
		t.Fatal("expected delete to fail")
	}
	if len(catalog.PairsPage(0, 10).Pairs) != 1 {
		t.Fatal("failed delete must not mutate the index")
	}
	if view := catalog.CurrentGroup(); view.Done {
		t.Fatal("group should still be active after failed delete")
	}
}

func TestPairsPageClampsAndAdvances(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(50, 50)
	for _, stem := range []string{"A", "B", "C"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, stem+".jpg"), img)
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, stem+" (2).jpg"), img)
	}
	rebuild(t, catalog)

	page := catalog.PairsPage(-5, 0)
	if len(page.Pairs) != 1 {
		t.Fatalf("limit below 1 must clamp to 1, got %d pairs", len(page.Pairs))
	}
	if page.NextCursor != 1 || page.Done {
		t.Fatalf("unexpected cursor state: %+v", page)
	}

	second := catalog.PairsPage(page.NextCursor, 500)
	if len(second.Pairs) != 2 || !second.Done {
		t.Fatalf("expected remaining 2 pairs and done, got %+v", second)
	}
	if second.NextCursor != 3 {
		t.Fatalf("expected NextCursor at list end, got %d", second.NextCursor)
	}

	beyond := catalog.PairsPage(99, 10)
	if len(beyond.Pairs) != 0 || !beyond.Done || beyond.TotalPairs != 3 {
		t.Fatalf("unexpected page past the end: %+v", beyond)
	}
}

func TestGroupCursorSkipsShrunkenGroups(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(60, 60)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "A (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "B (2).jpg"), img)
	rebuild(t, catalog)

	view := catalog.CurrentGroup()
	if view.Done || view.Label != "a" || view.Index != 1 || view.Count != 2 {
		t.Fatalf("unexpected first group view: %+v", view)
	}
	if view.Left.Name != "A (2).jpg" || view.Right.Name != "A.jpg" {
		t.Fatalf("unexpected member order: %+v", view)
	}

	// Shrinking the first group below two members auto-advances the cursor.
	if err := catalog.Delete(context.Background(), view.Left.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	view = catalog.CurrentGroup()
	if view.Done || view.Label != "b" {
		t.Fatalf("expected auto-advance to group b, got %+v", view)
	}

	view = catalog.SkipGroup()
	if !view.Done {
		t.Fatalf("expected done after skipping last group, got %+v", view)
	}
}

func TestSetSubfolderScopesScan(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(70, 70)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2023", "A.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2023", "A (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "B.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "B (2).jpg"), img)
	rebuild(t, catalog)

	if stats := catalog.Stats(); stats.Pairs != 2 {
		t.Fatalf("expected 2 pairs across folders, got %d", stats.Pairs)
	}

	if err := catalog.SetSubfolder(context.Background(), "2024"); err != nil {
		t.Fatalf("SetSubfolder: %v", err)
	}
	stats := catalog.Stats()
	if stats.Pairs != 1 || stats.Subfolder != "2024" {
		t.Fatalf("unexpected scoped stats: %+v", stats)
	}
	page := catalog.PairsPage(0, 10)
	if page.Pairs[0].Base.Name != "B.jpg" {
		t.Fatalf("expected only 2024 content, got %+v", page.Pairs[0])
	}

	if err := catalog.SetSubfolder(context.Background(), "missing"); !errors.Is(err, index.ErrInvalidSubfolder) {
		t.Fatalf("expected ErrInvalidSubfolder, got %v", err)
	}
	if err := catalog.SetSubfolder(context.Background(), "../escape"); !errors.Is(err, index.ErrInvalidSubfolder) {
		t.Fatalf("expected ErrInvalidSubfolder for traversal, got %v", err)
	}
	if got := catalog.Subfolder(); got != "2024" {
		t.Fatalf("invalid request must not change scope, got %q", got)
	}

	if err := catalog.SetSubfolder(context.Background(), ""); err != nil {
		t.Fatalf("SetSubfolder back to root: %v", err)
	}
	if stats := catalog.Stats(); stats.Pairs != 2 {
		t.Fatalf("expected full scan again, got %+v", stats)
	}
}

func TestListSubfolders(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	img := testsupport.PNGBytes(10, 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2023", "a.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "b.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, ".cache", "c.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.TrashDir(), "d.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "loose.jpg"), img)

	names, err := catalog.ListSubfolders()
	if err != nil {
		t.Fatalf("ListSubfolders: %v", err)
	}
	if len(names) != 2 || names[0] != "2023" || names[1] != "2024" {
		t.Fatalf("unexpected subfolders: %v", names)
	}
}

func TestRecordMetadata(t *testing.T) {
	catalog, cfg, _ := newCatalog(t)
	data := testsupport.GIFBytes(320, 200)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "anim.gif"), data)
	rebuild(t, catalog)

	stats := catalog.Stats()
	if stats.Records != 1 || stats.Generation == "" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	rec, err := catalog.Record(0)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.RelPath != "2024/anim.gif" || rec.Name != "anim.gif" {
		t.Fatalf("unexpected record paths: %+v", rec)
	}
	if !rec.HasDims || rec.Width != 320 || rec.Height != 200 {
		t.Fatalf("unexpected dims: %+v", rec)
	}
	if rec.SizeBytes != int64(len(data)) {
		t.Fatalf("unexpected size: %d", rec.SizeBytes)
	}
	if rec.ModTime.IsZero() {
		t.Fatal("expected modified time")
	}

	gen := stats.Generation
	rebuild(t, catalog)
	if catalog.Stats().Generation == gen {
		t.Fatal("expected a fresh generation id per rebuild")
	}
}
