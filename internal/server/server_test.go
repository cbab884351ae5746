package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"photodup/internal/api"
	"photodup/internal/config"
	"photodup/internal/index"
	"photodup/internal/server"
	"photodup/internal/testsupport"
	"photodup/internal/trash"
)

type fixture struct {
	cfg *config.Config
	ts  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	img := testsupport.PNGBytes(640, 480)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "A.jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2024", "A (2).jpg"), img)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Root, "2023", "B.jpg"), img)

	bin, err := trash.NewBin(cfg, nil)
	if err != nil {
		t.Fatalf("NewBin: %v", err)
	}
	t.Cleanup(func() { _ = bin.Close() })

	catalog := index.New(cfg, bin, nil)
	if err := catalog.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	srv, err := server.New(cfg, catalog, bin, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{cfg: cfg, ts: ts}
}

func (f *fixture) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return res
}

func (f *fixture) post(t *testing.T, path string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	res, err := http.Post(f.ts.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return res
}

func TestPairsEndpoint(t *testing.T) {
	f := newFixture(t)

	var page api.PairsPage
	res := f.get(t, "/api/pairs?cursor=0&limit=10", &page)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if len(page.Pairs) != 1 || page.TotalPairs != 1 || !page.Done {
		t.Fatalf("unexpected page: %+v", page)
	}
	pair := page.Pairs[0]
	if pair.GroupKey != "2024 / a" {
		t.Fatalf("unexpected group key %q", pair.GroupKey)
	}
	if pair.Left.Name != "A.jpg" || pair.Right.Name != "A (2).jpg" {
		t.Fatalf("unexpected pair sides: %+v", pair)
	}
	if pair.Left.Width == nil || *pair.Left.Width != 640 {
		t.Fatalf("unexpected left width: %+v", pair.Left)
	}

	if res := f.get(t, "/api/pairs?cursor=bogus", nil); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", res.StatusCode)
	}
}

func TestDeleteAndUndoFlow(t *testing.T) {
	f := newFixture(t)

	var page api.PairsPage
	f.get(t, "/api/pairs", &page)
	dupe := page.Pairs[0].Right

	var deleted api.DeleteResult
	res := f.post(t, "/api/delete", map[string]int{"id": dupe.ID}, &deleted)
	if res.StatusCode != http.StatusOK || !deleted.OK || deleted.DeletedID != dupe.ID {
		t.Fatalf("unexpected delete response %d %+v", res.StatusCode, deleted)
	}
	trashed := filepath.Join(f.cfg.TrashDir(), filepath.FromSlash(dupe.RelPath))
	if _, err := os.Stat(trashed); err != nil {
		t.Fatalf("expected trashed file: %v", err)
	}

	if res := f.post(t, "/api/delete", map[string]int{"id": dupe.ID}, nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on double delete, got %d", res.StatusCode)
	}
	if res := f.post(t, "/api/delete", map[string]string{}, nil); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", res.StatusCode)
	}

	var undo api.UndoResult
	res = f.post(t, "/api/undo", nil, &undo)
	if res.StatusCode != http.StatusOK || undo.Restored != dupe.RelPath {
		t.Fatalf("unexpected undo response %d %+v", res.StatusCode, undo)
	}
	f.get(t, "/api/pairs", &page)
	if len(page.Pairs) != 1 {
		t.Fatalf("expected pair back after undo, got %+v", page)
	}

	if res := f.post(t, "/api/undo", nil, nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on empty journal, got %d", res.StatusCode)
	}
}

func TestSubfolderEndpoints(t *testing.T) {
	f := newFixture(t)

	var folders api.Subfolders
	f.get(t, "/api/subfolders", &folders)
	if len(folders.Subfolders) != 2 || folders.Subfolders[0] != "2023" || folders.Subfolders[1] != "2024" {
		t.Fatalf("unexpected subfolders: %+v", folders)
	}
	if folders.Current != nil {
		t.Fatalf("expected null current scope, got %q", *folders.Current)
	}

	var set api.SetSubfolderResult
	res := f.post(t, "/api/set-subfolder", map[string]string{"subfolder": "2023"}, &set)
	if res.StatusCode != http.StatusOK || set.Subfolder != "2023" {
		t.Fatalf("unexpected set-subfolder response %d %+v", res.StatusCode, set)
	}
	var page api.PairsPage
	f.get(t, "/api/pairs", &page)
	if page.TotalPairs != 0 {
		t.Fatalf("2023 has no duplicates, got %+v", page)
	}

	if res := f.post(t, "/api/set-subfolder", map[string]string{"subfolder": "nope"}, nil); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown subfolder, got %d", res.StatusCode)
	}
}

func TestCurrentAndSkip(t *testing.T) {
	f := newFixture(t)

	var current api.CurrentGroup
	f.get(t, "/api/current", &current)
	if current.Done || current.GroupKey != "2024 / a" || current.Left == nil {
		t.Fatalf("unexpected current group: %+v", current)
	}

	f.post(t, "/api/skip", nil, &current)
	if !current.Done {
		t.Fatalf("expected done after skipping the only group: %+v", current)
	}

	if res := f.get(t, "/api/skip", nil); res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET skip, got %d", res.StatusCode)
	}
}

func TestImageAndStatus(t *testing.T) {
	f := newFixture(t)

	var page api.PairsPage
	f.get(t, "/api/pairs", &page)
	id := page.Pairs[0].Left.ID

	res, err := http.Get(f.ts.URL + fmt.Sprintf("/img/%d", id))
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected image status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if res := f.get(t, "/img/9999", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown image, got %d", res.StatusCode)
	}

	var status api.Status
	f.get(t, "/api/status", &status)
	if status.Records != 3 || status.TotalPairs != 1 || status.Generation == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Root != f.cfg.Paths.Root || status.PermanentDelete {
		t.Fatalf("unexpected status config echo: %+v", status)
	}
}
