package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"photodup/internal/index"
)

func TestFromRecordOmitsUnknownDimensions(t *testing.T) {
	rec := index.Record{
		ID:        7,
		RelPath:   "2024/a.jpg",
		Name:      "a.jpg",
		SizeBytes: 123,
		ModTime:   time.Date(2024, 6, 1, 12, 30, 45, 0, time.Local),
	}
	info := FromRecord(rec)
	if info.Width != nil || info.Height != nil {
		t.Fatalf("expected nil dimensions, got %+v", info)
	}
	if info.MTimeISO != "2024-06-01T12:30:45" {
		t.Fatalf("unexpected mtime: %q", info.MTimeISO)
	}

	raw, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"width":null`) {
		t.Fatalf("expected explicit null width, got %s", raw)
	}
}

func TestFromPageAlwaysEncodesArray(t *testing.T) {
	page := FromPage(index.Page{NextCursor: 4, Done: true, TotalPairs: 4})
	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"pairs":[]`) {
		t.Fatalf("expected empty array, got %s", raw)
	}
}

func TestFromGroupViewDone(t *testing.T) {
	raw, err := json.Marshal(FromGroupView(index.GroupView{Done: true}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"done":true}` {
		t.Fatalf("unexpected done payload: %s", raw)
	}
}
