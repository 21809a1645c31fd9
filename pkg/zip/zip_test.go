package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveAssets(t *testing.T) {
	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := ArchiveAssets([]Asset{
		{Filename: "linkedin-20250301-120000.png", MIME: "image/png", Data: []byte("one")},
		{Filename: "blog-20250301-120000.png", MIME: "image/png", Data: []byte("two")},
	}, modified)
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("files = %d, want 2", len(zr.File))
	}
	f, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer f.Close()
	body, _ := io.ReadAll(f)
	if zr.File[1].Name != "blog-20250301-120000.png" || string(body) != "two" {
		t.Fatalf("entry = %s %q", zr.File[1].Name, body)
	}
}

func TestArchiveAssetsRejectsBadInput(t *testing.T) {
	tests := map[string][]Asset{
		"empty":     nil,
		"no name":   {{Data: []byte("x")}},
		"duplicate": {{Filename: "a.png"}, {Filename: "a.png"}},
	}
	for name, assets := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ArchiveAssets(assets, time.Now()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
