package lifecycle

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p := objectPath(now, "jpg")
		if !strings.HasPrefix(p, "uploads/1717171717171-") || !strings.HasSuffix(p, ".jpg") {
			t.Fatalf("unexpected path %q", p)
		}
		seen[p] = true
	}
	if len(seen) < 2 {
		t.Fatalf("object paths should vary: %v", seen)
	}
}

func TestExtensionFor(t *testing.T) {
	mt := mimetype.Detect(pngBytes(t))
	cases := map[string]string{
		"Poster.PNG":       "png",
		"photo.jpeg":       "jpeg",
		"noext":            "png",
		"weird.p$g":        "png",
		"long.abcdefghijk": "png",
	}
	for name, want := range cases {
		if got := extensionFor(name, mt); got != want {
			t.Fatalf("extensionFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSpoolAcceptsWithinLimit(t *testing.T) {
	dir := t.TempDir()
	img := pngBytes(t)
	pf, err := spool(dir, PosterSpec().File, "a.png", -1, bytes.NewReader(img))
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	defer pf.remove()
	if pf.size != int64(len(img)) || pf.ext != "png" || pf.contentType != "image/png" {
		t.Fatalf("unexpected pending file: %+v", pf)
	}

	rule := FileRule{MIMEPrefix: "image/", MaxBytes: int64(len(img)) - 1, TypeMessage: "type", SizeMessage: "size"}
	if _, err := spool(dir, rule, "a.png", -1, bytes.NewReader(img)); err == nil {
		t.Fatalf("file one byte over the limit accepted")
	}
}
