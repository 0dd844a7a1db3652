package objectstore

import "testing"

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"uploads/1700000000000-abc123.PNG": "image/png",
		"uploads/clip.mp4?x=1":             "video/mp4",
		"uploads/poster.webp":              "image/webp",
		"uploads/readme":                   "",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
