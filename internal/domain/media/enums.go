package media

import (
	"fmt"
	"strings"
)

// Page is the public page a media asset may appear on.
type Page string

const (
	PageHome    Page = "home"
	PageService Page = "service"
	PageAbout   Page = "about"
)

func Pages() []Page { return []Page{PageHome, PageService, PageAbout} }

func ParsePage(raw string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PageHome, PageService, PageAbout:
		return p, nil
	default:
		return "", fmt.Errorf("unknown page assignment %q", raw)
	}
}

// Canonical returns the lower-case form of a known page. Unknown values are
// returned unchanged so validation can report them.
func (p Page) Canonical() Page {
	if c, err := ParsePage(string(p)); err == nil {
		return c
	}
	return p
}

func (p Page) Label() string {
	switch p {
	case PageHome:
		return "Home Page"
	case PageService:
		return "Services Page"
	case PageAbout:
		return "About Page"
	default:
		return string(p)
	}
}

// VideoKind says how a video's source URL is played.
type VideoKind string

const (
	VideoKindYouTube  VideoKind = "youtube"
	VideoKindExternal VideoKind = "external"
	VideoKindUpload   VideoKind = "upload"
)

func VideoKinds() []VideoKind { return []VideoKind{VideoKindYouTube, VideoKindExternal, VideoKindUpload} }

func ParseVideoKind(raw string) (VideoKind, error) {
	k := VideoKind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case VideoKindYouTube, VideoKindExternal, VideoKindUpload:
		return k, nil
	default:
		return "", fmt.Errorf("unknown video type %q", raw)
	}
}

func (k VideoKind) Canonical() VideoKind {
	if c, err := ParseVideoKind(string(k)); err == nil {
		return c
	}
	return k
}

func (k VideoKind) Label() string {
	switch k {
	case VideoKindYouTube:
		return "YouTube"
	case VideoKindExternal:
		return "External URL (MP4)"
	case VideoKindUpload:
		return "Uploaded file"
	default:
		return string(k)
	}
}

// Embeddable reports whether the source is played through an embedded
// third-party player rather than a native video element.
func (k VideoKind) Embeddable() bool {
	switch k {
	case VideoKindYouTube:
		return true
	case VideoKindExternal, VideoKindUpload:
		return false
	default:
		return false
	}
}
