package presentation

import (
	"regexp"
	"strings"
)

const youTubeIDLen = 11

var youTubePattern = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeID extracts the video id from the common YouTube URL shapes.
func YouTubeID(url string) (string, bool) {
	m := youTubePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil || len(m[2]) != youTubeIDLen {
		return "", false
	}
	return m[2], true
}

// EmbedURL returns the privacy-reduced embed URL for a YouTube link, or url
// unchanged when no id can be derived.
func EmbedURL(url string) string {
	id, ok := YouTubeID(url)
	if !ok {
		return url
	}
	return "https://www.youtube.com/embed/" + id + "?rel=0&modestbranding=1&playsinline=1"
}
