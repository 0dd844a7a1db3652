package objectstore

import (
	"context"
	"io"
	"strings"
)

// Bucket names a logical object bucket; each backend maps it to a physical
// location.
type Bucket string

const (
	BucketVideos  Bucket = "videos"
	BucketPosters Bucket = "posters"
)

func Buckets() []Bucket { return []Bucket{BucketVideos, BucketPosters} }

// Store is the write side of object storage plus public URL resolution.
type Store interface {
	UploadFile(ctx context.Context, bucket Bucket, key string, file io.Reader) error
	GetPublicURL(bucket Bucket, key string) string
}

// ContentTypeForKey guesses a Content-Type from the key's extension.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".bmp"):
		return "image/bmp"
	case strings.HasSuffix(s, ".tif"), strings.HasSuffix(s, ".tiff"):
		return "image/tiff"
	case strings.HasSuffix(s, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".ogv"), strings.HasSuffix(s, ".ogg"):
		return "video/ogg"
	default:
		return ""
	}
}
