package lifecycle

import (
	"strings"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

const (
	MaxImageBytes int64 = 10 << 20
	MaxVideoBytes int64 = 100 << 20
)

// FileRule is checked when a file is selected, before anything is uploaded.
type FileRule struct {
	MIMEPrefix  string
	MaxBytes    int64
	TypeMessage string
	SizeMessage string
}

// Spec parameterizes the generic controller for one resource kind.
type Spec struct {
	Kind   Kind
	Noun   string
	Bucket objectstore.Bucket
	File   FileRule
	// Validate returns field errors for d. hasFile reports whether a
	// pending upload will supply the source.
	Validate func(d media.Draft, hasFile bool) apierr.FieldErrors
	// OnFileSelected adjusts the draft once a file passes FileRule.
	OnFileSelected func(d *media.Draft)
}

func VideoSpec() Spec {
	return Spec{
		Kind:   KindVideo,
		Noun:   "Video",
		Bucket: objectstore.BucketVideos,
		File: FileRule{
			MIMEPrefix:  "video/",
			MaxBytes:    MaxVideoBytes,
			TypeMessage: "Please select a valid video file",
			SizeMessage: "File size must be less than 100MB",
		},
		Validate: func(d media.Draft, hasFile bool) apierr.FieldErrors {
			fe := validateAsset(d)
			if !hasFile && strings.TrimSpace(d.SourceURL) == "" {
				fe["source_url"] = "Please provide a video URL or upload a file"
			}
			if !hasFile {
				if _, err := media.ParseVideoKind(string(d.VideoType)); err != nil {
					fe["video_type"] = "Please select a video type"
				}
			}
			return fe
		},
		OnFileSelected: func(d *media.Draft) { d.VideoType = media.VideoKindUpload },
	}
}

func PosterSpec() Spec {
	return Spec{
		Kind:   KindPoster,
		Noun:   "Poster",
		Bucket: objectstore.BucketPosters,
		File: FileRule{
			MIMEPrefix:  "image/",
			MaxBytes:    MaxImageBytes,
			TypeMessage: "Please select a valid image file",
			SizeMessage: "File size must be less than 10MB",
		},
		Validate: func(d media.Draft, hasFile bool) apierr.FieldErrors {
			fe := validateAsset(d)
			if !hasFile && strings.TrimSpace(d.SourceURL) == "" {
				fe["source_url"] = "Please upload an image"
			}
			return fe
		},
	}
}

func validateAsset(d media.Draft) apierr.FieldErrors {
	fe := apierr.FieldErrors{}
	if strings.TrimSpace(d.Title) == "" {
		fe["title"] = "Title is required"
	}
	if _, err := media.ParsePage(string(d.PageAssignment)); err != nil {
		fe["page_assignment"] = "Please select a page"
	}
	return fe
}
