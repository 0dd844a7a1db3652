package presentation

import "github.com/yungbote/saarthak-backend/internal/domain/media"

// Player selects how a video is rendered.
type Player string

const (
	PlayerEmbed  Player = "embed"
	PlayerNative Player = "native"
)

type VideoView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Src         string `json:"src"`
	Player      Player `json:"player"`
}

func NewVideoView(v media.Video) VideoView {
	out := VideoView{Title: v.Title, Description: v.Description, Src: v.VideoURL, Player: PlayerNative}
	if v.VideoType.Embeddable() {
		out.Src = EmbedURL(v.VideoURL)
		out.Player = PlayerEmbed
	}
	return out
}

func NewVideoViews(items []media.Video) []VideoView {
	out := make([]VideoView, 0, len(items))
	for _, v := range items {
		out = append(out, NewVideoView(v))
	}
	return out
}

// Featured returns the first visible video, the one shown in the hero.
func Featured(items []media.Video) (VideoView, bool) {
	if len(items) == 0 {
		return VideoView{}, false
	}
	return NewVideoView(items[0]), true
}

type Slide struct {
	Title       string
	Description string
	ImageURL    string
	Index       int
}

// PosterCarousel pairs the slides with the carousel settings. It is nil when
// there are no posters so the section is not rendered at all.
type PosterCarousel struct {
	Slides []Slide
	View   CarouselView
}

func NewPosterCarousel(items []media.Poster) *PosterCarousel {
	if len(items) == 0 {
		return nil
	}
	slides := make([]Slide, 0, len(items))
	for i, p := range items {
		slides = append(slides, Slide{Title: p.Title, Description: p.Description, ImageURL: p.ImageURL, Index: i})
	}
	return &PosterCarousel{Slides: slides, View: NewCarousel(len(items)).View()}
}
