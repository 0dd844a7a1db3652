package media

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset holds the visibility and ordering metadata shared by every kind of
// displayable media.
type Asset struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	Description    string    `gorm:"column:description" json:"description"`
	PageAssignment Page      `gorm:"column:page_assignment;type:text;not null;index:,composite:page_order,priority:1" json:"page_assignment"`
	DisplayOrder   int       `gorm:"column:display_order;not null;index:,composite:page_order,priority:2" json:"display_order"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Asset) Base() *Asset { return a }

func (a *Asset) applyDraft(d Draft) {
	a.Title = strings.TrimSpace(d.Title)
	a.Description = strings.TrimSpace(d.Description)
	a.PageAssignment = d.PageAssignment
	a.DisplayOrder = d.DisplayOrder
	a.IsActive = d.IsActive
}

func (a *Asset) draft() Draft {
	return Draft{
		Title:          a.Title,
		Description:    a.Description,
		PageAssignment: a.PageAssignment,
		DisplayOrder:   a.DisplayOrder,
		IsActive:       a.IsActive,
	}
}

type Video struct {
	Asset
	VideoURL  string    `gorm:"column:video_url;not null" json:"video_url"`
	VideoType VideoKind `gorm:"column:video_type;type:text;not null" json:"video_type"`
}

func (Video) TableName() string { return "videos" }

func (v *Video) Source() string { return v.VideoURL }

func (v *Video) ApplyDraft(d Draft) {
	v.applyDraft(d)
	v.VideoURL = strings.TrimSpace(d.SourceURL)
	v.VideoType = d.VideoType
}

func (v *Video) ToDraft() Draft {
	d := v.draft()
	d.SourceURL = v.VideoURL
	d.VideoType = v.VideoType
	return d
}

func (v *Video) PatchColumns(p Patch) map[string]any {
	cols := p.assetColumns()
	if p.SourceURL != nil {
		cols["video_url"] = strings.TrimSpace(*p.SourceURL)
	}
	if p.VideoType != nil {
		cols["video_type"] = *p.VideoType
	}
	return cols
}

type Poster struct {
	Asset
	ImageURL string `gorm:"column:image_url;not null" json:"image_url"`
}

func (Poster) TableName() string { return "posters" }

func (p *Poster) Source() string { return p.ImageURL }

func (p *Poster) ApplyDraft(d Draft) {
	p.applyDraft(d)
	p.ImageURL = strings.TrimSpace(d.SourceURL)
}

func (p *Poster) ToDraft() Draft {
	d := p.draft()
	d.SourceURL = p.ImageURL
	return d
}

// Posters are always images, so a VideoType in the patch is ignored.
func (p *Poster) PatchColumns(patch Patch) map[string]any {
	cols := patch.assetColumns()
	if patch.SourceURL != nil {
		cols["image_url"] = strings.TrimSpace(*patch.SourceURL)
	}
	return cols
}

// Record is the set of media kinds managed through the generic resource
// layer.
type Record interface {
	Video | Poster
}

// RecordPtr is the method set every *Record provides.
type RecordPtr[T Record] interface {
	*T
	Base() *Asset
	Source() string
	ApplyDraft(Draft)
	ToDraft() Draft
	PatchColumns(Patch) map[string]any
}
