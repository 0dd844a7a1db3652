package media

import "strings"

// Draft is the editable field set of a media asset before persistence.
// SourceURL is the remote link in URL mode, or the uploaded object's public
// URL once a file upload has completed.
type Draft struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SourceURL      string    `json:"source_url"`
	VideoType      VideoKind `json:"video_type,omitempty"`
	PageAssignment Page      `json:"page_assignment"`
	DisplayOrder   int       `json:"display_order"`
	IsActive       bool      `json:"is_active"`
}

// NewDraft returns the defaults a create form opens with.
func NewDraft() Draft {
	return Draft{
		PageAssignment: PageHome,
		DisplayOrder:   0,
		IsActive:       true,
	}
}

// Canonical normalizes the enum fields so stored values match the filters
// used on read.
func (d Draft) Canonical() Draft {
	d.PageAssignment = d.PageAssignment.Canonical()
	if d.VideoType != "" {
		d.VideoType = d.VideoType.Canonical()
	}
	return d
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	SourceURL      *string    `json:"source_url,omitempty"`
	VideoType      *VideoKind `json:"video_type,omitempty"`
	PageAssignment *Page      `json:"page_assignment,omitempty"`
	DisplayOrder   *int       `json:"display_order,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// PatchFromDraft produces a patch that overwrites every editable field.
func PatchFromDraft(d Draft) Patch {
	title := strings.TrimSpace(d.Title)
	desc := strings.TrimSpace(d.Description)
	src := strings.TrimSpace(d.SourceURL)
	page := d.PageAssignment
	order := d.DisplayOrder
	active := d.IsActive
	p := Patch{
		Title:          &title,
		Description:    &desc,
		SourceURL:      &src,
		PageAssignment: &page,
		DisplayOrder:   &order,
		IsActive:       &active,
	}
	if d.VideoType != "" {
		kind := d.VideoType
		p.VideoType = &kind
	}
	return p
}

// Apply overlays the non-nil fields of p onto d.
func (p Patch) Apply(d Draft) Draft {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.SourceURL != nil {
		d.SourceURL = *p.SourceURL
	}
	if p.VideoType != nil {
		d.VideoType = *p.VideoType
	}
	if p.PageAssignment != nil {
		d.PageAssignment = *p.PageAssignment
	}
	if p.DisplayOrder != nil {
		d.DisplayOrder = *p.DisplayOrder
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
	return d
}

func (p Patch) Canonical() Patch {
	if p.PageAssignment != nil {
		page := p.PageAssignment.Canonical()
		p.PageAssignment = &page
	}
	if p.VideoType != nil {
		kind := p.VideoType.Canonical()
		p.VideoType = &kind
	}
	return p
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.SourceURL == nil && p.VideoType == nil &&
		p.PageAssignment == nil && p.DisplayOrder == nil && p.IsActive == nil
}

func (p Patch) assetColumns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		cols["description"] = strings.TrimSpace(*p.Description)
	}
	if p.PageAssignment != nil {
		cols["page_assignment"] = *p.PageAssignment
	}
	if p.DisplayOrder != nil {
		cols["display_order"] = *p.DisplayOrder
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}
