package web

import (
	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/presentation"
	"github.com/yungbote/saarthak-backend/internal/services"
)

// Template names.
const (
	PageHome          = "home"
	PageServices      = "services"
	PagePackages      = "packages"
	PageAbout         = "about"
	PageContact       = "contact"
	PageLegal         = "legal"
	PageNotFound      = "not_found"
	PageAdminLogin    = "admin_login"
	PageAdminReset    = "admin_reset"
	PageAdminDash     = "admin_dashboard"
	PageAdminMedia    = "admin_media"
	PageAdminContacts = "admin_contacts"
	PageAdminContent  = "admin_content"
)

const recentLimit = 5

var adminNav = []NavLink{
	{Label: "Dashboard", Path: "/admin/dashboard"},
	{Label: "Videos", Path: "/admin/videos"},
	{Label: "Posters", Path: "/admin/posters"},
	{Label: "Contacts", Path: "/admin/contacts"},
	{Label: "Content", Path: "/admin/content"},
}

type AdminChrome struct {
	Email string
	Nav   []NavLink
}

func NewAdminChrome(email string) *AdminChrome {
	return &AdminChrome{Email: email, Nav: adminNav}
}

// Page is the root value every template receives.
type Page struct {
	Title string
	Path  string
	Site  *Site
	Admin *AdminChrome
	Body  any
}

// MediaSection is what a public page shows for its assigned media. Either
// half may be empty, and a failed query renders the same as an empty one.
type MediaSection struct {
	Hero    *presentation.VideoView
	Videos  []presentation.VideoView
	Posters *presentation.PosterCarousel
}

func NewMediaSection(videos []media.Video, posters []media.Poster) MediaSection {
	s := MediaSection{
		Videos:  presentation.NewVideoViews(videos),
		Posters: presentation.NewPosterCarousel(posters),
	}
	if hero, ok := presentation.Featured(videos); ok {
		s.Hero = &hero
	}
	return s
}

type ContactBody struct {
	ElectionTypes []contact.ElectionType
}

type HomeBody struct {
	MediaSection
	ContactBody
}

type LegalBody struct {
	Active string
	Docs   []LegalDoc
}

// LoginBody also serves the password reset page.
type LoginBody struct {
	Error  string
	Notice string
}

type DashboardBody struct {
	Stats          services.DashboardStats
	RecentContacts []contact.Submission
	ActiveVideos   []media.Video
}

func NewDashboardBody(stats services.DashboardStats, contacts []contact.Submission, videos []media.Video) DashboardBody {
	b := DashboardBody{Stats: stats}
	if len(contacts) > recentLimit {
		contacts = contacts[:recentLimit]
	}
	b.RecentContacts = contacts
	for _, v := range videos {
		if v.IsActive {
			b.ActiveVideos = append(b.ActiveVideos, v)
		}
		if len(b.ActiveVideos) == recentLimit {
			break
		}
	}
	return b
}

type MediaRow struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Page         string
	DisplayOrder int
	IsActive     bool
	Source       string
	TypeLabel    string
}

type MediaListBody struct {
	Kind  string
	Noun  string
	Rows  []MediaRow
	Empty string
	Error bool
}

func NewVideoList(rows []media.Video, failed bool) MediaListBody {
	b := MediaListBody{Kind: "videos", Noun: "Video", Empty: "No videos yet", Error: failed}
	for _, v := range rows {
		b.Rows = append(b.Rows, MediaRow{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			Page:         v.PageAssignment.Label(),
			DisplayOrder: v.DisplayOrder,
			IsActive:     v.IsActive,
			Source:       v.VideoURL,
			TypeLabel:    v.VideoType.Label(),
		})
	}
	return b
}

func NewPosterList(rows []media.Poster, failed bool) MediaListBody {
	b := MediaListBody{Kind: "posters", Noun: "Poster", Empty: "No posters yet", Error: failed}
	for _, p := range rows {
		b.Rows = append(b.Rows, MediaRow{
			ID:           p.ID,
			Title:        p.Title,
			Description:  p.Description,
			Page:         p.PageAssignment.Label(),
			DisplayOrder: p.DisplayOrder,
			IsActive:     p.IsActive,
			Source:       p.ImageURL,
			TypeLabel:    "Image",
		})
	}
	return b
}

type ContactsBody struct {
	Rows  []contact.Submission
	Empty string
	Error bool
}

func NewContactsBody(rows []contact.Submission, failed bool) ContactsBody {
	return ContactsBody{Rows: rows, Empty: "No contact submissions yet", Error: failed}
}
