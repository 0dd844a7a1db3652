package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed content/site.yaml
var contentFS embed.FS

type Contact struct {
	Phone           string `yaml:"phone"`
	PhoneHref       string `yaml:"phone_href"`
	Email           string `yaml:"email"`
	Office          string `yaml:"office"`
	Hours           string `yaml:"hours"`
	ResponseNote    string `yaml:"response_note"`
	Confidentiality string `yaml:"confidentiality"`
}

type NavLink struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

type Blurb struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type ServiceItem struct {
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
}

type ServiceCategory struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Items       []ServiceItem `yaml:"items"`
}

type Package struct {
	Name        string   `yaml:"name"`
	Subtitle    string   `yaml:"subtitle"`
	Description string   `yaml:"description"`
	Popular     bool     `yaml:"popular"`
	Custom      bool     `yaml:"custom"`
	Features    []string `yaml:"features"`
}

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type LegalDoc struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	LastUpdated string `yaml:"last_updated"`
	Markdown    string `yaml:"markdown"`

	HTML template.HTML `yaml:"-"`
}

type ContentPage struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Path        string `yaml:"path"`
}

type HomeCopy struct {
	Headline    string  `yaml:"headline"`
	Subheadline string  `yaml:"subheadline"`
	Overview    []Blurb `yaml:"overview"`
	Reasons     []Blurb `yaml:"reasons"`
}

type ServicesCopy struct {
	Intro      string            `yaml:"intro"`
	Categories []ServiceCategory `yaml:"categories"`
}

type AboutCopy struct {
	Stats   []Stat  `yaml:"stats"`
	Values  []Blurb `yaml:"values"`
	Vision  string  `yaml:"vision"`
	Mission string  `yaml:"mission"`
}

type AdminContentCopy struct {
	Notice string        `yaml:"notice"`
	Pages  []ContentPage `yaml:"pages"`
}

// Site is the static copy of the marketing pages.
type Site struct {
	Name         string           `yaml:"name"`
	Tagline      string           `yaml:"tagline"`
	Contact      Contact          `yaml:"contact"`
	Nav          []NavLink        `yaml:"nav"`
	Home         HomeCopy         `yaml:"home"`
	Services     ServicesCopy     `yaml:"services"`
	Packages     []Package        `yaml:"packages"`
	About        AboutCopy        `yaml:"about"`
	Legal        []LegalDoc       `yaml:"legal"`
	AdminContent AdminContentCopy `yaml:"admin_content"`
}

// LoadSite parses the embedded site copy and renders the legal documents.
func LoadSite() (*Site, error) {
	raw, err := contentFS.ReadFile("content/site.yaml")
	if err != nil {
		return nil, fmt.Errorf("read site content: %w", err)
	}
	return ParseSite(raw)
}

func ParseSite(raw []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}
	policy := bluemonday.UGCPolicy()
	for i := range s.Legal {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(s.Legal[i].Markdown), &buf); err != nil {
			return nil, fmt.Errorf("render legal %q: %w", s.Legal[i].ID, err)
		}
		s.Legal[i].HTML = template.HTML(policy.SanitizeBytes(buf.Bytes()))
	}
	return &s, nil
}

func (s *Site) LegalDoc(id string) (LegalDoc, bool) {
	for _, d := range s.Legal {
		if d.ID == id {
			return d, true
		}
	}
	return LegalDoc{}, false
}
