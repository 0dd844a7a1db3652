package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ElectionType is the election a lead is campaigning for.
type ElectionType string

const (
	ElectionPanchayat   ElectionType = "Panchayat"
	ElectionNagarPalika ElectionType = "Nagar Palika / Nagar Nigam"
	ElectionVidhanSabha ElectionType = "Vidhan Sabha"
	ElectionLokSabha    ElectionType = "Lok Sabha"
	ElectionOther       ElectionType = "Other"
)

func ElectionTypes() []ElectionType {
	return []ElectionType{ElectionPanchayat, ElectionNagarPalika, ElectionVidhanSabha, ElectionLokSabha, ElectionOther}
}

func ParseElectionType(raw string) (ElectionType, error) {
	raw = strings.TrimSpace(raw)
	for _, et := range ElectionTypes() {
		if strings.EqualFold(raw, string(et)) {
			return et, nil
		}
	}
	return "", fmt.Errorf("unknown election type %q", raw)
}

// Submission is one lead captured by the public contact form.
type Submission struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string            `gorm:"column:name;not null" json:"name"`
	Email        string            `gorm:"column:email;not null" json:"email"`
	Phone        string            `gorm:"column:phone" json:"phone"`
	Organization string            `gorm:"column:organization" json:"organization"`
	ElectionType string            `gorm:"column:election_type" json:"election_type"`
	Message      string            `gorm:"column:message" json:"message"`
	IsRead       bool              `gorm:"column:is_read;not null;index" json:"is_read"`
	Source       datatypes.JSONMap `gorm:"column:source" json:"source,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Submission) TableName() string { return "contact_submissions" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
