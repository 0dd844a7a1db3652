package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type ContactInput struct {
	Name         string `json:"name" form:"name" validate:"min=2,max=100"`
	Email        string `json:"email" form:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" form:"phone" validate:"max=20"`
	Organization string `json:"organization" form:"organization" validate:"max=200"`
	ElectionType string `json:"election_type" form:"election_type" validate:"omitempty,election_type"`
	Message      string `json:"message" form:"message" validate:"max=2000"`
}

var contactMessages = fieldMessages{
	"name.min":        "Name must be at least 2 characters",
	"name.max":        "Name must be less than 100 characters",
	"email.*":         "Please enter a valid email",
	"email.max":       "Email must be less than 255 characters",
	"phone.*":         "Phone must be less than 20 characters",
	"organization.*":  "Organization must be less than 200 characters",
	"election_type.*": "Please select a valid election type",
	"message.*":       "Message must be less than 2000 characters",
}

type ContactService interface {
	Submit(ctx context.Context, in ContactInput, source map[string]any) (*contact.Submission, error)
	List(ctx context.Context) ([]contact.Submission, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*contact.Submission, error)
}

type contactService struct {
	log   *logger.Logger
	gw    gateway.Gateway
	cache *cache.Cache
}

func NewContactService(log *logger.Logger, gw gateway.Gateway, c *cache.Cache) ContactService {
	return &contactService{
		log:   log.With("service", "ContactService"),
		gw:    gw,
		cache: c,
	}
}

// Submit validates and stores a lead. Invalid input never reaches the
// gateway.
func (cs *contactService) Submit(ctx context.Context, in ContactInput, source map[string]any) (*contact.Submission, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Organization = strings.TrimSpace(in.Organization)
	in.ElectionType = strings.TrimSpace(in.ElectionType)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in, contactMessages); err != nil {
		return nil, err
	}

	row := &contact.Submission{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Organization: in.Organization,
		Message:      in.Message,
		IsRead:       false,
	}
	if in.ElectionType != "" {
		et, _ := contact.ParseElectionType(in.ElectionType)
		row.ElectionType = string(et)
	}
	if len(source) > 0 {
		row.Source = datatypes.JSONMap(source)
	}
	if err := cs.gw.Insert(ctx, gateway.TableContacts, row); err != nil {
		return nil, err
	}
	cs.cache.Invalidate(ctx, cache.Mutation{Family: cache.FamilyContacts, Op: cache.OpSubmit})
	cs.log.Info("Contact submission received", "id", row.ID, "election_type", row.ElectionType)
	return row, nil
}

func (cs *contactService) List(ctx context.Context) ([]contact.Submission, error) {
	return cache.Fetch(ctx, cs.cache, cache.Key{Family: cache.FamilyContacts, Scope: cache.ScopeAll}, func(ctx context.Context) ([]contact.Submission, error) {
		rows := []contact.Submission{}
		order := []gateway.Order{{Column: "created_at", Desc: true}, {Column: "id"}}
		if err := cs.gw.Query(ctx, gateway.TableContacts, nil, order, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	})
}

func (cs *contactService) MarkRead(ctx context.Context, id uuid.UUID) (*contact.Submission, error) {
	var row contact.Submission
	if err := cs.gw.Update(ctx, gateway.TableContacts, id, map[string]any{"is_read": true}, &row); err != nil {
		return nil, err
	}
	cs.cache.Invalidate(ctx, cache.Mutation{Family: cache.FamilyContacts, Op: cache.OpMarkRead})
	return &row, nil
}
