package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	types "github.com/yungbote/saarthak-backend/internal/domain/user"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/dbctx"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type PasswordInput struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	UpdatePassword(ctx context.Context, in PasswordInput) error
	SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo userrepo.UserRepo
}

func NewUserService(log *logger.Logger, userRepo userrepo.UserRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errUnauthenticated
	}
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
	}
	return users[0], nil
}

func (us *userService) UpdatePassword(ctx context.Context, in PasswordInput) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("Please login again"))
	}
	switch {
	case in.NewPassword == "" || in.ConfirmPassword == "":
		return apierr.Validation(apierr.FieldErrors{"new_password": "All fields are required"})
	case len(in.NewPassword) < 6:
		return apierr.Validation(apierr.FieldErrors{"new_password": "Password must be at least 6 characters"})
	case in.NewPassword != in.ConfirmPassword:
		return apierr.Validation(apierr.FieldErrors{"confirm_password": "Passwords do not match"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := us.userRepo.UpdatePassword(dbctx.Context{Ctx: ctx}, rd.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	us.log.Info("Password updated", "user_id", rd.UserID)
	return nil
}

// SetAdminByEmail grants or revokes admin access.
func (us *userService) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	dbc := dbctx.Context{Ctx: ctx}
	users, err := us.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", fmt.Errorf("no user with email %q", email))
	}
	user := users[0]
	if err := us.userRepo.SetAdmin(dbc, user.ID, isAdmin); err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	user.IsAdmin = isAdmin
	us.log.Info("Admin access changed", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}
