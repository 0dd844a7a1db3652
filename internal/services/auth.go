package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	authrepo "github.com/yungbote/saarthak-backend/internal/data/repos/auth"
	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	types "github.com/yungbote/saarthak-backend/internal/domain/user"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/dbctx"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

type RegisterInput struct {
	FullName        string `json:"full_name" validate:"min=2"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

var registerMessages = fieldMessages{
	"full_name.*":        "Name must be at least 2 characters",
	"email.*":            "Please enter a valid email address",
	"password.*":         "Password must be at least 6 characters",
	"confirm_password.*": "Passwords don't match",
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Authenticate(ctx context.Context, creds gateway.Credentials) (*gateway.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      userrepo.UserRepo
	userTokenRepo authrepo.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo userrepo.UserRepo,
	userTokenRepo authrepo.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

var errUnauthenticated = apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("authentication required"))

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", gateway.ErrInvalidCredentials)
}

// Register creates a non-admin account. Admin access is granted out of band.
func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in, registerMessages); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := as.userRepo.EmailExists(dbc, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.New(http.StatusConflict, "email_taken", errors.New("an account with this email already exists"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{Email: in.Email, FullName: in.FullName, Password: string(hash)}
	if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.New(http.StatusConflict, "email_taken", errors.New("an account with this email already exists"))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := as.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, user)
		pair = p
		return err
	})
	if err != nil {
		as.log.Warn("Login failed to issue tokens", "user_id", user.ID, "error", err)
		return nil, err
	}
	return pair, nil
}

// Authenticate satisfies gateway.Authenticator.
func (as *authService) Authenticate(ctx context.Context, creds gateway.Credentials) (*gateway.Session, error) {
	user, err := as.checkCredentials(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}
	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, user)
		pair = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return &gateway.Session{
		UserID:       user.ID,
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (as *authService) checkCredentials(ctx context.Context, email, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}
	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return nil, invalidCredentials()
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	return user, nil
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	if _, err := as.userTokenRepo.DeleteExpired(dbc, as.now()); err != nil {
		return nil, fmt.Errorf("purge expired tokens: %w", err)
	}
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    int(as.accessTTL.Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the old row is removed and a new pair is
// issued in the same transaction.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("missing refresh token"))
	}
	var pair *TokenPair
	expired := false
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("lookup refresh token: %w", err)
		}
		if len(found) == 0 {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("unknown refresh token"))
		}
		existing := found[0]
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("remove old token: %w", err)
		}
		if existing.ExpiresAt.Before(as.now()) {
			expired = true
			return nil
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("user no longer exists"))
		}
		p, err := as.issueTokens(dbc, users[0])
		pair = p
		return err
	})
	if err != nil {
		as.log.Warn("Refresh failed", "error", err)
		return nil, err
	}
	if expired {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("refresh token expired"))
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return errUnauthenticated
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("lookup access token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{found[0].ID}); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	return nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the JWT, checks it has not been logged out,
// and attaches the caller to ctx. Admin status is read from the user row so
// a revoked grant takes effect before the token expires.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, errUnauthenticated
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("lookup access token: %w", err)
	}
	if len(found) == 0 {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("session ended"))
	}
	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("user no longer exists"))
	}

	rd := &ctxutil.RequestData{
		UserID:      userID,
		SessionID:   found[0].ID,
		Email:       users[0].Email,
		IsAdmin:     users[0].IsAdmin,
		TokenString: tokenString,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
