package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	authrepo "github.com/yungbote/saarthak-backend/internal/data/repos/auth"
	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	"github.com/yungbote/saarthak-backend/internal/data/testutil"
	"github.com/yungbote/saarthak-backend/internal/platform/localstore"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type testEnv struct {
	log   *logger.Logger
	db    *gorm.DB
	gw    gateway.Gateway
	cache *cache.Cache
	auth  AuthService
	users UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	uRepo := userrepo.NewUserRepo(db, log)
	tRepo := authrepo.NewUserTokenRepo(db, log)
	auth := NewAuthService(db, log, uRepo, tRepo, "test-secret", 15*time.Minute, 24*time.Hour)
	store := localstore.NewStore(log, t.TempDir(), "http://localhost:8080/media")
	return &testEnv{
		log:   log,
		db:    db,
		gw:    gateway.New(log, db, store, auth),
		cache: cache.New(log, cache.NewMemoryStore(64, time.Minute), nil),
		auth:  auth,
		users: NewUserService(log, uRepo),
	}
}
