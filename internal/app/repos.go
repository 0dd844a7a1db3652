package app

import (
	"gorm.io/gorm"

	authrepo "github.com/yungbote/saarthak-backend/internal/data/repos/auth"
	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type Repos struct {
	User      userrepo.UserRepo
	UserToken authrepo.UserTokenRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      userrepo.NewUserRepo(db, log),
		UserToken: authrepo.NewUserTokenRepo(db, log),
	}
}
