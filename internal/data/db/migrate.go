package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/domain/user"
)

// Models lists every table owned by the application, in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&user.UserToken{},

		&media.Video{},
		&media.Poster{},

		&contact.Submission{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
