package db

import (
	"fmt"
	"time"

	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

// gormWriter routes gorm's printf-style output into the structured logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn("gorm", "detail", fmt.Sprintf(format, args...))
}

func newGormLogger(log *logger.Logger, slow time.Duration) gormLogger.Interface {
	return gormLogger.New(
		gormWriter{log: log.With("component", "gorm")},
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
