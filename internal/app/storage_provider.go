package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/saarthak-backend/internal/platform/gcp"
	"github.com/yungbote/saarthak-backend/internal/platform/localstore"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

// StorageModeLocal keeps uploads on local disk and serves them from /media.
const StorageModeLocal = "local"

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorInvalidConfig       StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type objectStoreHandle struct {
	Store     objectstore.Store
	Close     func() error
	LocalRoot string
}

func resolveObjectStore(log *logger.Logger, cfg StorageConfig) (objectStoreHandle, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Mode), StorageModeLocal) {
		root := strings.TrimSpace(cfg.LocalDir)
		if root == "" {
			return objectStoreHandle{}, &StorageProviderBootstrapError{
				Code:  StorageProviderBootstrapErrorInvalidConfig,
				Mode:  StorageModeLocal,
				Cause: errors.New("LOCAL_STORAGE_DIR must be set"),
			}
		}
		log.Info("Selecting object storage provider", "mode", StorageModeLocal, "root", root, "base_url", cfg.LocalBaseURL)
		return objectStoreHandle{
			Store:     localstore.NewStore(log, root, cfg.LocalBaseURL),
			LocalRoot: root,
		}, nil
	}

	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return objectStoreHandle{}, err
	}
	return objectStoreHandle{Store: bucket, Close: bucket.Close}, nil
}

func resolveBucketService(log *logger.Logger, cfg StorageConfig) (gcp.BucketService, error) {
	mode, fallback, err := gcp.ResolveObjectStorageMode(cfg.Mode, cfg.EmulatorHost)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{
			Mode:         gcp.ObjectStorageMode(strings.TrimSpace(cfg.Mode)),
			EmulatorHost: strings.TrimSpace(cfg.EmulatorHost),
		}, err)
		log.Error("Object storage provider selection failed", "mode", cfg.Mode, "error", classified)
		return nil, classified
	}

	storageCfg := gcp.ObjectStorageConfig{
		Mode:                  mode,
		EmulatorHost:          strings.TrimSpace(cfg.EmulatorHost),
		PublicBaseURL:         strings.TrimSpace(cfg.PublicBaseURL),
		CompatibilityFallback: fallback,
		VideosBucket:          strings.TrimSpace(cfg.VideosBucket),
		VideosCDN:             strings.TrimSpace(cfg.VideosCDN),
		PostersBucket:         strings.TrimSpace(cfg.PostersBucket),
		PostersCDN:            strings.TrimSpace(cfg.PostersCDN),
	}
	modeSource := storageCfg.ModeSource()

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", modeSource,
		"emulator_host", storageCfg.EmulatorHost,
	)

	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case gcp.ObjectStorageConfigErrorMissingBucket, gcp.ObjectStorageConfigErrorInvalidPublicBase:
			code = StorageProviderBootstrapErrorInvalidConfig
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
