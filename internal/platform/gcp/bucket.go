package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

type BucketService interface {
	objectstore.Store
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	videosBucket  bucketConfig
	postersBucket bucketConfig
	publicBaseURL string
	uploadTimeout time.Duration
}

func NewBucketServiceWithConfig(log *logger.Logger, storageCfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	publicBaseURL, publicBaseSource := resolveObjectStoragePublicBaseURL(storageCfg)

	ctx := context.Background()
	stClient, err := newStorageClientForMode(ctx, storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"videos_bucket", storageCfg.VideosBucket,
		"posters_bucket", storageCfg.PostersBucket,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"),
		videosBucket: bucketConfig{
			name:      strings.TrimSpace(storageCfg.VideosBucket),
			cdnDomain: strings.TrimSpace(storageCfg.VideosCDN),
		},
		postersBucket: bucketConfig{
			name:      strings.TrimSpace(storageCfg.PostersBucket),
			cdnDomain: strings.TrimSpace(storageCfg.PostersCDN),
		},
		publicBaseURL: publicBaseURL,
		uploadTimeout: 5 * time.Minute,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		// The storage client only honours the emulator through the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(storageCfg.Mode),
		}
	}
}

func resolveObjectStoragePublicBaseURL(storageCfg ObjectStorageConfig) (baseURL string, source string) {
	if raw := strings.TrimSpace(storageCfg.PublicBaseURL); raw != "" {
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url"
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "storage_emulator_host"
	}
	return "", "gcs_default"
}

func (bs *bucketService) getBucketConfig(bucket objectstore.Bucket) (bucketConfig, error) {
	switch bucket {
	case objectstore.BucketVideos:
		return bs.videosBucket, nil
	case objectstore.BucketPosters:
		return bs.postersBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket: %s", bucket)
	}
}

func (bs *bucketService) UploadFile(ctx context.Context, bucket objectstore.Bucket, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(bucket)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, bs.uploadTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := objectstore.ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=31536000"
	n, err := io.Copy(w, file)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Debug("Object uploaded", "bucket", cfg.name, "key", key, "bytes", n)
	return nil
}

func (bs *bucketService) GetPublicURL(bucket objectstore.Bucket, key string) string {
	cfg, err := bs.getBucketConfig(bucket)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.publicEmulatorObjectMediaURL(cfg.name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

func (bs *bucketService) publicEmulatorObjectMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}
