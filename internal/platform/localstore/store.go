package localstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9][A-Za-z0-9._-]*)*$`)

// Store keeps objects on local disk under <root>/<bucket>/<key> and serves
// them below a public URL prefix. Intended for development and single-node
// installs.
type Store struct {
	log     *logger.Logger
	root    string
	baseURL string
}

func NewStore(log *logger.Logger, root, baseURL string) *Store {
	return &Store{
		log:     log.With("service", "LocalObjectStore"),
		root:    root,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (s *Store) Root() string { return s.root }

func (s *Store) Path(bucket objectstore.Bucket, key string) string {
	return filepath.Join(s.root, string(bucket), filepath.FromSlash(key))
}

func (s *Store) UploadFile(ctx context.Context, bucket objectstore.Bucket, key string, file io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	switch bucket {
	case objectstore.BucketVideos, objectstore.BucketPosters:
	default:
		return fmt.Errorf("unknown bucket: %s", bucket)
	}

	dst := s.Path(bucket, key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create object directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp object file: %w", err)
	}
	tmpPath := tmp.Name()
	n, err := io.Copy(tmp, file)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp object file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp object file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize object %s: %w", dst, err)
	}
	s.log.Debug("Object stored", "bucket", bucket, "key", key, "bytes", n)
	return nil
}

func (s *Store) GetPublicURL(bucket objectstore.Bucket, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	return fmt.Sprintf("%s/%s/%s", s.baseURL, bucket, key)
}
