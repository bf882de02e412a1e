package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/pkg/logging"
)

// Store persists validated uploads and returns the storage key they were
// saved under. Keys follow <category>/<year>/<month>/<uuid8>_<filename>.
type Store interface {
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes uploads to an S3 bucket.
type S3Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewS3Store creates an S3-backed store.
func NewS3Store(s3Client S3API, bucket string, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Save uploads the content and returns its object key.
func (s *S3Store) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	key := buildKey(category, filename)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("upload: s3 put %s: %w", key, err)
	}

	s.logger.Info("upload stored", "key", key, "bucket", s.bucket)
	return key, nil
}

// LocalStore writes uploads under a base directory on disk. Used in
// development when no bucket is configured.
type LocalStore struct {
	baseDir string
	logger  *logging.Logger
}

// NewLocalStore creates a disk-backed store rooted at baseDir.
func NewLocalStore(baseDir string, logger *logging.Logger) *LocalStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &LocalStore{baseDir: baseDir, logger: logger}
}

// Save writes the content to disk and returns its key relative to the base
// directory.
func (s *LocalStore) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	key := buildKey(category, filename)
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("upload: mkdir for %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("upload: create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("upload: write %s: %w", key, err)
	}

	s.logger.Info("upload stored", "key", key, "dir", s.baseDir)
	return key, nil
}

// buildKey namespaces uploads by category and month so listings stay small.
func buildKey(category, filename string) string {
	now := time.Now().UTC()
	prefix := uuid.New().String()[:8]
	return fmt.Sprintf("%s/%d/%02d/%s_%s", category, now.Year(), now.Month(), prefix, SanitizeFilename(filename))
}

// SanitizeFilename strips path components and replaces characters that are
// unsafe in object keys.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		return "file"
	}
	return out
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
