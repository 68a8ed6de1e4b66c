// Package storage keeps copies of uploaded curriculum files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/usched/usched-api/config"
)

var ErrInvalidKey = errors.New("invalid archive key")

// Archive stores raw uploads under opaque keys.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New returns an S3 archive when a bucket is configured, otherwise a local one.
func New(spaces config.SpacesConfig, uploadDir string) (Archive, error) {
	if spaces.Bucket != "" {
		return NewS3Archive(spaces)
	}
	return NewLocalArchive(uploadDir)
}

// UploadKey builds the key for one curriculum upload.
func UploadKey(programCode, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	program := strings.ToLower(strings.TrimSpace(programCode))
	if program == "" {
		program = "unassigned"
	}
	return fmt.Sprintf("curriculum/%s/%s%s", program, uuid.New().String(), ext)
}

// S3Archive writes to any S3-compatible bucket (DigitalOcean Spaces, MinIO, AWS).
type S3Archive struct {
	s3Client *s3.S3
	bucket   string
}

// NewS3Archive creates the bucket client.
func NewS3Archive(cfg config.SpacesConfig) (*S3Archive, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Archive{
		s3Client: s3.New(sess),
		bucket:   cfg.Bucket,
	}, nil
}

// Put uploads data as a private object.
func (s *S3Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String(s3.ObjectCannedACLPrivate),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// Delete removes an object.
func (s *S3Archive) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// LocalArchive writes under a directory on disk.
type LocalArchive struct {
	root string
}

// NewLocalArchive creates dir if needed.
func NewLocalArchive(dir string) (*LocalArchive, error) {
	if dir == "" {
		dir = "uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalArchive{root: abs}, nil
}

func (l *LocalArchive) path(key string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if p == l.root || !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}

func (l *LocalArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (l *LocalArchive) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
