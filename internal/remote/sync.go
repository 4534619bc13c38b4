// Package remote implements the remote-sync transport: finished content is
// uploaded to S3-compatible storage and the user receives links instead of
// the raw file.
package remote

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/signing"
)

// Syncer is what the delivery router needs from the remote transport.
type Syncer interface {
	// Sync uploads localPath (file or directory) under relPath and returns a
	// share link plus a computed index link. Directory syncs have no share
	// link because object storage cannot presign a prefix.
	Sync(ctx context.Context, localPath, relPath string) (shareLink, indexLink string, err error)
}

// Store wraps the object storage client used for remote sync.
type Store struct {
	client    *minio.Client
	bucket    string
	root      string
	region    string
	indexBase string
	signer    *signing.Signer
	ttl       time.Duration
	log       *zap.Logger
}

// New creates a Store from the configuration. A signing secret, when
// present, turns index links into expiring signed links.
func New(cfg *config.Config, log *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	var signer *signing.Signer
	if len(cfg.SigningSecret) > 0 {
		signer = signing.NewSigner(cfg.SigningSecret)
	}
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		root:      strings.Trim(cfg.BucketRoot, "/"),
		region:    cfg.S3Region,
		indexBase: strings.TrimRight(cfg.IndexBaseURL, "/"),
		signer:    signer,
		ttl:       cfg.SignedLinkTTL,
		log:       log,
	}, nil
}

// EnsureBucket makes sure the destination bucket exists before first use.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Sync implements Syncer.
func (s *Store) Sync(ctx context.Context, localPath, relPath string) (string, string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", "", fmt.Errorf("stat sync source: %w", err)
	}

	if info.IsDir() {
		if err := s.uploadDir(ctx, localPath, relPath); err != nil {
			return "", "", err
		}
		return "", s.indexLink(relPath), nil
	}

	key := s.objectKey(relPath)
	if err := s.uploadFile(ctx, localPath, key); err != nil {
		return "", "", err
	}
	share, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, url.Values{})
	if err != nil {
		return "", "", fmt.Errorf("presign %s: %w", key, err)
	}
	return share.String(), s.indexLink(relPath), nil
}

func (s *Store) uploadDir(ctx context.Context, dir, relPath string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := s.objectKey(relPath + "/" + filepath.ToSlash(rel))
		return s.uploadFile(ctx, path, key)
	})
}

func (s *Store) uploadFile(ctx context.Context, path, key string) error {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	s.log.Debug("object uploaded", zap.String("key", key))
	return nil
}

func (s *Store) objectKey(relPath string) string {
	relPath = strings.TrimLeft(filepath.ToSlash(relPath), "/")
	if s.root == "" {
		return relPath
	}
	return s.root + "/" + relPath
}

// indexLink derives the static index-mirror URL by path substitution alone;
// no network call is involved. With a signer configured the link carries an
// expiry and signature.
func (s *Store) indexLink(relPath string) string {
	if s.indexBase == "" {
		return ""
	}
	link := s.indexBase + "/" + escapePath(relPath)
	if s.signer == nil {
		return link
	}
	expires := time.Now().Add(s.ttl).Unix()
	sig := s.signer.Sign(relPath, expires)
	return fmt.Sprintf("%s?e=%d&s=%s", link, expires, sig)
}

func escapePath(relPath string) string {
	segments := strings.Split(strings.Trim(filepath.ToSlash(relPath), "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
