// Package media serves playback URLs for video work items. Source files
// live in an S3-compatible object store; reviewers get short-lived
// presigned GET links so the API never proxies video bytes.
package media

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignTTL = 15 * time.Minute

type Service struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		log.Printf("media: created bucket %s", bucket)
	}
	return &Service{client: client, bucket: bucket}, nil
}

// PlaybackURL turns a stored video reference into a presigned link. The
// reference is either an object key or a full URL; full URLs pass
// through untouched so externally hosted videos keep working. A key
// with no backing object yields an empty URL rather than a signed link
// to a 404.
func (s *Service) PlaybackURL(ctx context.Context, videoURL string) (string, error) {
	if videoURL == "" {
		return "", nil
	}
	if strings.Contains(videoURL, "://") {
		return videoURL, nil
	}

	exists, err := s.Stat(ctx, videoURL)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("media: no object backing %s", videoURL)
		return "", nil
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, videoURL, presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", videoURL, err)
	}
	return presigned.String(), nil
}

// Stat reports whether the object backing a video reference exists.
func (s *Service) Stat(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}
