package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore implements ObjectStore backed by an Aliyun OSS bucket. The client
// is long-lived and safe for concurrent use.
type OSSStore struct {
	bucket *oss.Bucket
}

// NewOSSStore connects to the bucket at endpoint with the given credentials.
func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}
	return &OSSStore{bucket: bucket}, nil
}

// Exists reports whether key is present in the bucket.
func (s *OSSStore) Exists(_ context.Context, key string) (bool, error) {
	ok, err := s.bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("oss head %s: %w", key, err)
	}
	return ok, nil
}

// Get downloads the object at key.
func (s *OSSStore) Get(_ context.Context, key string) ([]byte, error) {
	body, err := s.bucket.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("oss get %s: %w", key, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("oss read %s: %w", key, err)
	}
	return data, nil
}

// Put uploads data under key as a single whole-body write.
func (s *OSSStore) Put(_ context.Context, key string, data []byte) error {
	if err := s.bucket.PutObject(key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("oss put %s: %w", key, err)
	}
	return nil
}

// PutFile uploads the file at path under key.
func (s *OSSStore) PutFile(_ context.Context, key string, path string) error {
	if err := s.bucket.PutObjectFromFile(key, path); err != nil {
		return fmt.Errorf("oss put file %s: %w", key, err)
	}
	return nil
}

// Close releases the client. The OSS SDK holds no persistent connections
// beyond the shared HTTP transport, so this is a no-op.
func (s *OSSStore) Close() error { return nil }
