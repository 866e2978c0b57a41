package storage

import (
	"bytes"
	"context"
	"fmt"
	"imgstego-backend/config"
	"imgstego-backend/imaging"
	"imgstego-backend/stego"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioSink uploads encoded carriers to a bucket under a per-run prefix.
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string
	keys   []string
}

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Username, cfg.Password, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %v", err)
	}
	return client, nil
}

// EnsureBucket creates the bucket unless we already own it.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return err
	}
	return nil
}

func NewMinioSink(client *minio.Client, bucket, prefix string) *MinioSink {
	return &MinioSink{client: client, bucket: bucket, prefix: prefix}
}

func (s *MinioSink) Put(ctx context.Context, enc stego.Encoded) error {
	data, err := imaging.PNGBytes(enc.Carrier)
	if err != nil {
		return err
	}

	key := path.Join(s.prefix, EncodedName(enc.Tag))
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v", key, err)
	}
	s.keys = append(s.keys, key)
	return nil
}

// Keys lists the object keys uploaded so far.
func (s *MinioSink) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Cleanup removes every object this sink uploaded, used after a failed run.
func (s *MinioSink) Cleanup(ctx context.Context) error {
	var firstErr error
	for _, key := range s.keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %s: %v", key, err)
		}
	}
	s.keys = nil
	return firstErr
}

var _ stego.Sink = (*MinioSink)(nil)

// MultiSink fans each encoded carrier out to several sinks in order.
type MultiSink []stego.Sink

func (m MultiSink) Put(ctx context.Context, enc stego.Encoded) error {
	for _, s := range m {
		if err := s.Put(ctx, enc); err != nil {
			return err
		}
	}
	return nil
}

var _ stego.Sink = MultiSink(nil)
