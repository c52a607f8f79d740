// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"io"
	"log"
	"net"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
)

const (
	defaultBucket = "watermarks"
	defaultPort   = "9000"
)

type Config struct {
	Bucket string
	User   string
	Pass   string
	Host   string
	Port   string
	Secure bool
}

// ConfigFrom читает BUCKET_NAME, MINIO_USER, MINIO_PASS, MINIO_CONTAINER_NAME, MINIO_PORT, MINIO_SECURE
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Bucket: cfg.GetString("BUCKET_NAME"),
		User:   cfg.GetString("MINIO_USER"),
		Pass:   cfg.GetString("MINIO_PASS"),
		Host:   cfg.GetString("MINIO_CONTAINER_NAME"),
		Port:   cfg.GetString("MINIO_PORT"),
		Secure: cfg.GetString("MINIO_SECURE") == "true",
	}
}

func (c Config) withDefaults() Config {
	if c.Bucket == "" {
		c.Bucket = defaultBucket
		log.Printf("Bucket name is empty. Using default value %q...", c.Bucket)
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	return c
}

func (c Config) endpoint() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type MinioObjectStorage struct {
	bucket string
	client *minio.Client
}

func NewMinioClient(ctx context.Context, c Config) (*MinioObjectStorage, error) {
	c = c.withDefaults()

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(c.endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(c.User, c.Pass, ""),
		Secure: c.Secure,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, c.Bucket); err != nil {
		log.Println("Failed to create bucket in MinIO:", err)
		return nil, err
	}

	return &MinioObjectStorage{bucket: c.Bucket, client: strg}, nil
}

// Put: size < 0 - размер неизвестен, minio грузит частями
func (s *MinioObjectStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

// Delete: пустой ключ - объекта нет, удалять нечего
func (s *MinioObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	res, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	resStat, err := res.Stat()
	if err != nil {
		_ = res.Close()
		return nil, "", err
	}

	return res, resStat.ContentType, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
