// Package storage connects the object storage for sources, logos, results and previews
package storage

import (
	"context"
	"log"
	"time"

	"github.com/UnendingLoop/WatermarkStamper/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

// NewObjectStorage повторяет подключение, пока не получится или пока не отменят ctx
func NewObjectStorage(ctx context.Context, cfg *config.Config, delay time.Duration) (*miniostorage.MinioObjectStorage, error) {
	for {
		log.Println("Connecting to object storage...")
		client, err := miniostorage.NewMinioClient(ctx, miniostorage.ConfigFrom(cfg))
		if err == nil {
			log.Println("Successfully connected to object storage!")
			return client, nil
		}

		log.Printf("Failed to init connection to object storage: %v\nNext retry in %v...", err, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
