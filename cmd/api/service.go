package main

import (
	"context"
	"io"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
)

type JobAPIService interface {
	Create(context.Context, *model.JobCreateData) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)
	LoadPreview(ctx context.Context, id string) (io.ReadCloser, string, error)
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error)
	Delete(ctx context.Context, id string) error
	ReviveOrphans(ctx context.Context, limit int)
}
