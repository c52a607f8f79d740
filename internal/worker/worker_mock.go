package worker

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	kafkago "github.com/segmentio/kafka-go"
)

type mockWorkerService struct {
	getFn        func(ctx context.Context, id string) (*model.Job, error)
	updateFn     func(ctx context.Context, id string, st model.Status) error
	saveResultFn func(ctx context.Context, job *model.Job) error
}

func (m *mockWorkerService) Get(ctx context.Context, id string) (*model.Job, error) {
	return m.getFn(ctx, id)
}

func (m *mockWorkerService) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateFn(ctx, id, st)
}

func (m *mockWorkerService) SaveResult(ctx context.Context, job *model.Job) error {
	return m.saveResultFn(ctx, job)
}

//----------------------------------

type mockStorage struct {
	getFn func(ctx context.Context, key string) (io.ReadCloser, string, error)
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return nil
}

//----------------------------------

// mockStamper копирует исходник в outDir под именем out, если оно задано
type mockStamper struct {
	out   string
	err   error
	calls int
	opts  model.WatermarkOptions
	logo  image.Image
}

func (m *mockStamper) StampFile(ctx context.Context, src, outDir string, opts model.WatermarkOptions, logo image.Image) (string, error) {
	m.calls++
	m.opts, m.logo = opts, logo
	if m.err != nil {
		return "", m.err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, m.out)
	return path, os.WriteFile(path, data, 0o644)
}

type mockCommitter struct {
	committed []string
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.committed = append(m.committed, string(msg.Key))
	return nil
}
