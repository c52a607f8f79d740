package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/service"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

var testKeys = service.KeyPrefixes{Source: "src/", Logo: "logo/", Result: "res/", Preview: "prev/"}

func TestWorker_initProcessor(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	tests := []struct {
		name      string
		job       *model.Job
		getErr    error
		updateErr error
		wantErr   bool
	}{
		{
			name:    "already done",
			job:     &model.Job{Status: model.StatusDone},
			wantErr: false,
		},
		{
			name:    "already failed",
			job:     &model.Job{Status: model.StatusFailed},
			wantErr: false,
		},
		{
			name:    "in progress",
			job:     &model.Job{Status: model.StatusInProgress},
			wantErr: true,
		},
		{
			name:    "job not found",
			getErr:  model.ErrJobNotFound,
			wantErr: true,
		},
		{
			name:    "result already saved",
			job:     &model.Job{Status: model.StatusCreated, ResultKey: "res/1.png"},
			wantErr: false,
		},
		{
			name:      "update status error",
			job:       &model.Job{Status: model.StatusCreated},
			updateErr: errors.New("db down"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWorkerService{
				getFn: func(ctx context.Context, _ string) (*model.Job, error) {
					return tt.job, tt.getErr
				},
				updateFn: func(ctx context.Context, _ string, _ model.Status) error {
					return tt.updateErr
				},
				saveResultFn: func(ctx context.Context, _ *model.Job) error {
					return nil
				},
			}

			w := &Worker{
				service: svc,
				storage: &mockStorage{},
				stamper: &mockStamper{},
				keys:    testKeys,
			}

			err := w.initProcessor(ctx, id)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWorker_initProcessor_StampFailureSaved(t *testing.T) {
	job := &model.Job{
		UID:        uuid.New(),
		Media:      model.MediaImage,
		Status:     model.StatusCreated,
		SourceKey:  "src/a.png",
		SourceName: "a.png",
		Options:    model.WatermarkOptions{Type: model.MarkText, Text: "x"},
	}

	var saved *model.Job
	svc := &mockWorkerService{
		getFn:    func(ctx context.Context, _ string) (*model.Job, error) { return job, nil },
		updateFn: func(ctx context.Context, _ string, _ model.Status) error { return nil },
		saveResultFn: func(ctx context.Context, j *model.Job) error {
			saved = j
			return nil
		},
	}
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return io.NopCloser(bytes.NewReader(validPNG(t))), model.PNG, nil
		},
	}

	w := &Worker{
		service: svc,
		storage: storage,
		stamper: &mockStamper{err: model.ErrWatermarkTooLarge},
		keys:    testKeys,
		tmpDir:  t.TempDir(),
	}

	require.NoError(t, w.initProcessor(context.Background(), job.UID.String()))
	require.NotNil(t, saved)
	require.Equal(t, model.StatusFailed, saved.Status)
	require.Len(t, saved.ErrMsg, 1)
	require.Contains(t, saved.ErrMsg[0], model.ErrWatermarkTooLarge.Error())
	require.Empty(t, saved.ResultKey)
}

func TestWorker_processTask_Image(t *testing.T) {
	ctx := context.Background()

	job := &model.Job{
		UID:        uuid.New(),
		Media:      model.MediaImage,
		Status:     model.StatusInProgress,
		SourceKey:  "src/x.png",
		SourceName: "holiday.png",
		Options:    model.WatermarkOptions{Type: model.MarkText, Text: "x"},
	}

	puts := map[string]string{}
	var previewSize image.Point
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			require.Equal(t, "src/x.png", key)
			return io.NopCloser(bytes.NewReader(validPNG(t))), model.PNG, nil
		},
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			puts[key] = ct
			if key == "prev/"+job.UID.String()+".png" {
				img, err := imaging.Decode(r)
				require.NoError(t, err)
				previewSize = img.Bounds().Size()
			}
			return nil
		},
	}

	svc := &mockWorkerService{
		saveResultFn: func(ctx context.Context, j *model.Job) error {
			require.Equal(t, model.StatusDone, j.Status)
			return nil
		},
	}

	st := &mockStamper{out: "Watermark_holiday.png"}
	w := &Worker{
		storage: storage,
		service: svc,
		stamper: st,
		keys:    testKeys,
		tmpDir:  t.TempDir(),
	}

	require.NoError(t, w.processTask(ctx, job))
	require.Equal(t, 1, st.calls)
	require.Nil(t, st.logo)
	require.Equal(t, "res/"+job.UID.String()+".png", job.ResultKey)
	require.Equal(t, "prev/"+job.UID.String()+".png", job.PreviewKey)
	require.Equal(t, map[string]string{job.ResultKey: model.PNG, job.PreviewKey: model.PNG}, puts)
	require.Equal(t, image.Pt(256, 256), previewSize)
}

func TestWorker_processTask_VideoWithLogo(t *testing.T) {
	job := &model.Job{
		UID:       uuid.New(),
		Media:     model.MediaVideo,
		SourceKey: "src/x.mp4",
		LogoKey:   "logo/x.png",
		Options:   model.WatermarkOptions{Type: model.MarkLogo},
	}

	var putKeys []string
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			if key == job.LogoKey {
				return io.NopCloser(bytes.NewReader(validPNG(t))), model.PNG, nil
			}
			return io.NopCloser(bytes.NewReader([]byte("fake-video"))), model.MP4, nil
		},
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			require.Equal(t, model.MP4, ct)
			require.Equal(t, int64(len("fake-video")), size)
			putKeys = append(putKeys, key)
			return nil
		},
	}
	svc := &mockWorkerService{saveResultFn: func(ctx context.Context, j *model.Job) error { return nil }}

	st := &mockStamper{out: "Watermark_x.mp4"}
	w := &Worker{storage: storage, service: svc, stamper: st, keys: testKeys, tmpDir: t.TempDir()}

	require.NoError(t, w.processTask(context.Background(), job))
	require.NotNil(t, st.logo)
	require.Equal(t, []string{"res/" + job.UID.String() + ".mp4"}, putKeys)
	require.Empty(t, job.PreviewKey)
}

func TestWorker_processTask_Errors(t *testing.T) {
	tests := []struct {
		name    string
		job     *model.Job
		storage *mockStorage
	}{
		{
			name: "source missing",
			job:  &model.Job{SourceKey: "src/a.png"},
			storage: &mockStorage{
				getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
					return nil, "", errors.New("storage down")
				},
			},
		},
		{
			name: "logo is not an image",
			job:  &model.Job{SourceKey: "src/a.png", LogoKey: "logo/a.png", Options: model.WatermarkOptions{Type: model.MarkLogo}},
			storage: &mockStorage{
				getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
					return io.NopCloser(bytes.NewReader([]byte("not-an-image"))), "", nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStamper{out: "a.png"}
			w := &Worker{storage: tt.storage, stamper: st, keys: testKeys, tmpDir: t.TempDir()}
			require.Error(t, w.processTask(context.Background(), tt.job))
			require.Zero(t, st.calls)
		})
	}
}

func TestWorker_StartWorker_Commits(t *testing.T) {
	queue := make(chan kafkago.Message, 2)
	queue <- kafkago.Message{Key: []byte("done-job")}
	queue <- kafkago.Message{Key: []byte("busy-job")}
	close(queue)

	svc := &mockWorkerService{
		getFn: func(ctx context.Context, id string) (*model.Job, error) {
			if id == "busy-job" {
				return &model.Job{Status: model.StatusInProgress}, nil
			}
			return &model.Job{Status: model.StatusDone}, nil
		},
	}
	cons := &mockCommitter{}

	w := NewWorkerInstance(&mockStorage{}, svc, &mockStamper{}, queue, cons, testKeys, t.TempDir())
	w.StartWorker(context.Background())

	require.Equal(t, []string{"done-job"}, cons.committed)
}

func TestLocalName(t *testing.T) {
	uid := uuid.New()
	tests := []struct {
		name string
		job  model.Job
		want string
	}{
		{"user name", model.Job{UID: uid, SourceName: "Summer.JPEG", SourceKey: "src/1.jpg"}, "Summer.jpg"},
		{"path stripped", model.Job{UID: uid, SourceName: "../../etc/clip.mov", SourceKey: "src/1.mov"}, "clip.mov"},
		{"no name", model.Job{UID: uid, SourceKey: "src/1.pdf"}, uid.String() + ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, localName(&tt.job))
		})
	}
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.NRGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
