// Package worker contains methods for worker to init at start, and to process stamping jobs
package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/imageproc"
	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkStamper/internal/service"
	"github.com/disintegration/imaging"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// NoopPublisher - ЗАГЛУШКА, функциональность настоящего паблишера в очередь не нужна в рамках работы воркера
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, k []byte, v []byte) error {
	return nil
}

type JobWorkerService interface {
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	SaveResult(ctx context.Context, res *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// FileStamper - штамповка одного локального файла; *batch.Runner подходит
type FileStamper interface {
	StampFile(ctx context.Context, src, outDir string, opts model.WatermarkOptions, logo image.Image) (string, error)
}

// Committer - подтверждение обработанного сообщения очереди
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

type Worker struct {
	storage  service.ObjectStorage
	service  JobWorkerService
	stamper  FileStamper
	queue    <-chan kafkago.Message
	consumer Committer
	keys     service.KeyPrefixes
	tmpDir   string
}

func NewWorkerInstance(strg service.ObjectStorage, svc JobWorkerService, st FileStamper, q <-chan kafkago.Message, cons Committer, keys service.KeyPrefixes, tmpDir string) *Worker {
	return &Worker{storage: strg, service: svc, stamper: st, queue: q, consumer: cons, keys: keys, tmpDir: tmpDir}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				zlog.Logger.Info().Msg("Queue channel closed, stopping worker...")
				return
			}
			id := string(msg.Key)
			logger := zlog.Logger.With().Str("job_uid", id).Logger()
			jobCtx := mwlogger.WithLogger(ctx, logger)

			if err := w.initProcessor(jobCtx, id); err != nil && !errors.Is(err, model.ErrJobNotFound) {
				logger.Error().Err(err).Msg("Task failed")
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				logger.Error().Err(err).Msg("Failed to commit queue-message")
			}
		}
	}
}

func (w *Worker) initProcessor(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)

	// считать из базы задачу
	task, err := w.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("worker failed to fetch job %q from DB: %w", id, err)
	}
	// проверить статус
	switch task.Status {
	case model.StatusDone, model.StatusFailed:
		return nil
	case model.StatusInProgress:
		return fmt.Errorf("already in progress")
	}

	// на всякий случай проверить поле с результатом
	if task.ResultKey != "" && strings.HasPrefix(task.ResultKey, w.keys.Result) {
		if err := w.service.UpdateStatus(ctx, id, model.StatusDone); err != nil {
			return fmt.Errorf("failed to update status of already-done task in DB: %w", err)
		}
		return nil
	}

	// обновить статус
	if err := w.service.UpdateStatus(ctx, id, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to update status of task %q to `in_progress` in DB: %w", id, err)
	}

	// выполняем саму операцию; ошибка штамповки сохраняется в задаче
	if pErr := w.processTask(ctx, task); pErr != nil {
		task.Status = model.StatusFailed
		task.ErrMsg = append(task.ErrMsg, pErr.Error())
		if uErr := w.service.SaveResult(ctx, task); uErr != nil {
			return fmt.Errorf("failed to set status of task %q to `failed` in DB: %w \nAFTER\n error while processing task: %w", id, uErr, pErr)
		}
		// провал сохранен в задаче, повторять нечего - сообщение можно коммитить
		logger.Error().Err(pErr).Msg("job failed")
		return nil
	}

	logger.Info().Str("result", task.ResultKey).Msg("job done")
	return nil
}

func (w *Worker) processTask(ctx context.Context, task *model.Job) error {
	dir, err := os.MkdirTemp(w.tmpDir, "job-*")
	if err != nil {
		return fmt.Errorf("worker failed to create temp dir: %w", err)
	}
	defer removeDir(ctx, dir)

	// достать из storage исходник; имя файла - как у пользователя, чтобы результат назывался Watermark_<имя>
	srcPath := filepath.Join(dir, localName(task))
	if err := w.download(ctx, task.SourceKey, srcPath); err != nil {
		return fmt.Errorf("worker failed to fetch source from storage: %w", err)
	}

	var logo image.Image
	if task.Options.Type == model.MarkLogo {
		logo, err = w.loadLogo(ctx, task.LogoKey)
		if err != nil {
			return err
		}
	}

	// выполнить штамповку
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return fmt.Errorf("worker failed to create output dir: %w", err)
	}
	out, err := w.stamper.StampFile(ctx, srcPath, outDir, task.Options, logo)
	if err != nil {
		return fmt.Errorf("worker failed to stamp %s: %w", task.Media, err)
	}

	// положить результат в сторедж если ошибок нет на предыдущем этапе
	ext := strings.ToLower(filepath.Ext(out))
	resKey := w.keys.Result + task.UID.String() + ext
	if err := w.upload(ctx, out, resKey); err != nil {
		return fmt.Errorf("worker failed to put result to storage: %w", err)
	}
	task.ResultKey = resKey

	// превью только для картинок
	if task.Media == model.MediaImage {
		prevKey := w.keys.Preview + task.UID.String() + ext
		if err := w.uploadPreview(ctx, out, prevKey); err != nil {
			return fmt.Errorf("worker failed to put preview to storage: %w", err)
		}
		task.PreviewKey = prevKey
	}

	task.Status = model.StatusDone

	// обновить запись в БД
	if err := w.service.SaveResult(ctx, task); err != nil {
		return fmt.Errorf("worker failed to save result to DB: %w", err)
	}
	return nil
}

// localName - имя исходника без пути; расширение берем из ключа, оно выставлено по content-type
func localName(task *model.Job) string {
	ext := filepath.Ext(task.SourceKey)
	name := strings.TrimSuffix(filepath.Base(task.SourceName), filepath.Ext(task.SourceName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = task.UID.String()
	}
	return name + ext
}

func (w *Worker) download(ctx context.Context, key, path string) error {
	r, _, err := w.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer closeFileFlow(ctx, r)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Worker) loadLogo(ctx context.Context, key string) (image.Image, error) {
	r, _, err := w.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("worker failed to fetch logo from storage: %w", err)
	}
	defer closeFileFlow(ctx, r)

	logo, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("worker failed to decode logo: %v: %w", err, model.ErrUnsupportedLogo)
	}
	return logo, nil
}

func (w *Worker) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	ctype := model.GetCTypeByExt[strings.ToLower(filepath.Ext(path))]
	return w.storage.Put(ctx, key, st.Size(), ctype, f)
}

func (w *Worker) uploadPreview(ctx context.Context, path, key string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	preview, size, err := imageproc.Thumbnailer(f, imageproc.PreviewSide, imageproc.PreviewSide, format)
	if err != nil {
		return err
	}
	return w.storage.Put(ctx, key, size, model.GetCType[format], preview)
}

func closeFileFlow(ctx context.Context, res io.ReadCloser) {
	if res == nil {
		return
	}

	if err := res.Close(); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Worker failed to close fileflow")
	}
}

func removeDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Str("dir", dir).Msg("Worker failed to remove temp dir")
	}
}
