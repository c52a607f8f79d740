// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkStamper/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type JobService struct {
	repo      repository.JobRepo
	publisher TaskPublisher
	storage   ObjectStorage
	keys      KeyPrefixes
}

func NewJobService(repo repository.JobRepo, pub TaskPublisher, strg ObjectStorage, keys KeyPrefixes) *JobService {
	return &JobService{
		repo:      repo,
		publisher: pub,
		storage:   strg,
		keys:      keys,
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

func (c JobService) Create(ctx context.Context, data *model.JobCreateData) (*model.Job, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	newJob := &model.Job{}

	// Валидируем опции и файлы
	if err := validateNormalizeJob(data, newJob); err != nil {
		return nil, err
	}

	// генерируем UUID
	newJob.UID = uuid.New()
	logger = logger.With().Str("job_uid", newJob.UID.String()).Logger()

	// кладем в хранилище исходник
	newJob.SourceKey = c.keys.Source + newJob.UID.String() + model.GetFileExt[data.SourceContentType]
	if err := c.storage.Put(ctx, newJob.SourceKey, data.SourceSize, data.SourceContentType, data.Source); err != nil {
		logger.Error().Err(err).Msg("Failed to save source file in Storage")
		return nil, model.ErrCommon500
	}

	// кладем в хранилище логотип - если штампуем логотипом
	if newJob.Options.Type == model.MarkLogo {
		newJob.LogoKey = c.keys.Logo + newJob.UID.String() + model.GetFileExt[data.LogoContentType]
		if err := c.storage.Put(ctx, newJob.LogoKey, data.LogoSize, data.LogoContentType, data.Logo); err != nil {
			logger.Error().Err(err).Msg("Failed to save logo in Storage")
			return nil, model.ErrCommon500
		}
	}

	// ставим статус и таймстамп
	newJob.Status = model.StatusCreated
	now := time.Now().UTC()
	newJob.CreatedAt = &now

	// шлем в базу
	if err := c.repo.Create(ctx, newJob); err != nil {
		logger.Error().Err(err).Msg("Failed to create job in DB")
		return nil, model.ErrCommon500
	}

	// кладем в очередь задач(в кафку); значение - тип медиа, воркеру пригодится для логов
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(newJob.UID.String()), []byte(newJob.Media)); err != nil {
		logger.Error().Err(err).Msg("Failed to publish job to task-queue")
		return nil, model.ErrCommon500
	}

	logger.Info().Str("media", string(newJob.Media)).Str("type", newJob.Options.Type).Msg("job created")
	return newJob, nil
}

func (c JobService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch jobs list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	return c.fetch(ctx, id)
}

// fetch - чтение задачи с переводом ошибок репозитория в ошибки сервиса
func (c JobService) fetch(ctx context.Context, id string) (*model.Job, error) {
	res, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return nil, model.ErrJobNotFound // 404
		}
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch job %q from DB", id))
		return nil, model.ErrCommon500
	}
	return res, nil
}

// LoadResult - проштампованный файл
func (c JobService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return c.load(ctx, id, func(j *model.Job) string { return j.ResultKey })
}

// LoadPreview - превью 256x256, есть только у картинок
func (c JobService) LoadPreview(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return c.load(ctx, id, func(j *model.Job) string { return j.PreviewKey })
}

func (c JobService) load(ctx context.Context, id string, key func(*model.Job) string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, "", model.ErrIncorrectID
	}

	res, err := c.fetch(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if res.Status != model.StatusDone || key(res) == "" {
		return nil, "", model.ErrResultNotReady
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, key(res))
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch result of job %q from Storage", id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c JobService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}

	// читаем из базы
	res, err := c.fetch(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return model.ErrJobNotFound
		}
		logger.Error().Err(err).Msg("Failed to delete job from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища исходник, логотип, результат и превью (пустые ключи пропускаются)
	for _, key := range []string{res.SourceKey, res.LogoKey, res.ResultKey, res.PreviewKey} {
		if key == "" {
			continue
		}
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to delete object from Storage")
			return model.ErrCommon500
		}
	}

	return nil
}

func (c JobService) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}
	if !model.StatusMap[newStat] {
		return model.ErrIncorrectStatus
	}

	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.UpdateStatus(ctx, id, newStat); err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFound):
			return model.ErrJobNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to update job status in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// SaveResult сохраняет итог задачи: ключи результата при успехе или текст ошибки при провале
func (c JobService) SaveResult(ctx context.Context, input *model.Job) error {
	logger := mwlogger.LoggerFromContext(ctx)
	t := time.Now().UTC()
	input.UpdatedAt = &t
	if err := c.repo.SaveResult(ctx, input); err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFound):
			return model.ErrJobNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to save job result in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

func (c JobService) ReviveOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphans from DB")
		return
	}

	for _, v := range orphans {
		// воркер пропускает задачи in_progress, поэтому сначала возвращаем статус created
		if err := c.repo.UpdateStatus(ctx, v, model.StatusCreated); err != nil {
			logger.Error().Err(err).Str("job_uid", v).Msg("Failed to reset orphan status in DB")
			continue
		}
		if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(v), nil); err != nil {
			logger.Error().Err(err).Str("job_uid", v).Msg("Failed to publish orphan to queue")
		}
	}
}
