// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

type JobHandler struct {
	service JobService
}

type JobService interface {
	Create(ctx context.Context, data *model.JobCreateData) (*model.Job, error)
	Delete(ctx context.Context, id string) error                               // удалить как в базе, так и в minio
	Get(ctx context.Context, id string) (*model.Job, error)                    // статус задачи
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)  // прям скачать результат
	LoadPreview(ctx context.Context, id string) (io.ReadCloser, string, error) // превью картинки
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error)  // получить список
}

func NewJobHandler(svc JobService) *JobHandler {
	return &JobHandler{
		service: svc,
	}
}

func (h JobHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h JobHandler) Create(ctx *ginext.Context) {
	opts, err := parseOptions(ctx)
	if err != nil {
		ctx.JSON(400, map[string]string{"error": err.Error()})
		return
	}

	// парсинг исходника
	srcFile, srcHeader, err := ctx.Request.FormFile("source")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "source file is required"})
		return
	}
	defer closeFileFlow(ctx.Request.Context(), srcFile)

	// собираем все в структуру
	data := model.JobCreateData{
		Options:           opts,
		SourceName:        srcHeader.Filename,
		Source:            srcFile,
		SourceContentType: srcHeader.Header.Get("Content-Type"),
		SourceSize:        srcHeader.Size,
	}

	// парсинг логотипа если есть - обязателен только для type=logo, это проверит сервис
	logoFile, logoHeader, err := ctx.Request.FormFile("logo")
	if err == nil {
		defer closeFileFlow(ctx.Request.Context(), logoFile)
		data.Logo = logoFile
		data.LogoContentType = logoHeader.Header.Get("Content-Type")
		data.LogoSize = logoHeader.Size
	}

	// передаем в сервис
	res, err := h.service.Create(ctx.Request.Context(), &data)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

// parseOptions читает опции штамповки из полей формы; пустые поля остаются нулевыми, дефолты выставит сервис
func parseOptions(ctx *ginext.Context) (model.WatermarkOptions, error) {
	opts := model.WatermarkOptions{
		Type:         ctx.PostForm("type"),
		Text:         ctx.PostForm("text"),
		Font:         ctx.PostForm("font"),
		FontColor:    ctx.PostForm("font_color"),
		Position:     ctx.PostForm("position"),
		OutputFormat: ctx.PostForm("output_format"),
	}

	var err error
	if v := strings.TrimSpace(ctx.PostForm("opacity")); v != "" {
		op, pErr := strconv.ParseFloat(v, 64)
		if pErr != nil {
			return opts, fmt.Errorf("opacity %q: %w", v, model.ErrIncorrectQuery)
		}
		opts.Opacity = &op
	}
	if opts.Scale, err = formFloat(ctx, "scale"); err != nil {
		return opts, err
	}
	if opts.Gamma, err = formFloat(ctx, "gamma"); err != nil {
		return opts, err
	}
	if opts.Thickness, err = formInt(ctx, "thickness"); err != nil {
		return opts, err
	}
	if opts.BarHeight, err = formInt(ctx, "bar_height"); err != nil {
		return opts, err
	}
	if opts.Enhance, err = formBool(ctx, "enhance"); err != nil {
		return opts, err
	}
	if opts.Denoise, err = formBool(ctx, "denoise"); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h JobHandler) GetAllJobs(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h JobHandler) GetJob(ctx *ginext.Context) {
	res, err := h.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h JobHandler) LoadResult(ctx *ginext.Context) {
	h.stream(ctx, h.service.LoadResult)
}

func (h JobHandler) LoadPreview(ctx *ginext.Context) {
	h.stream(ctx, h.service.LoadPreview)
}

func (h JobHandler) stream(ctx *ginext.Context, load func(context.Context, string) (io.ReadCloser, string, error)) {
	id := ctx.Param("id")

	res, cType, err := load(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(ctx.Request.Context(), res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Error().Err(err).Int64("written", n).Str("job_uid", id).Msg("Failed to write response")
	}
}

func (h JobHandler) Delete(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
