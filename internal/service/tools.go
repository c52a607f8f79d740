package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/imageproc"
	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/video"
	"github.com/disintegration/imaging"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}
	if req.Sort == "" {
		req.Sort = model.ByCreated
	}
	if req.Order == "" {
		req.Order = model.OrderDESC
	}

	// Валидируем непустое поле типа сортировки
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByUUID):
		req.Sort = "job_uid"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валадируем непустой порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

// validateNormalizeJob проверяет опции и файлы запроса и переносит чистые значения в задачу
func validateNormalizeJob(raw *model.JobCreateData, clean *model.Job) error {
	opts := raw.Options
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.Type == model.MarkText {
		if _, err := imageproc.ResolveColor(opts.FontColor); err != nil {
			return err
		}
	}

	// корректен ли исходник
	if raw.Source == nil || raw.SourceSize <= 0 {
		return model.ErrEmptySource
	}
	raw.SourceContentType = sourceContentType(raw.SourceContentType, raw.SourceName)
	media, ok := model.GetMediaKind[raw.SourceContentType]
	if !ok {
		return model.ErrUnsupportedFormat
	}

	// корректен ли логотип
	if opts.Type == model.MarkLogo {
		if raw.Logo == nil || raw.LogoSize <= 0 {
			return model.ErrEmptyLogo
		}
		if !model.InLogoTypeMap[raw.LogoContentType] {
			return model.ErrUnsupportedLogo
		}
	}

	if err := validateOutputFormat(media, raw.SourceContentType, opts.OutputFormat); err != nil {
		return err
	}

	clean.Media = media
	clean.SourceName = filepath.Base(raw.SourceName)
	clean.Options = opts
	return nil
}

// sourceContentType - браузеры часто шлют octet-stream, тогда смотрим на расширение имени файла
func sourceContentType(ctype, name string) string {
	ctype = strings.ToLower(strings.TrimSpace(ctype))
	if i := strings.IndexByte(ctype, ';'); i >= 0 {
		ctype = strings.TrimSpace(ctype[:i])
	}
	if ctype == "" || ctype == model.OCTET {
		return model.GetCTypeByExt[strings.ToLower(filepath.Ext(name))]
	}
	return ctype
}

func validateOutputFormat(media model.MediaKind, ctype, requested string) error {
	if requested == "" {
		return nil
	}

	switch media {
	case model.MediaImage:
		src := imaging.JPEG
		if ctype == model.PNG {
			src = imaging.PNG
		}
		_, err := imageproc.ImageOutputFormat(requested, src)
		return err
	case model.MediaVideo:
		_, err := video.CodecFor(requested)
		return err
	case model.MediaPDF:
		if requested != "pdf" {
			return fmt.Errorf("%q: %w", requested, model.ErrUnsupportedOutputFormat)
		}
	}
	return nil
}
