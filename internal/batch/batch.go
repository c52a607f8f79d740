// Package batch stamps local files: one file is one independent task, files run in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/imageproc"
	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkStamper/internal/pdfstamp"
	"github.com/UnendingLoop/WatermarkStamper/internal/video"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const outputPrefix = "Watermark_"

type Runner struct {
	fontDir string
	workers int
	video   *video.Processor
	pdf     *pdfstamp.Stamper
}

// NewRunner: workers <= 0 - без ограничения параллельности
func NewRunner(fontDir string, backend video.Backend, workers int) *Runner {
	return &Runner{
		fontDir: fontDir,
		workers: workers,
		video:   video.NewProcessor(backend),
		pdf:     pdfstamp.New(),
	}
}

// Run штампует files в outDir. Результаты идут в порядке files; ошибка одного файла не мешает остальным.
func (r *Runner) Run(ctx context.Context, files []string, outDir string, opts model.WatermarkOptions, logo image.Image) []model.StampResult {
	logger := mwlogger.LoggerFromContext(ctx)
	results := make([]model.StampResult, len(files))

	var g errgroup.Group
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}

	for i, f := range files {
		g.Go(func() error {
			fileLogger := logger.With().Str("file", f).Logger()
			fctx := mwlogger.WithLogger(ctx, fileLogger)

			res := model.StampResult{Source: f}
			out, err := r.StampFile(fctx, f, outDir, opts, logo)
			if err != nil {
				res.Err = err.Error()
				fileLogger.Error().Err(err).Msg("file is not stamped")
			} else {
				res.Output = out
				fileLogger.Info().Str("output", out).Msg("file stamped")
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// StampFile штампует один файл и возвращает путь к результату <outDir>/Watermark_<name>.<format>
func (r *Runner) StampFile(ctx context.Context, src, outDir string, opts model.WatermarkOptions, logo image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return "", err
	}

	kind, err := MediaKindOf(src)
	if err != nil {
		return "", err
	}

	switch kind {
	case model.MediaImage:
		return r.stampImage(src, outDir, opts, logo)
	case model.MediaVideo:
		return r.stampVideo(ctx, src, outDir, opts, logo)
	default:
		return r.stampPDF(ctx, src, outDir, opts, logo)
	}
}

func (r *Runner) stampImage(src, outDir string, opts model.WatermarkOptions, logo image.Image) (out string, err error) {
	srcFormat, err := imaging.FormatFromFilename(src)
	if err != nil {
		return "", fmt.Errorf("%q: %w", src, model.ErrUnsupportedFormat)
	}
	format, err := imageproc.ImageOutputFormat(opts.OutputFormat, srcFormat)
	if err != nil {
		return "", err
	}
	s, err := imageproc.BuildStamper(opts, logo, r.fontDir)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	result, _, err := imageproc.Watermarker(in, s, format)
	if err != nil {
		return "", err
	}

	out = OutputPath(outDir, src, imageExt(format))
	return out, writeFile(out, func(f *os.File) error {
		_, err := f.ReadFrom(result)
		return err
	})
}

func (r *Runner) stampVideo(ctx context.Context, src, outDir string, opts model.WatermarkOptions, logo image.Image) (string, error) {
	format, err := video.OutputFormat(opts.OutputFormat, src)
	if err != nil {
		return "", err
	}
	s, err := imageproc.BuildStamper(opts, logo, r.fontDir)
	if err != nil {
		return "", err
	}

	out := OutputPath(outDir, src, format)
	frames, err := r.video.Process(ctx, src, out, format, s)
	if err != nil {
		return "", err
	}

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Debug().Int("frames", frames).Msg("video stamped")
	return out, nil
}

func (r *Runner) stampPDF(ctx context.Context, src, outDir string, opts model.WatermarkOptions, logo image.Image) (string, error) {
	if f := opts.OutputFormat; f != "" && f != "pdf" {
		return "", fmt.Errorf("pdf to %q: %w", f, model.ErrUnsupportedOutputFormat)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out := OutputPath(outDir, src, "pdf")
	return out, writeFile(out, func(f *os.File) error {
		return r.pdf.Stamp(ctx, in, f, opts, logo)
	})
}

// writeFile создает файл и удаляет его, если запись не удалась
func writeFile(path string, fill func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	err = fill(f)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		return err
	}
	return nil
}

// MediaKindOf - тип файла по расширению
func MediaKindOf(path string) (model.MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := model.GetMediaKind[model.GetCTypeByExt[ext]]
	if !ok {
		return "", fmt.Errorf("%q: %w", filepath.Base(path), model.ErrUnsupportedFormat)
	}
	return kind, nil
}

// OutputPath - <outDir>/Watermark_<имя без расширения>.<format>
func OutputPath(outDir, src, format string) string {
	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, outputPrefix+name+"."+strings.TrimPrefix(format, "."))
}

func imageExt(f imaging.Format) string {
	if f == imaging.PNG {
		return "png"
	}
	return "jpg"
}

// LoadLogo открывает логотип: PNG или JPEG
func LoadLogo(path string) (image.Image, error) {
	ct := model.GetCTypeByExt[strings.ToLower(filepath.Ext(path))]
	if !model.InLogoTypeMap[ct] {
		return nil, fmt.Errorf("%q: %w", filepath.Base(path), model.ErrUnsupportedLogo)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	return img, nil
}
