// Package video stamps every frame of a video file with the same engine that handles still images.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
)

const defaultFPS = 25.0

// кодеки фиксированы: mp4 -> mp4v, avi -> XVID, mov -> avc1
var codecs = map[string]string{
	"mp4": "mp4v",
	"avi": "XVID",
	"mov": "avc1",
}

// FrameSource отдает кадры по одному; ok == false - поток закончился
type FrameSource interface {
	Read() (frame image.Image, ok bool, err error)
	FPS() float64
	Close() error
}

// FrameSink принимает кадры одного размера, Close дописывает и закрывает файл
type FrameSink interface {
	Write(frame image.Image) error
	Close() error
}

// Backend открывает декодер и кодировщик для файлов на диске
type Backend interface {
	OpenSource(path string) (FrameSource, error)
	CreateSink(path, codec string, fps float64, size image.Point) (FrameSink, error)
}

// FrameStamper - то, что умеет проштамповать один кадр. *imageproc.Stamper подходит.
type FrameStamper interface {
	Stamp(img image.Image) (*image.NRGBA, error)
}

// CodecFor - FourCC кодировщика для формата контейнера
func CodecFor(format string) (string, error) {
	f := normalizeFormat(format)
	c, ok := codecs[f]
	if !ok {
		return "", fmt.Errorf("video format %q: %w", format, model.ErrUnsupportedOutputFormat)
	}
	return c, nil
}

// OutputFormat - формат результата: запрошенный или, если пусто, расширение исходника
func OutputFormat(requested, srcPath string) (string, error) {
	f := normalizeFormat(requested)
	if f == "" {
		f = normalizeFormat(filepath.Ext(srcPath))
	}
	if _, err := CodecFor(f); err != nil {
		return "", err
	}
	return f, nil
}

func normalizeFormat(f string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")
}

type Processor struct {
	backend Backend
}

func NewProcessor(b Backend) *Processor {
	return &Processor{backend: b}
}

// Process читает src кадр за кадром, штампует и пишет в dst. Возвращает число записанных кадров.
// При любой ошибке (включая отмену ctx) частично записанный dst удаляется.
// Декодер и кодировщик закрываются на любом выходе.
func (p *Processor) Process(ctx context.Context, src, dst, format string, s FrameStamper) (frames int, err error) {
	if s == nil {
		return 0, fmt.Errorf("frame stamper is not set: %w", model.ErrMissingRequiredField)
	}
	codec, err := CodecFor(format)
	if err != nil {
		return 0, err
	}

	source, err := p.backend.OpenSource(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", model.ErrVideoUnreadable, src, err)
	}
	defer source.Close()

	fps := source.FPS()
	if fps <= 0 {
		fps = defaultFPS
	}

	var sink FrameSink
	created := false
	defer func() {
		if err == nil || !created {
			return
		}
		if sink != nil {
			_ = sink.Close()
		}
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("remove partial output %q: %w", dst, rmErr))
		}
	}()

	for {
		if err = ctx.Err(); err != nil {
			return frames, err
		}

		frame, ok, rerr := source.Read()
		if rerr != nil {
			return frames, fmt.Errorf("read frame %d: %w", frames, rerr)
		}
		if !ok {
			break
		}

		stamped, serr := s.Stamp(frame)
		if serr != nil {
			return frames, fmt.Errorf("stamp frame %d: %w", frames, serr)
		}

		// размер выхода известен только после первого кадра: BelowBar делает кадр выше
		if sink == nil {
			created = true
			sink, err = p.backend.CreateSink(dst, codec, fps, stamped.Rect.Size())
			if err != nil {
				sink = nil
				return frames, fmt.Errorf("create video writer %q (%s): %w", dst, codec, err)
			}
		}

		if err = sink.Write(stamped); err != nil {
			return frames, fmt.Errorf("write frame %d: %w", frames, err)
		}
		frames++
	}

	if frames == 0 {
		err = fmt.Errorf("%w: %q has no frames", model.ErrVideoUnreadable, src)
		return 0, err
	}

	closeErr := sink.Close()
	sink = nil
	if closeErr != nil {
		err = fmt.Errorf("finalize video %q: %w", dst, closeErr)
		return frames, err
	}

	return frames, nil
}
