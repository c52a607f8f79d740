package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	PreviewSide = 256
	jpegQuality = 100
)

// Thumbnailer - превью результата штамповки для списка задач
func Thumbnailer(r io.Reader, x, y int, format imaging.Format) (io.Reader, int64, error) {
	if r == nil {
		return nil, -1, errors.New("nil-reader baseIMG provided to Thumbnailer")
	}
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to DEcode baseIMG in Thumbnailer: %w", err)
	}

	return encodeImage(imaging.Thumbnail(img, x, y, imaging.Lanczos), format)
}

// encodeImage кодирует растр; JPEG всегда с качеством 100
func encodeImage(img image.Image, format imaging.Format) (io.Reader, int64, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, 0, fmt.Errorf("failed to ENcode result image: %w", err)
	}
	return &buf, int64(buf.Len()), nil
}
