// Package imageproc provides the watermark engine: colour and font resolution, background masking,
// saliency-guided and anchored placement, text rasterization, compositing and source enhancement.
package imageproc

import (
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Watermarker декодирует исходник из b, штампует его и кодирует результат в format
func Watermarker(b io.Reader, s *Stamper, format imaging.Format) (io.Reader, int64, error) {
	if b == nil {
		return nil, 0, errors.New("nil-reader baseIMG provided")
	}
	if s == nil {
		return nil, 0, errors.New("nil stamper provided")
	}

	base, err := imaging.Decode(b, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("decode base image: %w", err)
	}

	result, err := s.Stamp(base)
	if err != nil {
		return nil, 0, fmt.Errorf("stamp base image: %w", err)
	}

	return encodeImage(result, format)
}
