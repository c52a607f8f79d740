package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// gradient - детерминированная непустая картинка, чтобы сравнения не вырождались
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func encoded(t *testing.T, img image.Image, format imaging.Format) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return bytes.NewReader(buf.Bytes())
}

func requireSamePixels(t *testing.T, want, got *image.NRGBA) {
	t.Helper()

	require.Equal(t, want.Rect, got.Rect)
	for y := want.Rect.Min.Y; y < want.Rect.Max.Y; y++ {
		for x := want.Rect.Min.X; x < want.Rect.Max.X; x++ {
			require.Equal(t, want.NRGBAAt(x, y), got.NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}
