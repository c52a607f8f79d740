package imageproc

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskBackground_PureWhite(t *testing.T) {
	logo := solid(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := MaskBackground(logo)

	for i := 3; i < len(out.Pix); i += 4 {
		require.Zero(t, out.Pix[i])
	}
}

func TestMaskBackground_SinglePixel(t *testing.T) {
	logo := solid(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	logo.SetNRGBA(5, 7, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out := MaskBackground(logo)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			px := out.NRGBAAt(x, y)
			if x == 5 && y == 7 {
				require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, px)
				continue
			}
			require.Zero(t, px.A, "pixel %d,%d", x, y)
			require.Equal(t, uint8(255), px.R, "color channels must stay untouched")
		}
	}
}

func TestMaskBackground_Threshold(t *testing.T) {
	logo := solid(2, 1, color.NRGBA{A: 255})
	logo.SetNRGBA(0, 0, color.NRGBA{R: 239, G: 239, B: 239, A: 255})
	logo.SetNRGBA(1, 0, color.NRGBA{R: 240, G: 240, B: 240, A: 255})

	out := MaskBackground(logo)

	require.Equal(t, uint8(255), out.NRGBAAt(0, 0).A)
	require.Equal(t, uint8(0), out.NRGBAAt(1, 0).A)
}

func TestMaskBackground_BlackBackground(t *testing.T) {
	logo := solid(10, 10, color.NRGBA{A: 255})
	logo.SetNRGBA(3, 3, color.NRGBA{R: 200, G: 0, B: 0, A: 255})

	out := MaskBackground(logo)

	require.Equal(t, uint8(255), out.NRGBAAt(3, 3).A)
	require.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	require.Equal(t, uint8(0), out.NRGBAAt(9, 9).A)
}

func TestMaskBackground_KeepsSourceAlpha(t *testing.T) {
	logo := solid(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 80})

	out := MaskBackground(logo)

	require.Equal(t, uint8(80), out.NRGBAAt(1, 1).A)
	require.Equal(t, uint8(80), logo.NRGBAAt(1, 1).A, "source must not be modified")
}
