package imageproc

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestBlendLogo_OpacityZero(t *testing.T) {
	base := gradient(50, 40)
	before := imaging.Clone(base)
	logo := solid(10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	require.NoError(t, BlendLogo(base, logo, image.Pt(5, 5), 0))
	requireSamePixels(t, before, base)
}

func TestBlendLogo_OpacityOne(t *testing.T) {
	base := gradient(50, 40)
	before := imaging.Clone(base)
	logo := gradient(10, 8)
	pos := image.Pt(30, 20)

	require.NoError(t, BlendLogo(base, logo, pos, 1))

	rect := image.Rectangle{Min: pos, Max: pos.Add(logo.Rect.Size())}
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			got := base.NRGBAAt(x, y)
			if image.Pt(x, y).In(rect) {
				want := logo.NRGBAAt(x-pos.X, y-pos.Y)
				require.Equal(t, [3]uint8{want.R, want.G, want.B}, [3]uint8{got.R, got.G, got.B})
				continue
			}
			require.Equal(t, before.NRGBAAt(x, y), got)
		}
	}
}

func TestBlendLogo_Formula(t *testing.T) {
	base := solid(4, 4, color.NRGBA{R: 100, G: 200, B: 0, A: 255})
	logo := solid(2, 2, color.NRGBA{R: 200, G: 0, B: 255, A: 128})

	require.NoError(t, BlendLogo(base, logo, image.Pt(1, 1), 0.5))

	w := 128.0 / 255 * 0.5
	want := color.NRGBA{
		R: roundByte(200*w + 100*(1-w)),
		G: roundByte(0*w + 200*(1-w)),
		B: roundByte(255*w + 0*(1-w)),
		A: 255,
	}
	require.Equal(t, want, base.NRGBAAt(1, 1))
	require.Equal(t, want, base.NRGBAAt(2, 2))
	require.Equal(t, color.NRGBA{R: 100, G: 200, B: 0, A: 255}, base.NRGBAAt(0, 0))
}

func TestBlendLogo_Idempotent(t *testing.T) {
	once := gradient(60, 60)
	twice := gradient(60, 60)
	logo := gradient(12, 12)
	pos := image.Pt(7, 9)

	require.NoError(t, BlendLogo(once, logo, pos, 1))
	require.NoError(t, BlendLogo(twice, logo, pos, 1))
	require.NoError(t, BlendLogo(twice, logo, pos, 1))

	requireSamePixels(t, once, twice)
}

func TestBlendLogo_OutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		pos  image.Point
		logo image.Point
	}{
		{"past right edge", image.Pt(45, 0), image.Pt(10, 10)},
		{"past bottom edge", image.Pt(0, 35), image.Pt(10, 10)},
		{"negative offset", image.Pt(-1, 0), image.Pt(10, 10)},
		{"logo larger than base", image.Pt(0, 0), image.Pt(51, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := gradient(50, 40)
			before := imaging.Clone(base)

			err := BlendLogo(base, solid(tt.logo.X, tt.logo.Y, color.NRGBA{A: 255}), tt.pos, 1)

			require.ErrorIs(t, err, model.ErrPlacementOutOfBounds)
			requireSamePixels(t, before, base)
		})
	}
}

func TestBlendLogo_ExactFit(t *testing.T) {
	base := gradient(20, 20)
	require.NoError(t, BlendLogo(base, solid(20, 20, color.NRGBA{A: 255}), image.Pt(0, 0), 1))
	require.Equal(t, color.NRGBA{A: 255}, base.NRGBAAt(19, 19))
}

func TestBlendText_GlobalMix(t *testing.T) {
	base := solid(20, 20, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	rect := image.Rect(2, 2, 6, 6)

	res := BlendText(base, func(overlay *image.NRGBA) {
		draw.Draw(overlay, rect, image.NewUniform(color.NRGBA{R: 200, G: 0, B: 51, A: 255}), image.Point{}, draw.Src)
	}, 0.5)

	require.Same(t, base, res, "base must be mutated in place and returned")
	require.Equal(t, color.NRGBA{R: 150, G: 50, B: 76, A: 255}, base.NRGBAAt(3, 3))
	require.Equal(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, base.NRGBAAt(10, 10))
}

func TestBlendText_OpacityBounds(t *testing.T) {
	paint := func(overlay *image.NRGBA) {
		draw.Draw(overlay, overlay.Rect, image.NewUniform(color.NRGBA{R: 255, A: 255}), image.Point{}, draw.Src)
	}

	invisible := BlendText(solid(4, 4, color.NRGBA{B: 255, A: 255}), paint, -3)
	require.Equal(t, color.NRGBA{B: 255, A: 255}, invisible.NRGBAAt(1, 1))

	opaque := BlendText(solid(4, 4, color.NRGBA{B: 255, A: 255}), paint, 7)
	require.Equal(t, color.NRGBA{R: 255, A: 255}, opaque.NRGBAAt(1, 1))
}
