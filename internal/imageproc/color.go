package imageproc

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
)

// BGR - цвет в порядке каналов B, G, R, как его отдают легаси-вызовы
type BGR struct {
	B, G, R uint8
}

// NRGBA переводит цвет в порядок каналов растров Go
func (c BGR) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

var namedColors = map[string]BGR{
	"red":     {B: 0, G: 0, R: 255},
	"green":   {B: 0, G: 255, R: 0},
	"blue":    {B: 255, G: 0, R: 0},
	"black":   {B: 0, G: 0, R: 0},
	"white":   {B: 255, G: 255, R: 255},
	"yellow":  {B: 0, G: 255, R: 255},
	"cyan":    {B: 255, G: 255, R: 0},
	"magenta": {B: 255, G: 0, R: 255},
}

// ResolveColor принимает #RRGGBB (решетка опциональна) или одно из 8 имен цветов
func ResolveColor(s string) (BGR, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[token]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(token, "#")
	if len(hex) != 6 {
		return BGR{}, fmt.Errorf("%q: %w", s, model.ErrInvalidColorFormat)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return BGR{}, fmt.Errorf("%q: %w", s, model.ErrInvalidColorFormat)
	}

	return BGR{
		B: uint8(v),
		G: uint8(v >> 8),
		R: uint8(v >> 16),
	}, nil
}
