package imageproc

import (
	"fmt"
	"image"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/disintegration/imaging"
)

// BuildStamper собирает Stamper из сырых опций: цвет, шрифт, размещение и предобработка
// разрешаются здесь один раз. logo нужен только для логотипа.
func BuildStamper(opts model.WatermarkOptions, logo image.Image, fontDir string) (*Stamper, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var mark WatermarkSpec
	switch opts.Type {
	case model.MarkText:
		c, err := ResolveColor(opts.FontColor)
		if err != nil {
			return nil, err
		}
		f, err := ResolveFont(opts.Font, fontDir)
		if err != nil {
			return nil, err
		}
		mark = TextMark{
			Content:   opts.Text,
			Font:      f,
			Color:     c,
			Thickness: opts.Thickness,
			Scale:     opts.Scale,
		}
	case model.MarkLogo:
		if logo == nil {
			return nil, fmt.Errorf("logo watermark without logo: %w", model.ErrMissingRequiredField)
		}
		mark = LogoMark{Source: logo, Scale: opts.Scale, Masked: HasTransparency(logo)}
	}

	var enh *Enhancer
	if opts.Enhance {
		enh = NewEnhancer(opts.Gamma, opts.Denoise)
	}

	return NewStamper(mark, ParsePlacement(opts.Position, opts.BarHeight), opts.OpacityValue(), enh)
}

// ImageOutputFormat - формат результата для картинок: png или jpg, пусто - как у исходника
func ImageOutputFormat(requested string, source imaging.Format) (imaging.Format, error) {
	if requested == "" {
		return source, nil
	}

	f, err := imaging.FormatFromExtension(requested)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", requested, model.ErrUnsupportedOutputFormat)
	}
	switch f {
	case imaging.PNG, imaging.JPEG:
		return f, nil
	default:
		return 0, fmt.Errorf("%q: %w", requested, model.ErrUnsupportedOutputFormat)
	}
}

// HasTransparency - у логотипа уже есть прозрачные пиксели, значит фон вырезан заранее.
// Общая проверка для растровой и PDF-штамповки.
func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
