// Package pdfstamp puts a text or logo watermark on every page of a PDF document.
package pdfstamp

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/imageproc"
	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const textMargin = 10 // в пунктах

// коды якорей pdfcpu в порядке imageproc.Anchor
var anchorCodes = [...]string{"tl", "tc", "tr", "l", "c", "r", "bl", "bc", "br"}

// шрифты PDF из стандартного набора, которые ближе всего к встроенным
var pdfFonts = map[string]string{
	"go regular":     "Helvetica",
	"go medium":      "Helvetica",
	"go bold":        "Helvetica-Bold",
	"go italic":      "Helvetica-Oblique",
	"go bold italic": "Helvetica-BoldOblique",
	"go smallcaps":   "Times-Roman",
	"go mono":        "Courier",
	"go mono bold":   "Courier-Bold",
}

const defaultPDFFont = "Helvetica"

// Descriptor - параметры штампа pdfcpu в наших терминах
type Descriptor struct {
	Anchor   imageproc.Anchor
	Margin   int
	Scale    float64
	Opacity  float64
	Color    *imageproc.BGR // только для текста
	FontName string         // только для текста
}

// String собирает строку описания для api.TextWatermark/api.ImageWatermarkForReader
func (d Descriptor) String() string {
	a := d.Anchor
	if a < imageproc.TopLeft || a > imageproc.BottomRight {
		a = imageproc.BottomRight
	}

	parts := []string{
		"position:" + anchorCodes[a],
		fmt.Sprintf("scalefactor:%.2f rel", d.Scale),
		fmt.Sprintf("opacity:%.2f", d.Opacity),
		"rotation:0",
	}
	if dx, dy := offset(a, d.Margin); dx != 0 || dy != 0 {
		parts = append(parts, fmt.Sprintf("offset:%d %d", dx, dy))
	}
	if d.FontName != "" {
		parts = append(parts, "fontname:"+d.FontName)
	}
	if d.Color != nil {
		parts = append(parts, fmt.Sprintf("fillcolor:%.3f %.3f %.3f",
			float64(d.Color.R)/255, float64(d.Color.G)/255, float64(d.Color.B)/255))
	}

	return strings.Join(parts, ", ")
}

// offset сдвигает метку внутрь страницы; у PDF ось y смотрит вверх
func offset(a imageproc.Anchor, margin int) (int, int) {
	if margin <= 0 {
		return 0, 0
	}
	var dx, dy int
	switch int(a) % 3 {
	case 0:
		dx = margin
	case 2:
		dx = -margin
	}
	switch int(a) / 3 {
	case 0:
		dy = -margin
	case 2:
		dy = margin
	}
	return dx, dy
}

// Stamper штампует PDF по опциям задачи. Один Stamper можно звать из нескольких горутин:
// pdfcpu пишет в переданную конфигурацию, поэтому она своя на каждый вызов Stamp.
type Stamper struct {
	validation int
}

func New() *Stamper {
	return &Stamper{validation: pdfmodel.ValidationRelaxed}
}

func (s *Stamper) config() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = s.validation
	return conf
}

// Stamp читает PDF из rs и пишет проштампованный в w. Для логотипа нужен logo.
// Auto и BelowBar для PDF не поддерживаются: растра для анализа нет, ставим в правый нижний угол
// (или по центру снизу для полосы) и пишем об этом в лог.
func (s *Stamper) Stamp(ctx context.Context, rs io.ReadSeeker, w io.Writer, opts model.WatermarkOptions, logo image.Image) error {
	logger := mwlogger.LoggerFromContext(ctx)

	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	d := Descriptor{
		Anchor:  imageproc.BottomRight,
		Scale:   opts.Scale,
		Opacity: opts.OpacityValue(),
	}

	p := imageproc.ParsePlacement(opts.Position, opts.BarHeight)
	switch p.Kind {
	case imageproc.PlaceAuto:
		logger.Info().Str("position", opts.Position).Msg("auto placement is not available for PDF, using bottom-right")
	case imageproc.PlaceBelowBar:
		d.Anchor = imageproc.BottomCenter
		logger.Info().Str("position", opts.Position).Msg("below-bar placement is not available for PDF, using bottom-center")
	default:
		d.Anchor = p.Anchor
	}

	var (
		wm  *pdfmodel.Watermark
		err error
	)
	switch opts.Type {
	case model.MarkText:
		c, cErr := imageproc.ResolveColor(opts.FontColor)
		if cErr != nil {
			return cErr
		}
		f, fErr := imageproc.ResolveFont(opts.Font, "")
		name := defaultPDFFont
		if fErr == nil {
			if n, ok := pdfFonts[f.Name()]; ok {
				name = n
			}
		} else {
			logger.Info().Str("font", opts.Font).Msg("font is not one of the builtin fonts, PDF uses Helvetica")
		}

		d.Margin = textMargin
		d.Color = &c
		d.FontName = name
		wm, err = api.TextWatermark(opts.Text, d.String(), true, false, types.POINTS)
	case model.MarkLogo:
		if logo == nil || logo.Bounds().Empty() {
			return fmt.Errorf("logo watermark without logo: %w", model.ErrMissingRequiredField)
		}
		masked := imaging.Clone(logo)
		if !imageproc.HasTransparency(logo) {
			masked = imageproc.MaskBackground(logo)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, masked, imaging.PNG); err != nil {
			return fmt.Errorf("encode logo for PDF: %w", err)
		}
		wm, err = api.ImageWatermarkForReader(&buf, d.String(), true, false, types.POINTS)
	}
	if err != nil {
		return fmt.Errorf("build PDF watermark: %w", err)
	}

	if err := api.AddWatermarks(rs, w, nil, wm, s.config()); err != nil {
		return fmt.Errorf("stamp PDF pages: %w", err)
	}
	return nil
}
