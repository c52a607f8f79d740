package imageproc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// Font - шрифт, выбранный один раз: либо встроенный векторный, либо внешний TTF/OTF
type Font struct {
	name    string
	path    string
	builtin bool
	sfnt    *opentype.Font
}

func (f Font) Name() string  { return f.name }
func (f Font) Path() string  { return f.path }
func (f Font) Builtin() bool { return f.builtin }

// встроенные шрифты
var builtinFonts = map[string][]byte{
	"go regular":     goregular.TTF,
	"go bold":        gobold.TTF,
	"go italic":      goitalic.TTF,
	"go bold italic": gobolditalic.TTF,
	"go medium":      gomedium.TTF,
	"go mono":        gomono.TTF,
	"go mono bold":   gomonobold.TTF,
	"go smallcaps":   gosmallcaps.TTF,
}

// легаси-имена hershey-шрифтов
var builtinAliases = map[string]string{
	"hershey simplex":        "go regular",
	"hershey plain":          "go mono",
	"hershey duplex":         "go medium",
	"hershey complex":        "go bold",
	"hershey triplex":        "go bold italic",
	"hershey complex small":  "go smallcaps",
	"hershey script simplex": "go italic",
	"hershey script complex": "go mono bold",
}

var outlineExts = []string{".ttf", ".otf"}

// BuiltinFontNames - имена встроенных шрифтов, включая легаси-алиасы
func BuiltinFontNames() []string {
	names := make([]string, 0, len(builtinFonts)+len(builtinAliases))
	for k := range builtinFonts {
		names = append(names, k)
	}
	for k := range builtinAliases {
		names = append(names, k)
	}
	return names
}

// ResolveFont ищет шрифт сначала среди встроенных, потом как файл: явный путь
// или <fontDir>/<selector>.ttf|.otf. Не нашли - ErrFontNotFound.
func ResolveFont(selector, fontDir string) (Font, error) {
	raw := strings.TrimSpace(selector)
	if raw == "" {
		raw = model.DefaultFont
	}

	name := normalizeFontName(raw)
	if alias, ok := builtinAliases[name]; ok {
		name = alias
	}
	if ttf, ok := builtinFonts[name]; ok {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return Font{}, fmt.Errorf("parse builtin font %q: %w", name, err)
		}
		return Font{name: name, builtin: true, sfnt: f}, nil
	}

	path, err := findOutlineFont(raw, fontDir)
	if err != nil {
		return Font{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Font{}, fmt.Errorf("read font file %q: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return Font{}, fmt.Errorf("parse font file %q: %w", path, err)
	}

	return Font{name: raw, path: path, sfnt: f}, nil
}

func findOutlineFont(selector, fontDir string) (string, error) {
	candidates := make([]string, 0, 1+len(outlineExts))

	if hasOutlineExt(selector) {
		candidates = append(candidates, selector)
		if fontDir != "" && !filepath.IsAbs(selector) {
			candidates = append(candidates, filepath.Join(fontDir, selector))
		}
	} else if fontDir != "" {
		for _, ext := range outlineExts {
			candidates = append(candidates, filepath.Join(fontDir, selector+ext))
		}
	}

	for _, c := range candidates {
		st, err := os.Stat(c)
		switch {
		case err == nil && !st.IsDir():
			return c, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("stat font file %q: %w", c, err)
		}
	}

	return "", fmt.Errorf("font %q: %w", selector, model.ErrFontNotFound)
}

func hasOutlineExt(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	for _, e := range outlineExts {
		if ext == e {
			return true
		}
	}
	return false
}

// "FONT_HERSHEY_SIMPLEX", "Hershey-Simplex" и "hershey simplex" - одно и то же
func normalizeFontName(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimPrefix(s, "font ")
}
