package imageproc

import (
	"image"
	"strconv"
	"strings"
)

// Anchor - одна из девяти фиксированных позиций, нумерация построчная: 0 слева сверху, 8 справа снизу
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	MiddleLeft
	MiddleCenter
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

var anchorNames = [...]string{
	"top-left", "top-center", "top-right",
	"middle-left", "middle-center", "middle-right",
	"bottom-left", "bottom-center", "bottom-right",
}

func (a Anchor) String() string {
	if a < TopLeft || a > BottomRight {
		return "anchor(" + strconv.Itoa(int(a)) + ")"
	}
	return anchorNames[a]
}

// row/col: 0 - начало, 1 - середина, 2 - конец оси
func (a Anchor) row() int { return int(a) / 3 }
func (a Anchor) col() int { return int(a) % 3 }

const (
	axisStart = iota
	axisMiddle
	axisEnd
)

var verticalWords = map[string]int{
	"top":    axisStart,
	"atas":   axisStart,
	"bottom": axisEnd,
	"bawah":  axisEnd,
}

var horizontalWords = map[string]int{
	"left":  axisStart,
	"kiri":  axisStart,
	"right": axisEnd,
	"kanan": axisEnd,
}

var middleWords = map[string]bool{
	"center": true,
	"centre": true,
	"middle": true,
	"tengah": true,
}

// ParseAnchor разбирает токен позиции: английский, индонезийский в любом порядке слов
// или легаси-код 0..8. Неизвестный токен дает BottomRight и false.
func ParseAnchor(token string) (Anchor, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return BottomRight, false
	}

	if n, err := strconv.Atoi(t); err == nil {
		if n >= int(TopLeft) && n <= int(BottomRight) {
			return Anchor(n), true
		}
		return BottomRight, false
	}

	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(t))
	if len(words) == 0 || len(words) > 2 {
		return BottomRight, false
	}

	row, col := -1, -1
	for _, w := range words {
		switch {
		case middleWords[w]:
		case row < 0 && hasKey(verticalWords, w):
			row = verticalWords[w]
		case col < 0 && hasKey(horizontalWords, w):
			col = horizontalWords[w]
		default:
			return BottomRight, false
		}
	}

	// одиночное "top" читаем как верх по центру
	if row < 0 {
		row = axisMiddle
	}
	if col < 0 {
		col = axisMiddle
	}
	return Anchor(row*3 + col), true
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

// ResolvePosition - левый верхний угол метки размера mark на основе размера base.
// margin отступ от краев; результат всегда зажат в [0, W-w]x[0, H-h].
func ResolvePosition(a Anchor, base, mark image.Point, margin int) image.Point {
	if a < TopLeft || a > BottomRight {
		a = BottomRight
	}

	x := axisOffset(a.col(), base.X, mark.X, margin)
	y := axisOffset(a.row(), base.Y, mark.Y, margin)

	return clampPoint(image.Pt(x, y), base, mark)
}

func axisOffset(kind, baseLen, markLen, margin int) int {
	switch kind {
	case axisStart:
		return margin
	case axisMiddle:
		return (baseLen - markLen) / 2
	default:
		return baseLen - markLen - margin
	}
}

func clampPoint(p, base, mark image.Point) image.Point {
	return image.Pt(clampInt(p.X, 0, base.X-mark.X), clampInt(p.Y, 0, base.Y-mark.Y))
}

// clampInt зажимает v в [lo, hi]; если hi < lo, возвращает lo
func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
