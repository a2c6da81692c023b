package parser

import (
	"strconv"
	"strings"
)

// Ordinal renders position of an ordered list item.
type Ordinal func(n int) string

// ListStyles maps CSS list-style-type values to item markers.
type ListStyles struct {
	ordinals map[string]Ordinal
	bullets  map[string]string
}

// DefaultListStyles returns registry with decimal, latin and roman ordinals
// and disc, circle and square bullets.
func DefaultListStyles() *ListStyles {
	l := &ListStyles{ordinals: make(map[string]Ordinal), bullets: make(map[string]string)}
	l.RegisterOrdinal("decimal", strconv.Itoa)
	l.RegisterOrdinal("lower-alpha", alpha(false))
	l.RegisterOrdinal("lower-latin", alpha(false))
	l.RegisterOrdinal("upper-alpha", alpha(true))
	l.RegisterOrdinal("upper-latin", alpha(true))
	l.RegisterOrdinal("lower-roman", roman(false))
	l.RegisterOrdinal("upper-roman", roman(true))
	l.RegisterBullet("disc", "•")
	l.RegisterBullet("circle", "◦")
	l.RegisterBullet("square", "■")
	return l
}

// RegisterOrdinal adds or replaces ordinal renderer.
func (l *ListStyles) RegisterOrdinal(style string, fn Ordinal) { l.ordinals[style] = fn }

// RegisterBullet adds or replaces bullet.
func (l *ListStyles) RegisterBullet(style, mark string) { l.bullets[style] = mark }

// Ordinal renders n with style, unknown styles render as decimal.
func (l *ListStyles) Ordinal(style string, n int) string {
	if fn, ok := l.ordinals[strings.TrimSpace(style)]; ok {
		return fn(n)
	}
	return strconv.Itoa(n)
}

// Bullet returns marker for unordered list style, disc when unknown.
func (l *ListStyles) Bullet(style string) string {
	if b, ok := l.bullets[strings.TrimSpace(style)]; ok {
		return b
	}
	return l.bullets["disc"]
}

func alpha(upper bool) Ordinal {
	base := 'a'
	if upper {
		base = 'A'
	}
	return func(n int) string {
		if n <= 0 {
			return strconv.Itoa(n)
		}
		var out []rune
		for n > 0 {
			n--
			out = append([]rune{base + rune(n%26)}, out...)
			n /= 26
		}
		return string(out)
	}
}

var romanNumerals = []struct {
	value int
	digit string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(upper bool) Ordinal {
	return func(n int) string {
		if n <= 0 || n >= 4000 {
			return strconv.Itoa(n)
		}
		var b strings.Builder
		for _, r := range romanNumerals {
			for n >= r.value {
				b.WriteString(r.digit)
				n -= r.value
			}
		}
		if upper {
			return strings.ToUpper(b.String())
		}
		return b.String()
	}
}
