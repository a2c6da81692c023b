package css

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	rgbFunc    = regexp.MustCompile(`(?i)rgba?\(\s*([\d.]+%?)\s*[, ]\s*([\d.]+%?)\s*[, ]\s*([\d.]+%?)\s*(?:[,/]\s*([\d.]+%?)\s*)?\)`)
	lengthUnit = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)(px|em|rem|pt|pc|cm|mm|in|ex|ch|vw|vh|vmin|vmax|%)?$`)
)

// ToHex rewrites every rgb()/rgba() function and every hex color in value to
// the lowercase #rrggbb form. Named colors and keywords are left untouched.
func ToHex(value string) string {
	value = rgbFunc.ReplaceAllStringFunc(value, func(m string) string {
		parts := rgbFunc.FindStringSubmatch(m)
		if parts[4] != "" {
			if a, ok := channel(parts[4], 1); ok && a == 0 {
				return "transparent"
			}
		}
		r, okR := channel(parts[1], 255)
		g, okG := channel(parts[2], 255)
		b, okB := channel(parts[3], 255)
		if !okR || !okG || !okB {
			return m
		}
		return colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hex()
	})
	if strings.HasPrefix(value, "#") {
		if c, err := colorful.Hex(expandShortHex(value)); err == nil {
			return c.Hex()
		}
	}
	return value
}

func channel(s string, scale float64) (float64, bool) {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v = v * scale / 100
	}
	return math.Max(0, math.Min(v, scale)), true
}

func expandShortHex(s string) string {
	if len(s) != 4 {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}

// RemoveUnit returns the leading numeric value of a CSS length, 0 when value
// does not start with a number.
func RemoveUnit(value string) float64 {
	value = strings.TrimSpace(value)
	end := 0
	for i, r := range value {
		if unicode.IsDigit(r) || r == '.' || (i == 0 && (r == '-' || r == '+')) {
			end = i + 1
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(value[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// IsColor reports whether value is a color the serializer can represent.
func IsColor(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	switch {
	case value == "":
		return false
	case strings.HasPrefix(value, "#"):
		_, err := colorful.Hex(expandShortHex(value))
		return err == nil
	case rgbFunc.MatchString(value):
		return true
	}
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// IsNumber reports whether value is a plain number.
func IsNumber(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}

// IsLength reports whether value is a number with an optional length unit.
func IsLength(value string) bool {
	return lengthUnit.MatchString(strings.ToLower(strings.TrimSpace(value)))
}

// IsURL reports whether value parses as an absolute or relative URL without
// a script scheme.
func IsURL(value string) bool {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return !strings.EqualFold(u.Scheme, "javascript")
}
