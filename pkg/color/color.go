package color

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA is a normalized color. R, G and B are always in 0-255 and A is always
// in 0.0-1.0.
type RGBA struct {
	R, G, B uint8
	A       float64
}

// Transparent is the result for empty or malformed color strings.
var Transparent = RGBA{}

// Colorful converts the color channels to a go-colorful value. Alpha is dropped.
func (c RGBA) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Hex returns the color channels as "#rrggbb".
func (c RGBA) Hex() string {
	return c.Colorful().Hex()
}

// String returns the color in rgba() notation.
func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// Normalize parses a color string into an RGBA value.
//
// A leading '#' selects packed hex parsing: the digits are read as one
// integer and the channels are taken from fixed bit positions (red 16, green
// 8, blue 0, alpha 24). A six digit literal has no alpha byte and therefore
// normalizes to alpha 0.
//
// Anything else is read as functional notation. Missing RGB components are 0,
// a missing alpha is 1.
func Normalize(spec string) RGBA {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Transparent
	}
	if strings.HasPrefix(spec, "#") {
		return parseHex(spec[1:])
	}
	return parseFunctional(spec)
}

func parseHex(digits string) RGBA {
	if digits == "" {
		return Transparent
	}
	num, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Transparent
	}
	return RGBA{
		R: uint8(num >> 16),
		G: uint8(num >> 8),
		B: uint8(num),
		A: float64(uint8(num>>24)) / 255,
	}
}

func parseFunctional(spec string) RGBA {
	open := strings.IndexByte(spec, '(')
	if open < 0 {
		return Transparent
	}
	body := spec[open+1:]
	if end := strings.IndexByte(body, ')'); end >= 0 {
		body = body[:end]
	}

	tokens := splitComponents(body)
	if len(tokens) == 0 {
		return Transparent
	}

	out := RGBA{A: 1}
	channels := [3]*uint8{&out.R, &out.G, &out.B}
	for i, tok := range tokens {
		switch {
		case i < 3:
			*channels[i] = parseChannel(tok)
		case i == 3:
			out.A = parseAlpha(tok)
		}
	}
	return out
}

// splitComponents splits on commas when any comma is present, otherwise on
// whitespace. In whitespace syntax the "/" alpha separator is dropped.
func splitComponents(body string) []string {
	var raw []string
	if strings.Contains(body, ",") {
		raw = strings.Split(body, ",")
	} else {
		raw = strings.Fields(strings.ReplaceAll(body, "/", " / "))
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == "/" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func parseChannel(tok string) uint8 {
	if pct, ok := strings.CutSuffix(tok, "%"); ok {
		return clampByte(math.Round(parseNumber(pct) / 100 * 255))
	}
	return clampByte(math.Round(parseNumber(tok)))
}

func parseAlpha(tok string) float64 {
	if pct, ok := strings.CutSuffix(tok, "%"); ok {
		return clampUnit(parseNumber(pct) / 100)
	}
	return clampUnit(parseNumber(tok))
}

// parseNumber returns 0 for anything that is not a finite number.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func clampUnit(v float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}
