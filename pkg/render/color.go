package render

import (
	"fmt"
	"math"
)

// HSL is a colour in hue (degrees), saturation and lightness (percent).
type HSL struct {
	H, S, L float64
}

// ConnectionColor returns the colour of connection index i.
func ConnectionColor(i int) HSL {
	return HSL{H: float64(((i%6)+6)%6) * 60, S: 70, L: 50}
}

// CSS formats the colour as a CSS hsl() value.
func (c HSL) CSS() string {
	return fmt.Sprintf("hsl(%g, %g%%, %g%%)", c.H, c.S, c.L)
}

// Hex formats the colour as #rrggbb.
func (c HSL) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGB converts the colour to 8-bit channels.
func (c HSL) RGB() (r, g, b uint8) {
	s, l := c.S/100, c.L/100
	chroma := (1 - math.Abs(2*l-1)) * s
	h := math.Mod(c.H, 360) / 60
	x := chroma * (1 - math.Abs(math.Mod(h, 2)-1))

	var rf, gf, bf float64
	switch {
	case h < 1:
		rf, gf = chroma, x
	case h < 2:
		rf, gf = x, chroma
	case h < 3:
		gf, bf = chroma, x
	case h < 4:
		gf, bf = x, chroma
	case h < 5:
		rf, bf = x, chroma
	default:
		rf, bf = chroma, x
	}
	m := l - chroma/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return to8(rf), to8(gf), to8(bf)
}
