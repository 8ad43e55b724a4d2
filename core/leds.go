package core

import (
	"errors"
	"image/color"
)

var ErrNoLEDs = errors.New("LED strip not available")

// DefaultBrightness is applied to a new strip.
const DefaultBrightness = 40

// Color is a packed 0xRRGGBB value.
type Color uint32

// Common colors.
const (
	Off    Color = 0x000000
	Red    Color = 0xFF0000
	Green  Color = 0x00FF00
	Blue   Color = 0x0000FF
	White  Color = 0xFFFFFF
	Yellow Color = 0xFFFF00
	Purple Color = 0xFF00FF
)

// RGB packs three channels.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// RGBA unpacks c scaled by brightness/255.
func (c Color) RGBA(brightness uint8) color.RGBA {
	scale := func(v uint32) uint8 { return uint8(v * uint32(brightness) / 255) }
	return color.RGBA{
		R: scale(uint32(c>>16) & 0xFF),
		G: scale(uint32(c>>8) & 0xFF),
		B: scale(uint32(c) & 0xFF),
		A: 0xFF,
	}
}

// PixelWriter pushes a frame to addressable LEDs. The tinygo ws2812 device
// satisfies it.
type PixelWriter interface {
	WriteColors(buf []color.RGBA) error
}

// LEDStrip buffers pixel colors until Show.
type LEDStrip struct {
	writer     PixelWriter
	pixels     []Color
	frame      []color.RGBA
	brightness uint8
}

// NewLEDStrip builds a strip of count pixels. A negative count means none.
func NewLEDStrip(w PixelWriter, count int) *LEDStrip {
	if count < 0 {
		count = 0
	}
	return &LEDStrip{
		writer:     w,
		pixels:     make([]Color, count),
		frame:      make([]color.RGBA, count),
		brightness: DefaultBrightness,
	}
}

func (l *LEDStrip) Len() int {
	return len(l.pixels)
}

// Pixel returns the buffered color at i, or Off when out of range.
func (l *LEDStrip) Pixel(i int) Color {
	if i < 0 || i >= len(l.pixels) {
		return Off
	}
	return l.pixels[i]
}

// SetPixel buffers c at i. Out of range indices are ignored.
func (l *LEDStrip) SetPixel(i int, c Color) {
	if i >= 0 && i < len(l.pixels) {
		l.pixels[i] = c
	}
}

func (l *LEDStrip) Fill(c Color) {
	for i := range l.pixels {
		l.pixels[i] = c
	}
}

func (l *LEDStrip) Clear() {
	l.Fill(Off)
}

func (l *LEDStrip) SetBrightness(b uint8) {
	l.brightness = b
}

func (l *LEDStrip) Brightness() uint8 {
	return l.brightness
}

// Rainbow spreads the hue circle across the strip.
func (l *LEDStrip) Rainbow() {
	n := len(l.pixels)
	for i := range l.pixels {
		l.pixels[i] = hueColor(i * 360 / n)
	}
}

// Shift moves pixels n places up the strip (down when negative), filling
// vacated places with Off.
func (l *LEDStrip) Shift(n int) {
	count := len(l.pixels)
	if n == 0 || count == 0 {
		return
	}
	if n >= count || -n >= count {
		l.Clear()
		return
	}
	if n > 0 {
		copy(l.pixels[n:], l.pixels[:count-n])
		for i := 0; i < n; i++ {
			l.pixels[i] = Off
		}
		return
	}
	copy(l.pixels, l.pixels[-n:])
	for i := count + n; i < count; i++ {
		l.pixels[i] = Off
	}
}

// Rotate moves pixels n places up the strip, wrapping around.
func (l *LEDStrip) Rotate(n int) {
	count := len(l.pixels)
	if count == 0 {
		return
	}
	n %= count
	if n < 0 {
		n += count
	}
	if n == 0 {
		return
	}
	rotated := make([]Color, count)
	for i, c := range l.pixels {
		rotated[(i+n)%count] = c
	}
	copy(l.pixels, rotated)
}

// Show writes the buffer, scaled by brightness, to the LEDs.
func (l *LEDStrip) Show() error {
	for i, c := range l.pixels {
		l.frame[i] = c.RGBA(l.brightness)
	}
	return l.writer.WriteColors(l.frame)
}

// hueColor returns the fully saturated color at hue degrees.
func hueColor(hue int) Color {
	hue %= 360
	x := uint8((60 - abs(hue%120-60)) * 255 / 60)
	switch hue / 60 {
	case 0:
		return RGB(255, x, 0)
	case 1:
		return RGB(x, 255, 0)
	case 2:
		return RGB(0, 255, x)
	case 3:
		return RGB(0, x, 255)
	case 4:
		return RGB(x, 0, 255)
	default:
		return RGB(255, 0, x)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
