// Package pixel implements a pixel-format-dispatched framebuffer writer
// (spec.md §4.E). The RGB8-vs-BGR8 byte order is chosen once, at
// construction, via a captured function value — not a per-pixel branch
// — because the write loop runs per-pixel over a multi-megapixel
// surface (spec.md §9 Design Notes).
//
// Grounded on src/mazboot/golang/main/framebuffer_text.go's WritePixel/
// WritePixelAlpha (direct byte-offset store into the framebuffer),
// restructured around fbconfig.Config instead of the Pi mailbox
// FramebufferInfo.
package pixel

import (
	"unsafe"

	"github.com/iansmith/nucleus/internal/fbconfig"
)

// Color is an 8-bit-per-channel RGB color; the fourth framebuffer byte
// is unused padding (spec.md §3: "each pixel occupies 4 bytes
// regardless of format").
type Color struct {
	R, G, B uint8
}

// storeFunc writes a Color's three bytes in the order the pixel format
// requires, at the given byte pointer.
type storeFunc func(ptr unsafe.Pointer, c Color)

func storeRGB8(ptr unsafe.Pointer, c Color) {
	bytes := (*[4]byte)(ptr)
	bytes[0], bytes[1], bytes[2] = c.R, c.G, c.B
}

func storeBGR8(ptr unsafe.Pointer, c Color) {
	bytes := (*[4]byte)(ptr)
	bytes[0], bytes[1], bytes[2] = c.B, c.G, c.R
}

// Writer writes pixels directly onto a linear framebuffer. Bounds are
// not checked (spec.md §4.E): callers must not exceed resolution, a
// contract the console and callers uphold by construction (spec.md §9).
type Writer struct {
	cfg   fbconfig.Config
	store storeFunc
}

// New constructs a Writer for cfg, selecting the byte-store function
// once up front based on cfg.PixelFormat.
func New(cfg fbconfig.Config) *Writer {
	w := &Writer{cfg: cfg}
	switch cfg.PixelFormat {
	case fbconfig.PixelFormatBGR8:
		w.store = storeBGR8
	default:
		w.store = storeRGB8
	}
	return w
}

// Resolution returns the framebuffer's pixel dimensions, the source of
// truth callers use to bound their own loops (spec.md §9).
func (w *Writer) Resolution() fbconfig.Resolution { return w.cfg.Resolution }

// Write plots color at (x, y).
func (w *Writer) Write(x, y uint32, c Color) {
	offset := w.cfg.PixelOffset(x, y)
	ptr := unsafe.Pointer(uintptr(w.cfg.BasePointer()) + offset)
	w.store(ptr, c)
}

// Fill writes color to every pixel in the framebuffer, used once at
// kernel entry to clear the screen (SPEC_FULL §7, S1: "screen cleared
// to white").
func (w *Writer) Fill(c Color) {
	for y := uint32(0); y < w.cfg.Resolution.Vertical; y++ {
		for x := uint32(0); x < w.cfg.Resolution.Horizontal; x++ {
			w.Write(x, y, c)
		}
	}
}
