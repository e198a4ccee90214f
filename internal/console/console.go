// Package console implements a cursor-tracked scrolling text console
// directly on the framebuffer (spec.md §4.G). The console is a
// write-only sink: it never reads back framebuffer contents except for
// the scroll copy itself (spec.md §4.G).
//
// Grounded on src/mazboot/golang/main/framebuffer_text.go's scroll
// region copy and cursor-advance logic, generalized from the Pi
// framebuffer's fixed pitch/height constants to fbconfig.Config's
// resolution/stride.
package console

import (
	"unsafe"

	"github.com/iansmith/nucleus/internal/fbconfig"
	"github.com/iansmith/nucleus/internal/font"
	"github.com/iansmith/nucleus/internal/pixel"
)

// Console holds cursor position and color state over a pixel.Writer.
// Invariants (spec.md §3): Col ∈ [0, MaxCols), Row ∈ [0, MaxRows);
// MaxCols = horizontal/8, MaxRows = vertical/16.
type Console struct {
	writer  *pixel.Writer
	glyphs  *font.Table
	cfg     fbconfig.Config
	col     uint32
	row     uint32
	maxCols uint32
	maxRows uint32
	fg      pixel.Color
	bg      pixel.Color
}

// New constructs a Console borrowing writer (which in turn borrows cfg)
// and glyphs, with the given foreground/background colors.
func New(cfg fbconfig.Config, writer *pixel.Writer, glyphs *font.Table, fg, bg pixel.Color) *Console {
	return &Console{
		writer:  writer,
		glyphs:  glyphs,
		cfg:     cfg,
		maxCols: cfg.Resolution.Horizontal / font.GlyphWidth,
		maxRows: cfg.Resolution.Vertical / font.GlyphHeight,
		fg:      fg,
		bg:      bg,
	}
}

// Clear fills the entire framebuffer with color and resets the cursor
// to the origin. Supplements spec.md per original_source's console,
// which clears to a single color before the first write (S1: "screen
// cleared to white").
func (c *Console) Clear(color pixel.Color) {
	c.writer.Fill(color)
	c.bg = color
	c.col, c.row = 0, 0
}

// WriteString writes s one character at a time through WriteRune's
// semantics, honoring '\n' and column wrap.
func (c *Console) WriteString(s string) {
	for _, r := range s {
		c.WriteRune(r)
	}
}

// WriteRune writes one character (spec.md §4.G):
//   - '\n' advances to the next line.
//   - otherwise: render the glyph at the current cell, then advance
//     the column; if the column runs off the end of the row, advance
//     to the next line.
func (c *Console) WriteRune(r rune) {
	if r == '\n' {
		c.advanceLine()
		return
	}
	x := c.col * font.GlyphWidth
	y := c.row * font.GlyphHeight
	c.glyphs.RenderASCII(c.writer, x, y, r, c.fg)
	c.col++
	if c.col == c.maxCols {
		c.advanceLine()
	}
}

// advanceLine implements spec.md §4.G's newline semantics: column
// resets to 0; if there is a row below, move to it; otherwise scroll
// the framebuffer up by one text row and clear the new bottom row.
func (c *Console) advanceLine() {
	c.col = 0
	if c.row < c.maxRows-1 {
		c.row++
		return
	}
	c.scroll()
}

// scroll copies framebuffer rows [GlyphHeight, GlyphHeight*maxRows) up
// by GlyphHeight pixel rows in one stride-respecting block copy, then
// clears the bottom text row to bg. Row remains at maxRows-1.
func (c *Console) scroll() {
	base := c.cfg.FrameBufferBase
	rowBytes := uintptr(c.cfg.Stride) * fbconfig.BytesPerPixel
	scrollBytes := uintptr(font.GlyphHeight) * rowBytes
	totalBytes := uintptr(c.maxRows) * uintptr(font.GlyphHeight) * rowBytes

	dst := unsafe.Slice((*byte)(unsafe.Pointer(base)), totalBytes)
	copy(dst[:totalBytes-scrollBytes], dst[scrollBytes:totalBytes])

	c.clearBottomRow()
}

// clearBottomRow fills the last text row (GlyphHeight pixel rows,
// maxCols*GlyphWidth pixels wide) with bg.
func (c *Console) clearBottomRow() {
	top := (c.maxRows - 1) * font.GlyphHeight
	width := c.maxCols * font.GlyphWidth
	for y := top; y < top+font.GlyphHeight; y++ {
		for x := uint32(0); x < width; x++ {
			c.writer.Write(x, y, c.bg)
		}
	}
}

// Cursor returns the current (col, row), for tests.
func (c *Console) Cursor() (col, row uint32) { return c.col, c.row }

// MaxCols and MaxRows expose the computed grid dimensions.
func (c *Console) MaxCols() uint32 { return c.maxCols }
func (c *Console) MaxRows() uint32 { return c.maxRows }
