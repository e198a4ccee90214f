// Package font rasterizes 8x16 ASCII glyphs from a bundled 4 KiB font
// table: 256 rows of 16 bytes each, MSB = left-most pixel (spec.md
// §4.F). The bitmap asset itself is an external collaborator per
// spec.md §1 ("the font bitmap asset" is explicitly out of scope); this
// package only specifies the rasterization contract over whatever blob
// is embedded. glyphs.bin is checked in; tools/fontgen regenerates it
// from a TTF when run by hand (SPEC_FULL §6.E-G).
//
// Grounded on src/mazboot/golang/main/framebuffer_text.go's glyph blit
// loop (bit-test over a font row, write foreground pixels only).
package font

import (
	_ "embed"
	"errors"

	"github.com/iansmith/nucleus/internal/pixel"
)

// GlyphWidth and GlyphHeight are the fixed dimensions of one glyph cell.
const (
	GlyphWidth  = 8
	GlyphHeight = 16
)

// bytesPerGlyph is GlyphHeight rows of one byte each (8 pixels wide fit
// one byte per row).
const bytesPerGlyph = GlyphHeight

// TableSize is the expected size of the bundled font blob: 256 glyphs
// times bytesPerGlyph.
const TableSize = 256 * bytesPerGlyph

//go:embed glyphs.bin
var defaultTable []byte

// ErrBadTableSize is returned by NewTable when the supplied blob is not
// exactly TableSize bytes.
var ErrBadTableSize = errors.New("font: table must be exactly TableSize bytes")

// Table is a loaded 4 KiB glyph table.
type Table struct {
	data []byte
}

// Default returns the Table built from the font blob embedded at
// compile time.
func Default() *Table {
	return &Table{data: defaultTable}
}

// NewTable validates and wraps a caller-supplied glyph blob (used by
// tests).
func NewTable(blob []byte) (*Table, error) {
	if len(blob) != TableSize {
		return nil, ErrBadTableSize
	}
	return &Table{data: blob}, nil
}

// row returns the 16-byte row for ASCII code; characters outside
// U+0000..U+00FF render as code 0 (spec.md §4.F).
func (t *Table) row(code rune) []byte {
	if code < 0 || code > 0xFF {
		code = 0
	}
	start := int(code) * bytesPerGlyph
	return t.data[start : start+bytesPerGlyph]
}

// RenderASCII writes the foreground pixels of one glyph at (x, y);
// background is assumed pre-filled (spec.md §4.F).
func (t *Table) RenderASCII(w *pixel.Writer, x, y uint32, code rune, fg pixel.Color) {
	glyph := t.row(code)
	for row := 0; row < GlyphHeight; row++ {
		bits := glyph[row]
		for col := 0; col < GlyphWidth; col++ {
			// MSB = left-most pixel.
			if bits&(0x80>>uint(col)) != 0 {
				w.Write(x+uint32(col), y+uint32(row), fg)
			}
		}
	}
}

// RenderString advances 8 px per character; it does not wrap or handle
// newlines (spec.md §4.F) — that is internal/console's job.
func (t *Table) RenderString(w *pixel.Writer, x, y uint32, s string, fg pixel.Color) {
	cursor := x
	for _, r := range s {
		t.RenderASCII(w, cursor, y, r, fg)
		cursor += GlyphWidth
	}
}
