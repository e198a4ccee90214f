// Command fontgen rasterizes a TTF into the 4 KiB 8x16 glyph table
// internal/font embeds via //go:embed (spec.md §1: the font bitmap
// asset is an external collaborator, produced by tooling rather than
// hand-authored).
//
// Grounded on tools/imageconvert/main.go's flag-driven image-to-binary
// pipeline, retargeted from whole-image ARGB8888 dumps to per-glyph
// 1bpp rows, and on src/mazboot/golang/go.mod's
// fogleman/gg + golang/freetype + golang.org/x/image stack, which this
// tool is the one place in the repo that actually exercises at
// runtime (internal/font only consumes its output).
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	glyphWidth    = 8
	glyphHeight   = 16
	bytesPerGlyph = glyphHeight
	tableSize     = 256 * bytesPerGlyph
)

func main() {
	ttfPath := flag.String("ttf", "", "path to a monospace TTF to rasterize")
	outPath := flag.String("out", "glyphs.bin", "output path for the 4 KiB glyph table")
	points := flag.Float64("points", 11, "font size in points")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fontgen -ttf <font.ttf> -out glyphs.bin\n")
		fmt.Fprintf(os.Stderr, "Rasterizes ASCII 0x00-0xFF into 8x16 1bpp cells.\n")
	}
	flag.Parse()

	if *ttfPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*ttfPath, *outPath, *points); err != nil {
		fmt.Fprintf(os.Stderr, "fontgen: %v\n", err)
		os.Exit(1)
	}
}

func run(ttfPath, outPath string, points float64) error {
	raw, err := os.ReadFile(ttfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ttfPath, err)
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing TTF: %w", err)
	}

	table := make([]byte, 0, tableSize)
	for code := 0; code < 256; code++ {
		row, err := rasterizeGlyph(parsed, rune(code), points)
		if err != nil {
			return fmt.Errorf("rasterizing code %#02x: %w", code, err)
		}
		table = append(table, row...)
	}

	if err := os.WriteFile(outPath, table, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("wrote %d bytes (%d glyphs) to %s\n", len(table), len(table)/bytesPerGlyph, outPath)
	return nil
}

// rasterizeGlyph renders one glyph cell and packs it MSB-first into
// glyphHeight bytes, matching internal/font's row format. Codes
// outside the printable ASCII range (and any glyph the face has no
// outline for) render as a blank cell rather than .notdef's box, since
// the console treats unprintable bytes as control characters upstream.
func rasterizeGlyph(face *truetype.Font, code rune, points float64) ([]byte, error) {
	dc := gg.NewContext(glyphWidth, glyphHeight)
	dc.SetColor(image.Black)
	dc.Clear()

	if printable(code) && face.Index(code) != 0 {
		rgba, ok := dc.Image().(*image.RGBA)
		if !ok {
			return nil, fmt.Errorf("gg context did not produce an *image.RGBA")
		}

		fc := freetype.NewContext()
		fc.SetDPI(72)
		fc.SetFont(face)
		fc.SetFontSize(points)
		fc.SetClip(rgba.Bounds())
		fc.SetDst(rgba)
		fc.SetSrc(image.White)
		fc.SetHinting(font.HintingFull)

		baseline := fixed.I(glyphHeight - 4)
		if _, err := fc.DrawString(string(code), fixed.Point26_6{X: 0, Y: baseline}); err != nil {
			return nil, err
		}
	}

	row := make([]byte, bytesPerGlyph)
	img := dc.Image()
	for y := 0; y < glyphHeight; y++ {
		var b byte
		for x := 0; x < glyphWidth; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r+g+bl > 0x8000*3 {
				b |= 0x80 >> uint(x)
			}
		}
		row[y] = b
	}
	return row, nil
}

// printable excludes the C0 control range, matching what a monospace
// terminal font typically ships glyphs for.
func printable(code rune) bool {
	return code >= 0x20 && code <= 0xFF
}
