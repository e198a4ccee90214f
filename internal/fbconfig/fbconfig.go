// Package fbconfig defines FrameBufferConfig, the sole handoff contract
// between the bootloader and the kernel. Its layout is fixed and any
// field addition is a breaking ABI change (spec.md §4.A).
//
// Grounded on src/mazboot/golang/main/framebuffer_common.go's
// FramebufferInfo, the teacher's equivalent "carry the framebuffer
// description across a boundary" struct, generalized from the Pi
// mailbox-allocated buffer to the UEFI Graphics Output Protocol mode.
package fbconfig

import "unsafe"

// PixelFormat identifies the byte order the framebuffer expects.
type PixelFormat uint8

const (
	PixelFormatRGB8 PixelFormat = iota
	PixelFormatBGR8
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB8:
		return "RGB8"
	case PixelFormatBGR8:
		return "BGR8"
	default:
		return "unknown"
	}
}

// Resolution is a horizontal/vertical pixel pair.
type Resolution struct {
	Horizontal uint32
	Vertical   uint32
}

// Config carries the linear framebuffer base pointer, pixel layout,
// resolution and stride across the bootloader→kernel boundary. Each
// pixel occupies 4 bytes regardless of PixelFormat. The backing memory
// belongs to firmware but remains valid after boot-services exit; the
// kernel owns this value for the rest of runtime.
//
// The struct is 24 bytes with Go's natural 8-byte alignment (no 16-byte
// alignment is imposed) and is passed by value as the kernel entry
// point's sole argument under the System V AMD64 calling convention
// (spec.md §6).
type Config struct {
	FrameBufferBase uintptr
	Resolution      Resolution
	Stride          uint32 // pixels per scanline; Stride >= Resolution.Horizontal
	PixelFormat     PixelFormat
}

// BytesPerPixel is fixed regardless of PixelFormat.
const BytesPerPixel = 4

// PixelOffset computes the byte offset of pixel (x, y) within the
// framebuffer, respecting Stride rather than Resolution.Horizontal —
// Stride may be wider than the visible resolution.
func (c Config) PixelOffset(x, y uint32) uintptr {
	return uintptr(BytesPerPixel) * (uintptr(c.Stride)*uintptr(y) + uintptr(x))
}

// BasePointer returns FrameBufferBase as an unsafe.Pointer for use by
// internal/pixel. Kept as a named accessor (rather than exposing
// unsafe.Pointer in the struct itself) so Config stays a plain,
// comparable, ABI-stable value type.
func (c Config) BasePointer() unsafe.Pointer {
	return unsafe.Pointer(c.FrameBufferBase) //nolint:govet // ABI boundary cast
}
