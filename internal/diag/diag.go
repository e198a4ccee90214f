// Package diag factors the manual hex/decimal-digit printing the
// bootloader and kernel both need for diagnostics into one reusable
// type, instead of the inline digit loop repeated at dozens of call
// sites (grounded on src/go/mazarin/uart_qemu.go's uartPutc call
// sites, each of which hand-rolls its own formatting).
package diag

// Sink is anything that can accept a string: a text console once the
// framebuffer is up, or a raw serial port before it.
type Sink interface {
	PutString(s string)
}

const hexDigits = "0123456789ABCDEF"

// Writer adds numeric formatting over a Sink.
type Writer struct {
	sink Sink
}

// New wraps sink.
func New(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// PutString writes s verbatim.
func (w *Writer) PutString(s string) {
	w.sink.PutString(s)
}

// PutHex32 writes v as 8 zero-padded uppercase hex digits.
func (w *Writer) PutHex32(v uint32) {
	w.sink.PutString(formatHex(uint64(v), 8))
}

// PutHex64 writes v as 16 zero-padded uppercase hex digits.
func (w *Writer) PutHex64(v uint64) {
	w.sink.PutString(formatHex(v, 16))
}

// PutDec writes v in decimal, no leading zeros (0 prints as "0").
func (w *Writer) PutDec(v uint64) {
	w.sink.PutString(formatDec(v))
}

func formatHex(v uint64, digits int) string {
	buf := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf)
}

func formatDec(v uint64) string {
	if v == 0 {
		return "0"
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return string(tmp[i:])
}
