package diag

// PortIO8 is the byte-wide port access internal/ioport.Port provides;
// declared here so SerialSink can be tested against a mock instead of
// real hardware.
type PortIO8 interface {
	Out8(port uint16, value uint8)
	In8(port uint16) uint8
}

// 16550 UART register offsets from the base port (spec.md's local
// diagnostic channel: there is no serial port named in spec.md, but
// §9's "no diagnostic channel exists until the kernel brings up the
// framebuffer" implies the bootloader-side pre-framebuffer path needs
// one; grounded on src/go/mazarin/uart_qemu.go's PL011 bring-up,
// adapted to the x86 16550's byte-wide port-mapped registers instead
// of PL011's MMIO ones).
const (
	uartOffTHR = 0 // transmit holding register
	uartOffLSR = 5 // line status register
)

const lsrTHREmpty = 1 << 5

// SerialBase is the standard COM1 port.
const SerialBase = 0x3F8

// SerialSink writes to a 16550 UART, spinning on LSR.THRE before each
// byte.
type SerialSink struct {
	Port PortIO8
	Base uint16
}

// NewSerialSink wraps port at the standard COM1 base.
func NewSerialSink(port PortIO8) *SerialSink {
	return &SerialSink{Port: port, Base: SerialBase}
}

func (s *SerialSink) PutString(str string) {
	for i := 0; i < len(str); i++ {
		for s.Port.In8(s.Base+uartOffLSR)&lsrTHREmpty == 0 {
		}
		s.Port.Out8(s.Base+uartOffTHR, str[i])
	}
}

// ConsoleWriter is the subset of internal/console.Console's API a
// diagnostic sink needs.
type ConsoleWriter interface {
	WriteString(s string)
}

// ConsoleSink adapts a ConsoleWriter to Sink.
type ConsoleSink struct {
	Console ConsoleWriter
}

func (c ConsoleSink) PutString(s string) { c.Console.WriteString(s) }
