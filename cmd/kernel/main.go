// Command kernel is the freestanding kernel entry point (spec.md §4,
// component chain E/F/G → C/D → J). It receives one FrameBufferConfig
// by value under the System V AMD64 ABI, with interrupts disabled and
// firmware services already exited (spec.md §6).
//
// Grounded on src/go/mazarin/kernel.go's KernelMain: init a diagnostic
// channel first, bring up the display, then walk through the rest of
// bring-up logging a line at each step, ending in an idle loop instead
// of returning (there is nothing to return to).
package main

import (
	"github.com/iansmith/nucleus/internal/console"
	"github.com/iansmith/nucleus/internal/diag"
	"github.com/iansmith/nucleus/internal/fbconfig"
	"github.com/iansmith/nucleus/internal/font"
	"github.com/iansmith/nucleus/internal/ioport"
	"github.com/iansmith/nucleus/internal/mmio"
	"github.com/iansmith/nucleus/internal/pci"
	"github.com/iansmith/nucleus/internal/pixel"
	"github.com/iansmith/nucleus/internal/xhci"
)

var (
	white = pixel.Color{R: 255, G: 255, B: 255}
	black = pixel.Color{}
)

//go:noescape
func halt()

// KernelMain is the entry point the bootloader jumps to after exiting
// boot services (spec.md §4.I step 8). It never returns.
//
//go:nosplit
//go:noinline
func KernelMain(cfg fbconfig.Config) {
	writer := pixel.New(cfg)
	glyphs := font.Default()
	con := console.New(cfg, writer, glyphs, black, white)
	con.Clear(white)

	d := diag.New(diag.ConsoleSink{Console: con})

	accessor := &pci.Accessor{Port: ioport.Port{}}
	scanner := pci.Scanner{Accessor: accessor, Trace: d}

	d.PutString("ScanAllBus:\n")
	enumeration := scanner.ScanAll()

	xhciFn, ok := enumeration.FindXHCI()
	if !ok {
		d.PutString("no xHCI controller found\n")
		haltForever()
	}

	bar0, err := accessor.BAR(xhciFn.Device.Bus, xhciFn.Device.Device, xhciFn.Device.Function, 0)
	if err != nil {
		d.PutString("BAR0 read failed\n")
		haltForever()
	}
	mmioBase := uintptr(bar0 &^ 0xF)
	d.PutString("mmio_base: 0x")
	d.PutHex64(uint64(mmioBase))
	d.PutString("\n")

	region := mmio.Region{Base: mmioBase}
	accessor.MMIO = physicalMMIO{}

	err = xhci.Bringup(region, xhci.Config{
		RuntimeBase: runtimeRegisterSetOffset(region),
		CommandRing: xhci.NewCommandRingBuffer(),
		EventSeg:    &xhci.EventRingSegment{},
		ERST:        &xhci.EventRingSegmentTable{},
		MSI:         accessor,
		Bus:         xhciFn.Device.Bus,
		Device:      xhciFn.Device.Device,
		Func:        xhciFn.Device.Function,
		APIC:        xhci.HardwareAPIC{MMIO: mmio.Region{Base: 0xFEE00000}},
	})
	if err != nil {
		d.PutString("xHCI bring-up failed\n")
		haltForever()
	}

	d.PutString("Finished\n")
	haltForever()
}

// runtimeRegisterSetOffset reads RTSOFF from the capability register
// block (spec.md §4.J's MMIO base note: "the controller's MMIO base is
// bar(0) & ~0xF"; RTSOFF locates the runtime registers within that
// window).
const capOffRTSOFF = 0x18

func runtimeRegisterSetOffset(region mmio.Region) uint32 {
	return region.Read32(capOffRTSOFF) &^ 0x1F
}

// physicalMMIO adapts internal/mmio to pci.MMIO, whose addresses are
// absolute physical addresses (BAR value plus table offset) rather than
// offsets into one register window.
type physicalMMIO struct{}

func (physicalMMIO) Read32(addr uint64) uint32 {
	return mmio.Region{Base: uintptr(addr)}.Read32(0)
}

func (physicalMMIO) Write32(addr uint64, value uint32) {
	mmio.Region{Base: uintptr(addr)}.Write32(0, value)
}

func haltForever() {
	for {
		halt()
	}
}

// main is never called; KernelMain is invoked directly by cmd/bootloader
// after exiting boot services. It exists so the linker keeps this
// package's symbols, matching the teacher's dummy main() in kernel.go.
func main() {
	KernelMain(fbconfig.Config{})
}
