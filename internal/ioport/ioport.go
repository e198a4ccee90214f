// Package ioport provides raw x86 port I/O primitives used by the PCI
// configuration-space accessor. The IN/OUT instructions cannot be
// expressed in Go, so the actual access is implemented in a small
// assembly stub (ioport_amd64.s) in this package, the same split the
// teacher kernel uses for ARM64 MMIO load/store (see
// src/mazboot/golang/internal/runtime/atomic/atomic_arm64.go, where
// Xadd/Xchg etc. are declared here and implemented in assembly).

package ioport

// out32 writes value to the given I/O port with a single OUT instruction.
//
//go:noescape
func out32(port uint16, value uint32)

// in32 reads a 32-bit value from the given I/O port with a single IN
// instruction.
//
//go:noescape
func in32(port uint16) uint32

// out8 and in8 are the byte-wide counterparts, used by the 16550 UART
// registers (internal/diag), which are addressed one byte at a time
// unlike the PCI CONFIG_DATA dword port.
//
//go:noescape
func out8(port uint16, value uint8)

//go:noescape
func in8(port uint16) uint8

// Port is the real hardware port-I/O implementation. It satisfies
// pci.PortIO so production code and host-side tests can share the same
// interface, with tests substituting a mock.
type Port struct{}

func (Port) Out32(port uint16, value uint32) { out32(port, value) }

func (Port) In32(port uint16) uint32 { return in32(port) }

func (Port) Out8(port uint16, value uint8) { out8(port, value) }

func (Port) In8(port uint16) uint8 { return in8(port) }
