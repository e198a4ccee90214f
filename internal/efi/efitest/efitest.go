// Package efitest provides a fake internal/efi.Environment for
// host-side tests of cmd/bootloader and internal/elfload's firmware
// adapters, so the driver sequencing (spec.md §8 item 7's sibling for
// the bootloader: ordered steps, each must succeed before the next) can
// be verified without QEMU+OVMF.
package efitest

import (
	"errors"

	"github.com/iansmith/nucleus/internal/efi"
	"github.com/iansmith/nucleus/internal/fbconfig"
)

// ErrFileNotFound is returned by Volume.ReadFile for unregistered paths,
// simulating S2 ("kernel.elf absent").
var ErrFileNotFound = errors.New("efitest: file not found")

// Volume is an in-memory RootVolume backed by a path->bytes map.
type Volume struct {
	Files map[string][]byte
}

func NewVolume() *Volume { return &Volume{Files: map[string][]byte{}} }

func (v *Volume) ReadFile(path string) ([]byte, error) {
	data, ok := v.Files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return data, nil
}

func (v *Volume) WriteFile(path string, data []byte) error {
	v.Files[path] = append([]byte(nil), data...)
	return nil
}

// Environment is an in-memory efi.Environment. Reserved pages and the
// exit-boot-services call are recorded for assertions.
type Environment struct {
	Volume        *Volume
	GraphicsMode  fbconfig.Config
	Descriptors   []efi.MemoryDescriptor
	Reservations  []Reservation
	ExitedAtType  efi.MemoryType
	Exited        bool
}

// Reservation records one AllocatePages call.
type Reservation struct {
	Addr    uintptr
	Count   int
	MemType efi.MemoryType
}

func New() *Environment {
	return &Environment{Volume: NewVolume()}
}

func (e *Environment) OpenRootVolume() (efi.RootVolume, error) {
	return e.Volume, nil
}

func (e *Environment) AllocatePages(addr uintptr, count int, memType efi.MemoryType) error {
	e.Reservations = append(e.Reservations, Reservation{Addr: addr, Count: count, MemType: memType})
	return nil
}

func (e *Environment) AllocatePool(memType efi.MemoryType, size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (e *Environment) CurrentGraphicsMode() (fbconfig.Config, error) {
	return e.GraphicsMode, nil
}

func (e *Environment) MemoryMap() ([]efi.MemoryDescriptor, error) {
	return e.Descriptors, nil
}

func (e *Environment) ExitBootServices(memType efi.MemoryType) error {
	e.Exited = true
	e.ExitedAtType = memType
	return nil
}
