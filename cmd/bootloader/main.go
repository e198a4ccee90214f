// Command bootloader is the UEFI-hosted firmware-boundary driver
// (spec.md §4.I). It reads the kernel ELF image from the EFI system
// partition, parses and scatter-loads its PT_LOAD segments, writes the
// firmware memory map, exits boot services, and jumps to the kernel
// entry point.
//
// Grounded on src/go/mazarin/kernel.go's KernelMain sequencing idiom
// (log each bring-up step, halt with a diagnostic on any failure); the
// UEFI protocol calls themselves have no teacher analogue (the teacher
// targets Raspberry Pi with no firmware boundary) and are abstracted
// behind internal/efi.Environment per spec.md §9's Design Note.
package main

import (
	"unsafe"

	"github.com/iansmith/nucleus/internal/efi"
	"github.com/iansmith/nucleus/internal/elfload"
	"github.com/iansmith/nucleus/internal/fbconfig"
)

const (
	kernelPath = `\kernel.elf`
	memmapPath = `\memmap`
)

//go:noescape
func callEntry(entry uintptr, cfg *byte, cfgSize uintptr)

// BootMain runs spec.md §4.I's ordered steps against env and jumps to
// the kernel. Any failure before the jump is fatal: the bootloader
// halts by returning a non-nil error to its caller, which prints the
// diagnostic and never returns to firmware (spec.md §7: "in the
// bootloader, any error is fatal").
func BootMain(env efi.Environment) error {
	entry, cfg, err := Prepare(env)
	if err != nil {
		return err
	}
	jumpToKernel(entry, cfg)
	return nil // unreachable: the kernel entry point never returns
}

// Prepare runs every step of spec.md §4.I up to (and including) exiting
// boot services, returning the kernel entry point and FrameBufferConfig
// the caller must jump to next. Split out from BootMain so the driver
// sequencing can be exercised on the host without actually transferring
// control (spec.md §8's host-side mocks).
func Prepare(env efi.Environment) (entryPoint uint64, cfg fbconfig.Config, err error) {
	return prepare(env, physicalMemory{})
}

// prepare is Prepare with the scatter-load destination injected, so
// host-side tests can substitute an in-memory arena instead of writing
// to real physical addresses.
func prepare(env efi.Environment, mem elfload.Memory) (entryPoint uint64, cfg fbconfig.Config, err error) {
	vol, err := env.OpenRootVolume()
	if err != nil {
		return 0, fbconfig.Config{}, err
	}

	descriptors, err := env.MemoryMap()
	if err != nil {
		return 0, fbconfig.Config{}, err
	}
	if err := vol.WriteFile(memmapPath, []byte(efi.FormatMemoryMapCSV(descriptors))); err != nil {
		return 0, fbconfig.Config{}, err
	}

	cfg, err = env.CurrentGraphicsMode()
	if err != nil {
		return 0, fbconfig.Config{}, err
	}

	image, err := vol.ReadFile(kernelPath)
	if err != nil {
		return 0, fbconfig.Config{}, err
	}
	pool, err := env.AllocatePool(efi.MemoryTypeLoaderData, len(image))
	if err != nil {
		return 0, fbconfig.Config{}, err
	}
	copy(pool, image)

	entryPoint, err = elfload.Load(pool, pageAllocator{env: env}, mem)
	if err != nil {
		return 0, fbconfig.Config{}, err
	}

	if err := env.ExitBootServices(efi.MemoryTypeLoaderData); err != nil {
		return 0, fbconfig.Config{}, err
	}

	return entryPoint, cfg, nil
}

// jumpToKernel casts entry to a function taking FrameBufferConfig by
// value under the System V AMD64 ABI and calls it (spec.md §4.I step
// 8). After this point firmware services are gone; there is no
// diagnostic channel until the kernel brings up the framebuffer
// (spec.md §4.I).
func jumpToKernel(entry uint64, cfg fbconfig.Config) {
	callEntry(uintptr(entry), (*byte)(unsafe.Pointer(&cfg)), unsafe.Sizeof(cfg))
}

// main exists so the linker keeps this package's symbols; the real
// entry point is whatever the UEFI loader's PE header names, wired at
// link time outside this module (spec.md §1: "build/link/packaging
// mechanics" are explicitly out of scope).
func main() {}
