package efi

import (
	"strings"
	"testing"
)

func TestFormatMemoryMapCSVHeaderAndMasking(t *testing.T) {
	descriptors := []MemoryDescriptor{
		{Index: 0, Type: MemoryTypeLoaderData, PhysicalStart: 0x1000, NumberOfPages: 1, Attribute: 0xFFFFFFFF},
	}
	csv := FormatMemoryMapCSV(descriptors)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if lines[0] != memoryMapCSVHeader {
		t.Fatalf("header = %q, want %q", lines[0], memoryMapCSVHeader)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "00001000") {
		t.Fatalf("row %q missing zero-padded PhysicalStart", lines[1])
	}
	if !strings.Contains(lines[1], "0xfffff") {
		t.Fatalf("row %q Attribute not masked to low 20 bits: %s", lines[1], lines[1])
	}
	if !strings.Contains(lines[1], "LoaderData") {
		t.Fatalf("row %q missing Type(name)", lines[1])
	}
}
