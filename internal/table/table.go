// Package table loads AML payloads from DSDT/SSDT images on disk for the
// CLI tools. Locating tables in firmware memory (RSDP/RSDT/XSDT scanning) is
// a separate collaborator this module does not carry; this package only
// unwraps the common System Description Table header from a file the user
// already extracted, e.g. via acpidump or /sys/firmware/acpi/tables.
package table

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// headerLen is the size of the common SDT header, per ACPI sec. 5.2.6.
const headerLen = 36

// Image is one loaded AML payload plus the header fields the interpreter
// cares about.
type Image struct {
	Signature  string
	Revision   uint8
	OEMID      string
	OEMTableID string
	Data       []byte // AML bytecode, header stripped
}

// Load reads path and returns its AML payload. Files carrying a full SDT
// header (signature DSDT/SSDT/PSDT, little-endian length at offset 4, revision
// at offset 8) are unwrapped; anything else is treated as a bare AML stream
// with ACPI 2.0 (64-bit integer) semantics.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) >= headerLen {
		sig := string(raw[0:4])
		if sig == "DSDT" || sig == "SSDT" || sig == "PSDT" {
			length := binary.LittleEndian.Uint32(raw[4:8])
			if int(length) > len(raw) || length < headerLen {
				return nil, fmt.Errorf("table %s: header declares %d bytes, file has %d", path, length, len(raw))
			}
			return &Image{
				Signature:  sig,
				Revision:   raw[8],
				OEMID:      strings.TrimRight(string(raw[10:16]), "\x00 "),
				OEMTableID: strings.TrimRight(string(raw[16:24]), "\x00 "),
				Data:       raw[headerLen:length],
			}, nil
		}
	}
	return &Image{Signature: "RAW", Revision: 2, Data: raw}, nil
}
