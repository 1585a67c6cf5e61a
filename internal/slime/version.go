package slime

import "fmt"

// Magic is the fixed two byte marker every slime stream starts with.
var Magic = [2]byte{0xB1, 0x0B}

// FormatVersion is the container revision this package reads and writes.
// Revision 0x09 fixes the trailing blob order to extra data, then map data.
const FormatVersion byte = 0x09

// WorldVersion is the world layout byte stored in the header. It selects the
// block id table the voxel data was written against.
type WorldVersion uint8

const (
	V1_8    WorldVersion = 0x01
	V1_9    WorldVersion = 0x02
	V1_11   WorldVersion = 0x03
	V1_13   WorldVersion = 0x04
	V1_13_2 WorldVersion = 0x05
)

var worldVersionNames = map[WorldVersion]string{
	V1_8:    "1.8",
	V1_9:    "1.9",
	V1_11:   "1.11",
	V1_13:   "1.13",
	V1_13_2: "1.13.2",
}

func (v WorldVersion) String() string {
	if name, ok := worldVersionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// Valid reports whether v is a layout this package knows how to read.
func (v WorldVersion) Valid() bool {
	_, ok := worldVersionNames[v]
	return ok
}

// ParseWorldVersion parses a version name such as "1.8" or "1.13.2".
func ParseWorldVersion(name string) (WorldVersion, error) {
	for v, n := range worldVersionNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown world version %q", ErrUnsupportedVersion, name)
}
