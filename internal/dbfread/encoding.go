package dbfread

import (
	"fmt"
	"strings"

	"github.com/axgle/mahonia"
)

const (
	// AutoEncoding picks the codepage from each file's language driver byte.
	AutoEncoding = "auto"
	// DefaultEncoding is used when the header names no known codepage.
	DefaultEncoding = "UTF8"

	languageDriverOffset = 29
)

// encodingAliases maps the codepage names xBase tools use to names mahonia
// registers. Candidates are tried in order.
var encodingAliases = map[string][]string{
	"cp437":  {"cp437", "ibm437"},
	"cp737":  {"cp737", "ibm737"},
	"cp850":  {"cp850", "ibm850"},
	"cp852":  {"cp852", "ibm852"},
	"cp857":  {"cp857", "ibm857"},
	"cp861":  {"cp861", "ibm861"},
	"cp865":  {"cp865", "ibm865"},
	"cp866":  {"cp866", "ibm866"},
	"cp1250": {"windows-1250"},
	"cp1251": {"windows-1251"},
	"cp1252": {"windows-1252"},
	"cp1253": {"windows-1253"},
	"cp1254": {"windows-1254"},
	"cp1255": {"windows-1255"},
	"cp1256": {"windows-1256"},
	"cp1257": {"windows-1257"},
	"cp1258": {"windows-1258"},
}

// languageDrivers maps header byte 29 to a codepage.
var languageDrivers = map[byte]string{
	0x01: "cp437",
	0x02: "cp850",
	0x03: "cp1252",
	0x26: "cp866",
	0x57: "cp1252",
	0x58: "cp1252",
	0x59: "cp1252",
	0x64: "cp852",
	0x65: "cp866",
	0x66: "cp865",
	0x67: "cp861",
	0x6a: "cp737",
	0x6b: "cp857",
	0x7d: "cp1255",
	0x7e: "cp1256",
	0xc8: "cp1250",
	0xc9: "cp1251",
	0xca: "cp1254",
	0xcb: "cp1253",
	0xcc: "cp1257",
}

// CheckEncoding normalizes an encoding name and verifies the decoder knows
// it. Codepage aliases such as cp1252 come back under the name the decoder
// registers (windows-1252). An empty name means AutoEncoding.
func CheckEncoding(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || strings.EqualFold(name, AutoEncoding) {
		return AutoEncoding, nil
	}
	if candidates, ok := encodingAliases[strings.ToLower(name)]; ok {
		for _, c := range candidates {
			if mahonia.NewDecoder(c) != nil {
				return c, nil
			}
		}
	}
	if mahonia.NewDecoder(name) == nil {
		return "", fmt.Errorf("unknown character encoding %q", name)
	}
	return name, nil
}

func encodingForDriver(b byte) string {
	codepage, ok := languageDrivers[b]
	if !ok {
		return DefaultEncoding
	}
	name, err := CheckEncoding(codepage)
	if err != nil {
		return DefaultEncoding
	}
	return name
}

func resolveEncoding(h header, headerErr error, requested string) (string, error) {
	name, err := CheckEncoding(requested)
	if err != nil {
		return "", err
	}
	if name != AutoEncoding {
		return name, nil
	}
	if headerErr != nil {
		return DefaultEncoding, nil
	}
	return encodingForDriver(h.languageDriver), nil
}
