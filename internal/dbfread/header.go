package dbfread

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const headerPrefixLen = 32

// header holds the few fixed-prefix values the reader checks itself: the
// language driver byte and enough sizes to tell how many records the file
// really contains.
type header struct {
	records        int
	headerLen      int
	recordLen      int
	languageDriver byte
	size           int64
}

func readHeader(path string) (header, error) {
	f, err := os.Open(path)
	if err != nil {
		return header{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return header{}, err
	}
	buf := make([]byte, headerPrefixLen)
	if _, err := io.ReadFull(f, buf); err != nil {
		return header{}, fmt.Errorf("read header: %w", err)
	}
	return header{
		records:        int(binary.LittleEndian.Uint32(buf[4:8])),
		headerLen:      int(binary.LittleEndian.Uint16(buf[8:10])),
		recordLen:      int(binary.LittleEndian.Uint16(buf[10:12])),
		languageDriver: buf[languageDriverOffset],
		size:           info.Size(),
	}, nil
}

// complete is the number of records whose bytes are fully present.
func (h header) complete() int {
	if h.recordLen <= 0 || h.size <= int64(h.headerLen) {
		return 0
	}
	return int((h.size - int64(h.headerLen)) / int64(h.recordLen))
}
