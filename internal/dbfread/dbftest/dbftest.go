// Package dbftest writes small DBF fixtures for tests.
package dbftest

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/LindsayBradford/go-dbf/godbf"
)

const fieldWidth = 32

// WriteFile saves a character-only UTF-8 table with the given fields and
// rows.
func WriteFile(t testing.TB, path string, fields []string, rows [][]string) {
	t.Helper()
	WriteFileEncoded(t, path, "UTF8", fields, rows)
}

// WriteFileEncoded is WriteFile with text stored in the given codepage.
func WriteFileEncoded(t testing.TB, path, encoding string, fields []string, rows [][]string) {
	t.Helper()

	table := godbf.New(encoding)
	for _, f := range fields {
		if err := table.AddTextField(f, fieldWidth); err != nil {
			t.Fatalf("add field %s: %v", f, err)
		}
	}
	for _, row := range rows {
		idx := table.AddNewRecord()
		for i, f := range fields {
			if i >= len(row) {
				break
			}
			if err := table.SetFieldValueByName(idx, f, row[i]); err != nil {
				t.Fatalf("set %s on row %d: %v", f, idx, err)
			}
		}
	}
	if err := table.SaveFile(path); err != nil {
		t.Fatalf("save dbf fixture %s: %v", path, err)
	}
}

// MarkDeleted sets the deletion flag on record row (zero-based) of a saved
// file, the way xBase tools do when a record is deleted but not packed.
func MarkDeleted(t testing.TB, path string, row int) {
	t.Helper()
	patch(t, path, func(data []byte) {
		offset := headerLen(data) + row*recordLen(data)
		if offset >= len(data) {
			t.Fatalf("record %d is past the end of %s", row, path)
		}
		data[offset] = '*'
	})
}

// SetLanguageDriver writes the codepage marker at header byte 29.
func SetLanguageDriver(t testing.TB, path string, driver byte) {
	t.Helper()
	patch(t, path, func(data []byte) {
		data[29] = driver
	})
}

// TruncateAfter cuts a saved file so that only the first complete records
// survive, followed by half of the next one.
func TruncateAfter(t testing.TB, path string, complete int) {
	t.Helper()

	data := readFile(t, path)
	size := headerLen(data) + complete*recordLen(data) + recordLen(data)/2
	if size >= len(data) {
		t.Fatalf("%s has fewer than %d records", path, complete+1)
	}
	if err := os.Truncate(path, int64(size)); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
}

func patch(t testing.TB, path string, edit func([]byte)) {
	t.Helper()

	data := readFile(t, path)
	edit(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < 32 {
		t.Fatalf("%s is too short to be a dbf file", path)
	}
	return data
}

func headerLen(data []byte) int {
	return int(binary.LittleEndian.Uint16(data[8:10]))
}

func recordLen(data []byte) int {
	return int(binary.LittleEndian.Uint16(data[10:12]))
}
