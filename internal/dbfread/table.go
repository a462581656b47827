// Package dbfread opens xBase/DBF files through the godbf decoder and exposes
// them as an ordered field list plus a forward-only record sequence.
package dbfread

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/LindsayBradford/go-dbf/godbf"

	"dbf-converter/internal/model"
)

// Table is a decoded DBF file. Records yields exactly Len records in file
// order, each keyed by the names in FieldNames.
type Table interface {
	FieldNames() []string
	Len() int
	Records() iter.Seq2[model.Record, error]
}

type OpenOptions struct {
	// Encoding names the codepage of text fields. Empty or AutoEncoding
	// reads it from the file header.
	Encoding       string
	IncludeDeleted bool
}

type Info struct {
	Path     string   `json:"path"`
	Encoding string   `json:"encoding"`
	Fields   []string `json:"fields"`
	Records  int      `json:"records"`
	Deleted  int      `json:"deleted"`
}

func Open(path string, opts OpenOptions) (Table, error) {
	return open(path, opts)
}

func Inspect(path string, opts OpenOptions) (Info, error) {
	t, err := open(path, opts)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Path:     path,
		Encoding: t.encoding,
		Fields:   t.FieldNames(),
		Records:  t.Len(),
		Deleted:  t.deleted,
	}, nil
}

type godbfTable struct {
	raw      *godbf.DbfTable
	encoding string
	fields   []string
	kinds    []byte
	rows     []int
	deleted  int

	// available counts the records present in full on disk.
	available int
}

func open(path string, opts OpenOptions) (t *godbfTable, err error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("source path is required")
	}
	h, headerErr := readHeader(path)
	encoding, err := resolveEncoding(h, headerErr, opts.Encoding)
	if err != nil {
		return nil, err
	}

	// godbf indexes into the raw bytes without bounds checks, so truncated
	// files can panic instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("decode %s: malformed table: %v", path, r)
		}
	}()

	raw, err := godbf.NewFromFile(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	descs := raw.Fields()
	fields := make([]string, 0, len(descs))
	kinds := make([]byte, 0, len(descs))
	for i := range descs {
		fields = append(fields, cleanName(descs[i].Name()))
		kinds = append(kinds, byte(descs[i].FieldType()))
	}

	total := raw.NumberOfRecords()
	available := total
	if headerErr == nil {
		available = min(total, h.complete())
	}
	rows := make([]int, 0, total)
	deleted := 0
	// Records cut off by a short file stay in the list so that reading
	// them fails at the record where the damage starts.
	for i := 0; i < total; i++ {
		if i >= available {
			rows = append(rows, i)
			continue
		}
		del, ok := rowIsDeleted(raw, i)
		if ok && del {
			deleted++
			if !opts.IncludeDeleted {
				continue
			}
		}
		rows = append(rows, i)
	}

	return &godbfTable{
		raw:       raw,
		encoding:  encoding,
		fields:    fields,
		kinds:     kinds,
		rows:      rows,
		deleted:   deleted,
		available: available,
	}, nil
}

func (t *godbfTable) FieldNames() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

func (t *godbfTable) Len() int {
	return len(t.rows)
}

func (t *godbfTable) Records() iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		for _, row := range t.rows {
			rec, err := t.readRow(row)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (t *godbfTable) readRow(row int) (rec model.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("read record %d: %v", row+1, r)
		}
	}()
	if row >= t.available {
		return nil, fmt.Errorf("read record %d: file ends before the record does", row+1)
	}
	rec = make(model.Record, len(t.fields))
	for i, name := range t.fields {
		rec[name] = renderValue(t.kinds[i], t.raw.FieldValue(row, i))
	}
	return rec, nil
}

func rowIsDeleted(raw *godbf.DbfTable, row int) (deleted, ok bool) {
	defer func() {
		if recover() != nil {
			deleted, ok = false, false
		}
	}()
	return raw.RowIsDeleted(row), true
}

func cleanName(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
