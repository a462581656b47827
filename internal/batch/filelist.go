// Package batch owns the file list and runs conversion jobs one at a time,
// each on its own goroutine, reporting back over a per-job event channel.
package batch

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// FileList is the ordered, duplicate-free list of source files the user has
// picked. Order is insertion order and is the order jobs run in.
type FileList struct {
	paths []string
}

func NewFileList(paths ...string) *FileList {
	l := &FileList{}
	l.Add(paths...)
	return l
}

// Add appends paths that are not already listed and returns how many were
// added.
func (l *FileList) Add(paths ...string) int {
	added := 0
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(l.paths, p) {
			continue
		}
		l.paths = append(l.paths, p)
		added++
	}
	return added
}

// Remove drops the entries at the given indexes. Out-of-range and repeated
// indexes are ignored.
func (l *FileList) Remove(indexes ...int) int {
	drop := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		if i >= 0 && i < len(l.paths) {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := make([]string, 0, len(l.paths)-len(drop))
	for i, p := range l.paths {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	l.paths = kept
	return len(drop)
}

func (l *FileList) Clear() {
	l.paths = nil
}

// Paths returns a snapshot; later edits to the list do not affect it.
func (l *FileList) Paths() []string {
	return slices.Clone(l.paths)
}

func (l *FileList) Len() int {
	return len(l.paths)
}

// ExpandInputs turns user input into file paths. Arguments containing glob
// metacharacters are expanded (sorted, DBF files only); plain arguments are
// kept as typed so that a missing file is reported by the pre-flight check.
func ExpandInputs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, raw := range args {
		arg := strings.TrimSpace(raw)
		if arg == "" {
			continue
		}
		if !strings.ContainsAny(arg, "*?[") {
			out = append(out, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		sort.Strings(matches)
		n := 0
		for _, m := range matches {
			if IsDBF(m) {
				out = append(out, m)
				n++
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("no DBF files match %q", arg)
		}
	}
	return out, nil
}

func IsDBF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dbf")
}
