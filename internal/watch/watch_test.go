package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/convert"
	"dbf-converter/internal/dbfread/dbftest"
)

func waitForFile(t *testing.T, path string, timeout time.Duration) []byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return data
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return nil
}

func TestWatcherConvertsExistingAndNewFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	dbftest.WriteFile(t, filepath.Join(in, "old.dbf"), []string{"ID"}, [][]string{{"1"}})

	var terminal []string
	w, err := New(Options{
		Dir:            in,
		DestinationDir: out,
		Convert:        convert.DefaultOptions(),
		Settle:         100 * time.Millisecond,
		Existing:       true,
		OnEvent: func(ev batch.Event) {
			if ev.Terminal() {
				terminal = append(terminal, ev.Result.SourceName)
			}
		},
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan batch.Summary, 1)
	go func() {
		s, _ := w.Run(ctx)
		done <- s
	}()

	if got := string(waitForFile(t, filepath.Join(out, "old.csv"), 5*time.Second)); got != "ID\r\n1\r\n" {
		t.Fatalf("unexpected csv for existing file: %q", got)
	}

	dbftest.WriteFile(t, filepath.Join(in, "new.dbf"), []string{"NAME"}, [][]string{{"Alice"}, {"Bob"}})
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := string(waitForFile(t, filepath.Join(out, "new.csv"), 5*time.Second)); got != "NAME\r\nAlice\r\nBob\r\n" {
		t.Fatalf("unexpected csv for new file: %q", got)
	}

	cancel()
	var s batch.Summary
	select {
	case s = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	if s.Completed < 2 || s.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if len(terminal) < 2 || terminal[0] != "old.dbf" {
		t.Fatalf("unexpected conversion order: %v", terminal)
	}
	if _, err := os.Stat(filepath.Join(out, "notes.csv")); !os.IsNotExist(err) {
		t.Fatalf("non-DBF file was converted: %v", err)
	}
}

func TestNewRejectsMissingDirectories(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(Options{Dir: filepath.Join(dir, "nope"), DestinationDir: dir}); err == nil {
		t.Fatal("expected error for missing watch directory")
	}
	if _, err := New(Options{Dir: dir, DestinationDir: filepath.Join(dir, "nope")}); err == nil {
		t.Fatal("expected error for missing output directory")
	}
}

func TestSettledOrdersByActivity(t *testing.T) {
	base := time.Now()
	w := &Watcher{
		opts: Options{Settle: time.Second},
		pending: map[string]time.Time{
			"b.dbf": base.Add(-3 * time.Second),
			"a.dbf": base.Add(-2 * time.Second),
			"c.dbf": base.Add(-500 * time.Millisecond),
		},
	}
	ready := w.settled(base)
	if len(ready) != 2 || ready[0] != "b.dbf" || ready[1] != "a.dbf" {
		t.Fatalf("unexpected ready list: %v", ready)
	}
	if _, ok := w.pending["c.dbf"]; !ok || len(w.pending) != 1 {
		t.Fatalf("unsettled file should stay pending: %v", w.pending)
	}
}
