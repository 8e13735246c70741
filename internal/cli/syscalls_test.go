package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/probeops/latrace/internal/config"
	"github.com/probeops/latrace/pkg/jsonpath"
)

const syscallTrace = `{"op":"sys_enter","t":1000,"tid":7,"pid":7,"id":0,"comm":"storagenode"}
{"op":"sys_exit","t":2001000,"tid":7,"pid":7,"ret":4096,"comm":"storagenode"}
{"op":"sys_enter","t":3000000,"tid":8,"pid":7,"id":74,"comm":"storagenode"}
{"op":"sys_exit","t":4500000,"tid":8,"pid":7,"ret":0,"comm":"storagenode"}
`

func TestRunSyscallsReplay(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.jsonl")
	if err := os.WriteFile(tracePath, []byte(syscallTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	exportPath := filepath.Join(dir, "export.json")

	cfg := config.Default()
	cfg.Syscalls.Names = []string{"read", "fsync"}
	cfg.Display.Batch = true
	cfg.Display.Refresh = config.Duration(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := runSyscalls(ctx, cfg, monitorOptions{
		tracePath:  tracePath,
		exportPath: exportPath,
		top:        5,
	})
	if err != nil {
		t.Fatalf("runSyscalls: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	doc := string(data)

	// read: 2001000 - 1000 = 2ms.
	count, err := jsonpath.Extract(doc, "$.keys.read.count")
	if err != nil {
		t.Fatalf("read stats missing: %v", err)
	}
	if count != "1" {
		t.Errorf("read count = %s, want 1", count)
	}
	if max, _ := jsonpath.Extract(doc, "$.keys.read.maxUs"); max != "2000" {
		t.Errorf("read maxUs = %s, want 2000", max)
	}

	// fsync: 1.5ms.
	if max, _ := jsonpath.Extract(doc, "$.keys.fsync.maxUs"); max != "1500" {
		t.Errorf("fsync maxUs = %s, want 1500", max)
	}

	if total, _ := jsonpath.Extract(doc, "$.total"); total != "2" {
		t.Errorf("total = %s, want 2", total)
	}
}

func TestRunSyscallsFiltersByAllowSet(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.jsonl")
	if err := os.WriteFile(tracePath, []byte(syscallTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	exportPath := filepath.Join(dir, "export.json")

	cfg := config.Default()
	cfg.Syscalls.Names = []string{"fsync"} // excludes read
	cfg.Display.Batch = true
	cfg.Display.Refresh = config.Duration(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := runSyscalls(ctx, cfg, monitorOptions{tracePath: tracePath, exportPath: exportPath})
	if err != nil {
		t.Fatalf("runSyscalls: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jsonpath.Extract(string(data), "$.keys.read"); err == nil {
		t.Error("read traced despite not being in the allow-set")
	}
	if total, _ := jsonpath.Extract(string(data), "$.total"); total != "1" {
		t.Errorf("total = %s, want 1", total)
	}
}

func TestRunSyscallsErrors(t *testing.T) {
	cfg := config.Default()
	ctx := context.Background()

	// No event source selected.
	if err := runSyscalls(ctx, cfg, monitorOptions{}); err == nil {
		t.Error("expected error without --trace or --synth")
	}

	// Unknown syscall name.
	bad := config.Default()
	bad.Syscalls.Names = []string{"frobnicate"}
	if err := runSyscalls(ctx, bad, monitorOptions{synth: true}); err == nil {
		t.Error("expected error for unknown syscall name")
	}

	// Missing trace file.
	if err := runSyscalls(ctx, cfg, monitorOptions{tracePath: "/nonexistent/trace"}); err == nil {
		t.Error("expected error for missing trace file")
	}
}
