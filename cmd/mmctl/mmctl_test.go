package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/joshuapare/heapkit/internal/driver"
)

const sampleTrace = `# sample
a 0 100
a 1 200
c 2 10 10
f 1
r 0 400
a 3 32
f 0
f 2
`

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name           string
		traces         map[string]string
		check          bool
		arena          string
		wantJSON       bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "single trace",
			traces:      map[string]string{"sample.rep": sampleTrace},
			wantContain: []string{"sample.rep", "memory", "Mean utilization"},
		},
		{
			name:        "with checking on anonymous arena",
			traces:      map[string]string{"sample.rep": sampleTrace},
			check:       true,
			arena:       "anonymous",
			wantContain: []string{"sample.rep", "anonymous"},
		},
		{
			name:           "failing trace",
			traces:         map[string]string{"bad.rep": "a 0 8\nf 5\n"},
			wantErr:        true,
			wantContain:    []string{"bad.rep", "FAIL"},
			wantNotContain: []string{"NaN"},
		},
		{
			name:     "json",
			traces:   map[string]string{"sample.rep": sampleTrace},
			wantJSON: true,
		},
		{
			name:    "bad arena",
			traces:  map[string]string{"sample.rep": sampleTrace},
			arena:   "tape",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			runCheck = tt.check
			jsonOut = tt.wantJSON
			if tt.arena != "" {
				runArena = tt.arena
			}

			var args []string
			for name, content := range tt.traces {
				args = append(args, writeTrace(t, name, content))
			}

			output, err := captureOutput(t, func() error {
				return runRun(context.Background(), args)
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("runRun() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
			}

			if tt.wantJSON {
				var results []driver.Result
				assertJSON(t, output, &results)
				if len(results) != 1 || results[0].Ops != 8 {
					t.Errorf("unexpected results: %+v", results)
				}
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestRunSnapshotThenInspect(t *testing.T) {
	resetFlags()
	path := writeTrace(t, "sample.rep", sampleTrace)
	snap := filepath.Join(t.TempDir(), "sample.heap.br")
	runSnapshot = snap

	output, err := captureOutput(t, func() error {
		return runRun(context.Background(), []string{path})
	})
	if err != nil {
		t.Fatalf("run --snapshot failed: %v\nOutput: %s", err, output)
	}
	assertContains(t, output, []string{"sample.rep"})

	resetFlags()
	output, err = captureOutput(t, func() error {
		return runInspect([]string{snap})
	})
	if err != nil {
		t.Fatalf("inspect failed: %v\nOutput: %s", err, output)
	}
	assertContains(t, output, []string{"Prologue and epilogue intact", "Result: ✓ VALID"})
}

func TestRunFileArenaThenInspectRaw(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	path := writeTrace(t, "sample.rep", sampleTrace)
	runArena = "file"
	runDir = dir
	jsonOut = true

	output, err := captureOutput(t, func() error {
		return runRun(context.Background(), []string{path})
	})
	if err != nil {
		t.Fatalf("run --arena file failed: %v\nOutput: %s", err, output)
	}
	var results []driver.Result
	assertJSON(t, output, &results)
	if len(results) != 1 || filepath.Dir(results[0].HeapFile) != dir {
		t.Fatalf("unexpected run results: %+v", results)
	}

	resetFlags()
	inspectRaw = true
	jsonOut = true
	output, err = captureOutput(t, func() error {
		return runInspect([]string{results[0].HeapFile})
	})
	if err != nil {
		t.Fatalf("inspect --raw failed: %v\nOutput: %s", err, output)
	}
	var res inspectResult
	assertJSON(t, output, &res)
	if !res.Valid || res.Blocks == 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunSnapshotNeedsOneTrace(t *testing.T) {
	resetFlags()
	runSnapshot = filepath.Join(t.TempDir(), "x.br")
	a := writeTrace(t, "a.rep", sampleTrace)
	b := writeTrace(t, "b.rep", sampleTrace)

	_, err := captureOutput(t, func() error {
		return runRun(context.Background(), []string{a, b})
	})
	if err == nil {
		t.Fatal("expected error for --snapshot with two traces")
	}
}

func TestInspectCorruptSnapshot(t *testing.T) {
	resetFlags()
	s, err := replay(writeTrace(t, "sample.rep", sampleTrace), driver.Config{})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	image := bytes.Clone(s.Arena().Bytes())
	s.Close()

	// Clobber the prologue header.
	image[8] = 0x20
	snap := filepath.Join(t.TempDir(), "bad.heap.br")
	if err := writeSnapshot(snap, image); err != nil {
		t.Fatalf("writeSnapshot failed: %v", err)
	}

	jsonOut = true
	output, err := captureOutput(t, func() error {
		return runInspect([]string{snap})
	})
	if err == nil {
		t.Fatal("expected inspect to fail")
	}
	var res inspectResult
	assertJSON(t, output, &res)
	if res.Valid || res.ErrorType != "Prologue" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInspectNotBrotli(t *testing.T) {
	resetFlags()
	path := writeTrace(t, "plain.txt", "not a snapshot at all")
	_, err := captureOutput(t, func() error {
		return runInspect([]string{path})
	})
	if err == nil {
		t.Fatal("expected decompression error")
	}
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name        string
		trace       string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "valid",
			trace:       sampleTrace,
			wantContain: []string{"Trace well formed (8 ops)", "Heap consistent", "Result: ✓ VALID"},
		},
		{
			name:        "double free",
			trace:       "a 0 8\nf 0\nf 0\n",
			wantErr:     true,
			wantContain: []string{"✗ Trace", "freed while not live", "INVALID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			path := writeTrace(t, "t.rep", tt.trace)
			output, err := captureOutput(t, func() error {
				return runValidate([]string{path})
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("runValidate() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	path := writeTrace(t, "t.rep", sampleTrace)
	output, err := captureOutput(t, func() error {
		return runValidate([]string{path})
	})
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	var res map[string]interface{}
	assertJSON(t, output, &res)
	if res["valid"] != true {
		t.Errorf("expected valid, got %v", res)
	}
}

func TestDumpCommand(t *testing.T) {
	// 100 -> 128-byte block at 0x20, 200 -> 224-byte block at 0xA0.
	// Freeing id 1 leaves one free block of class 10.
	trace := "a 0 100\na 1 200\nf 1\n"

	tests := []struct {
		name           string
		freeOnly       bool
		stats          bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "all blocks",
			wantContain: []string{"0x20", "128", "used", "0xA0", "224", "free", "2 blocks"},
		},
		{
			name:           "free only",
			freeOnly:       true,
			wantContain:    []string{"0xA0", "1 blocks"},
			wantNotContain: []string{"used"},
		},
		{
			name:        "with stats",
			stats:       true,
			wantContain: []string{"heap size:", "malloc:          2 calls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			dumpFreeOnly = tt.freeOnly
			dumpStats = tt.stats
			path := writeTrace(t, "d.rep", trace)

			output, err := captureOutput(t, func() error {
				return runDump([]string{path})
			})
			if err != nil {
				t.Fatalf("runDump() error = %v", err)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestDumpJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	path := writeTrace(t, "d.rep", "a 0 100\na 1 200\nf 1\n")

	output, err := captureOutput(t, func() error {
		return runDump([]string{path})
	})
	if err != nil {
		t.Fatalf("runDump() error = %v", err)
	}
	var out dumpOutput
	assertJSON(t, output, &out)
	if len(out.Blocks) != 2 || out.Blocks[1].Allocated || out.Buckets[10] != 1 {
		t.Errorf("unexpected dump: %+v", out)
	}
	if out.HeapSize != 384 {
		t.Errorf("heap size = %d, want 384", out.HeapSize)
	}
}

func TestClassesCommand(t *testing.T) {
	resetFlags()
	output, err := captureOutput(t, runClasses)
	if err != nil {
		t.Fatalf("runClasses() error = %v", err)
	}
	assertContains(t, output, []string{"0      16\n", "9      160\n", "10     176-256", "14     >= 4112"})

	jsonOut = true
	output, err = captureOutput(t, runClasses)
	if err != nil {
		t.Fatalf("runClasses() error = %v", err)
	}
	var classes []classRange
	assertJSON(t, output, &classes)
	if len(classes) != 15 || classes[14].Max != -1 {
		t.Errorf("unexpected classes: %+v", classes)
	}
}

func TestParseArena(t *testing.T) {
	for _, s := range []string{"memory", "MEM", "anonymous", "mmap", "file"} {
		if _, err := parseArena(s); err != nil {
			t.Errorf("parseArena(%q) error = %v", s, err)
		}
	}
	if _, err := parseArena("tape"); err == nil {
		t.Error("parseArena(tape) should fail")
	}
}
