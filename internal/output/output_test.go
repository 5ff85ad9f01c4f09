package output

import (
	"os"
	"strings"
	"testing"
)

// captureStdout swaps os.Stdout for a pipe, runs fn, and returns what fn
// wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestPrintFormats(t *testing.T) {
	defer func() { OutputFormat = FormatYAML; PrettyOutput = false }()

	v := struct {
		Name string `yaml:"name" json:"name"`
	}{Name: "hidden"}

	OutputFormat = FormatYAML
	got := captureStdout(t, func() {
		if err := Print(v); err != nil {
			t.Errorf("Print yaml: %v", err)
		}
	})
	if !strings.Contains(got, "name: hidden") {
		t.Errorf("yaml output = %q, want name: hidden", got)
	}

	OutputFormat = FormatJSON
	got = captureStdout(t, func() {
		if err := Print(v); err != nil {
			t.Errorf("Print json: %v", err)
		}
	})
	if strings.TrimSpace(got) != `{"name":"hidden"}` {
		t.Errorf("json output = %q", got)
	}
}

func TestIsOutputPiped(t *testing.T) {
	orig := os.Stdout
	defer func() { os.Stdout = orig }()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()
	os.Stdout = w
	if !IsOutputPiped() {
		t.Error("pipe-backed stdout should report piped")
	}

	// /dev/null is a character device, the same mode a terminal reports.
	tty, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	defer tty.Close()
	os.Stdout = tty
	if IsOutputPiped() {
		t.Error("character-device stdout should not report piped")
	}
}
