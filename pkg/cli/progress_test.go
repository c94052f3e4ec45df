package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(2)
	progress.Update(1, "customers")
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Exporting:") {
		t.Errorf("output = %q, want progress line", output)
	}
	if !strings.Contains(output, "1/2") || !strings.Contains(output, "customers") {
		t.Errorf("output = %q, want count and item", output)
	}
	if !strings.Contains(output, "2/2") {
		t.Errorf("output = %q, want finished count", output)
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(0, "")
	progress.Finish()

	if buf.String() != "\n" {
		t.Errorf("output = %q, want a single newline", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(3)
	progress.Error(errors.New("query failed"))

	if !strings.Contains(buf.String(), "Error: query failed") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)
	progress.Start(100)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(start int) {
			for j := 0; j < 10; j++ {
				progress.Update(int64(start*10+j), "x")
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}
