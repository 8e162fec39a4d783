package terminal

import (
	"io"
	"strings"
	"testing"
)

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("  secret-token \nignored\n"))
	if err != nil || got != "secret-token" {
		t.Fatalf("readLine = %q, %v", got, err)
	}
	got, err = readLine(strings.NewReader("no-newline"))
	if err != nil || got != "no-newline" {
		t.Fatalf("readLine without newline = %q, %v", got, err)
	}
	if _, err := readLine(strings.NewReader("")); err != io.EOF {
		t.Fatalf("readLine on empty input = %v, want EOF", err)
	}
}
