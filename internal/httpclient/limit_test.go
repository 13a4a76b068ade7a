package httpclient

import (
	"strings"
	"testing"
)

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q, want hello", data)
	}
}

func TestReadAllWithLimitRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	_, err := ReadAllWithLimit(strings.NewReader("hello world"), 5)
	if !IsBodyTooLarge(err) {
		t.Fatalf("expected BodyTooLargeError, got %v", err)
	}

	// A body of exactly the cap is not an overflow.
	data, err := ReadAllWithLimit(strings.NewReader("hello"), 5)
	if err != nil || string(data) != "hello" {
		t.Fatalf("exact-limit read = %q, err %v", data, err)
	}
}

func TestReadAllWithLimitZeroMeansUnlimited(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(strings.NewReader(strings.Repeat("x", 4096)), 0)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if len(data) != 4096 {
		t.Fatalf("got %d bytes, want 4096", len(data))
	}
}
