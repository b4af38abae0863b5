package idgen

import (
	"strings"
	"testing"
)

func TestHex(t *testing.T) {
	got := Hex(8)
	if len(got) != 16 {
		t.Fatalf("Hex(8) length = %d, want 16", len(got))
	}
	if got == Hex(8) {
		t.Fatal("two Hex(8) calls returned the same value")
	}
}

func TestWithPrefix(t *testing.T) {
	id := WithPrefix("rec_")
	if !strings.HasPrefix(id, "rec_") {
		t.Fatalf("id %q missing rec_ prefix", id)
	}
	if len(id) != len("rec_")+24 {
		t.Fatalf("id %q length = %d, want %d", id, len(id), len("rec_")+24)
	}
}
