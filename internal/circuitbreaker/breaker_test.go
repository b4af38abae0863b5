package circuitbreaker

import (
	"testing"
	"time"
)

func TestBreaker_AllowWhenClosed(t *testing.T) {
	b := New(3, 100*time.Millisecond)
	if !b.Allow("geo") {
		t.Fatal("expected closed circuit to allow")
	}
}

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := New(3, 100*time.Millisecond)

	// 2 failures = still closed
	b.RecordFailure("geo")
	b.RecordFailure("geo")
	if !b.Allow("geo") {
		t.Fatal("should still allow before threshold")
	}

	// 3rd failure = open
	b.RecordFailure("geo")
	if b.Allow("geo") {
		t.Fatal("should be open after 3 failures")
	}
	if b.State("geo") != StateOpen {
		t.Fatalf("expected StateOpen, got %v", b.State("geo"))
	}
}

func TestBreaker_OpenToHalfOpenAfterDuration(t *testing.T) {
	b := New(2, 50*time.Millisecond)

	b.RecordFailure("geo")
	b.RecordFailure("geo")
	if b.Allow("geo") {
		t.Fatal("should be open")
	}

	// Wait for open duration.
	time.Sleep(60 * time.Millisecond)

	// Should transition to half-open and allow one probe.
	if !b.Allow("geo") {
		t.Fatal("should allow probe in half-open")
	}
	if b.State("geo") != StateHalfOpen {
		t.Fatalf("expected StateHalfOpen, got %v", b.State("geo"))
	}

	// Second request while half-open should be rejected.
	if b.Allow("geo") {
		t.Fatal("should reject second request in half-open")
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b := New(2, 50*time.Millisecond)

	b.RecordFailure("geo")
	b.RecordFailure("geo")
	time.Sleep(60 * time.Millisecond)
	b.Allow("geo") // Transitions to half-open

	b.RecordSuccess("geo")
	if b.State("geo") != StateClosed {
		t.Fatalf("expected StateClosed after success, got %v", b.State("geo"))
	}
	if !b.Allow("geo") {
		t.Fatal("should allow after recovery")
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New(2, 50*time.Millisecond)

	b.RecordFailure("geo")
	b.RecordFailure("geo")
	time.Sleep(60 * time.Millisecond)
	b.Allow("geo") // Transitions to half-open

	b.RecordFailure("geo")
	if b.State("geo") != StateOpen {
		t.Fatalf("expected StateOpen after half-open failure, got %v", b.State("geo"))
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := New(3, 100*time.Millisecond)

	b.RecordFailure("geo")
	b.RecordFailure("geo")
	b.RecordSuccess("geo")

	// Should not trip with only 1 more failure (counter was reset).
	b.RecordFailure("geo")
	if !b.Allow("geo") {
		t.Fatal("should still be closed after reset")
	}
}

func TestBreaker_IndependentKeys(t *testing.T) {
	b := New(2, 100*time.Millisecond)

	b.RecordFailure("geo")
	b.RecordFailure("geo")

	// geo is open, fraud should be unaffected.
	if b.Allow("geo") {
		t.Fatal("geo should be open")
	}
	if !b.Allow("fraud") {
		t.Fatal("fraud should be closed")
	}
}

func TestBreaker_UnknownKeyIsClosed(t *testing.T) {
	b := New(2, 100*time.Millisecond)
	if b.State("unknown") != StateClosed {
		t.Fatalf("expected StateClosed for unknown key, got %v", b.State("unknown"))
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
