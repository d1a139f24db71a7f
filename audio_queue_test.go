package main

import "testing"

func TestAudioQueueFIFOOrder(t *testing.T) {
	q := NewAudioQueue(4)
	q.Push(0.1)
	q.Push(0.2)
	q.Push(0.3)
	if v := q.Pull(); v != 0.1 {
		t.Fatalf("Pull() = %v, want 0.1", v)
	}
	if v := q.Pull(); v != 0.2 {
		t.Fatalf("Pull() = %v, want 0.2", v)
	}
}

func TestAudioQueueOverwritesOldestWhenFull(t *testing.T) {
	q := NewAudioQueue(2)
	q.Push(1)
	q.Push(2)
	q.Push(3) // overwrites 1
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
	if v := q.Pull(); v != 2 {
		t.Fatalf("Pull() = %v, want 2 (oldest surviving sample)", v)
	}
}

// TestAudioQueueUnderrunRepeatsLastSample covers spec.md §7's
// underrun-repeats-last-sample requirement: draining an empty queue must
// not return silence (0) if a prior sample was already delivered.
func TestAudioQueueUnderrunRepeatsLastSample(t *testing.T) {
	q := NewAudioQueue(4)
	q.Push(0.75)
	first := q.Pull()
	if first != 0.75 {
		t.Fatalf("Pull() = %v, want 0.75", first)
	}
	repeated := q.Pull()
	if repeated != 0.75 {
		t.Fatalf("underrun Pull() = %v, want repeated 0.75, not silence", repeated)
	}
}
