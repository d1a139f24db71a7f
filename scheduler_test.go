package main

import (
	"testing"
	"time"
)

type fakeInstance struct {
	frames int
	audio  *AudioQueue
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{audio: NewAudioQueue(16)}
}

func (f *fakeInstance) StepFrame() PixelSurface {
	f.frames++
	return PixelSurface{Pixels: make([]byte, 4), Width: 1, Height: 1}
}
func (f *fakeInstance) Audio() *AudioQueue { return f.audio }
func (f *fakeInstance) Close() error       { return nil }

// resizablePresenter lets a test force ConsumeResize to report true once,
// to exercise the scheduler's spec.md §4.5 step 1 resync wiring without
// a real Ebiten window.
type resizablePresenter struct {
	*HeadlessPresenter
	pending bool
}

func newResizablePresenter() *resizablePresenter {
	return &resizablePresenter{HeadlessPresenter: NewHeadlessPresenter()}
}

func (p *resizablePresenter) ConsumeResize() bool {
	if p.pending {
		p.pending = false
		return true
	}
	return false
}

func TestSchedulerUnpacedDrivesFrames(t *testing.T) {
	inst := newFakeInstance()
	presenter := NewHeadlessPresenter()
	sched := NewScheduler(inst, presenter, nil, SyncNone, 60, 0)

	go sched.Run()
	time.Sleep(20 * time.Millisecond)
	sched.Stop()

	if sched.FrameCount() == 0 {
		t.Fatal("unpaced scheduler drove zero frames")
	}
	if presenter.FrameCount() != sched.FrameCount() {
		t.Fatalf("presenter saw %d frames, scheduler counted %d", presenter.FrameCount(), sched.FrameCount())
	}
}

func TestSchedulerVideoPacedRespectsRefreshRate(t *testing.T) {
	inst := newFakeInstance()
	presenter := NewHeadlessPresenter()
	sched := NewScheduler(inst, presenter, nil, SyncVideo, 1000, 0) // 1ms ticks for a fast test

	go sched.Run()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if sched.FrameCount() == 0 {
		t.Fatal("video-paced scheduler drove zero frames")
	}
}

// TestSchedulerSyncTimeMatchesAudioPacingScenario covers spec.md §8
// scenario 6: at sample-rate 48000 with total_samples=24000, sync_time
// must equal start_time + 500ms (±1ms).
func TestSchedulerSyncTimeMatchesAudioPacingScenario(t *testing.T) {
	inst := newFakeInstance()
	presenter := NewHeadlessPresenter()
	sched := NewScheduler(inst, presenter, nil, SyncNone, 60, 48000)

	for i := 0; i < 24000; i++ {
		inst.audio.Push(0)
	}
	sched.driveFrame()

	want := sched.StartTime().Add(500 * time.Millisecond)
	got := sched.SyncTime()
	diff := got.Sub(want)
	if diff < -time.Millisecond || diff > time.Millisecond {
		t.Fatalf("sync_time = %v, want %v ± 1ms (diff %v)", got, want, diff)
	}
}

// TestSchedulerResyncClearsQueueAndRebasesStartTime covers spec.md
// §4.5's audio resync: clears the audio queue, zeros total_samples, and
// rebases start_time to now.
func TestSchedulerResyncClearsQueueAndRebasesStartTime(t *testing.T) {
	inst := newFakeInstance()
	presenter := NewHeadlessPresenter()
	sched := NewScheduler(inst, presenter, nil, SyncNone, 60, 48000)

	inst.audio.Push(0)
	inst.audio.Push(0)
	before := sched.StartTime()
	time.Sleep(time.Millisecond)
	sched.Resync()

	if inst.audio.Pushed() != 0 {
		t.Fatalf("Pushed() = %d after resync, want 0", inst.audio.Pushed())
	}
	if !sched.StartTime().After(before) {
		t.Fatal("resync must rebase start_time to now")
	}
	if !sched.SyncTime().Equal(sched.StartTime()) {
		t.Fatal("resync must reset sync_time to the new start_time")
	}
}

// TestSchedulerResizeTriggersResync covers spec.md §4.5 step 1: a host
// window move/resize/rescale (signaled here via the presenter) requests
// an audio resync on the next drive loop iteration.
func TestSchedulerResizeTriggersResync(t *testing.T) {
	inst := newFakeInstance()
	presenter := newResizablePresenter()
	sched := NewScheduler(inst, presenter, nil, SyncNone, 60, 48000)

	inst.audio.Push(0)
	presenter.pending = true
	sched.pollResize()

	if inst.audio.Pushed() != 0 {
		t.Fatal("a pending resize must trigger a resync, clearing the audio queue")
	}
}
