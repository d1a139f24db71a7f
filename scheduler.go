// scheduler.go - frame/audio/video pacing (spec.md §3/§4.5).
//
// Grounded on _teacher_ref/video_chip.go's refreshLoop: a time.Ticker
// paced to the display's refresh interval, a done channel for clean
// shutdown, and a double-buffer handoff to the video backend each tick.
// Generalized from one VideoChip's internal buffer swap into an
// architecture-neutral driver over any Instance (spec.md §1's "frame/
// audio/video scheduler" requirement) plus a SyncMode choice the
// teacher's single hardcoded REFRESH_INTERVAL didn't need. The Frame
// Scheduler State (audio_queue/total_samples/start_time/sync_time) and
// its per-iteration algorithm are carried over verbatim from spec.md §3/
// §4.5, not just the teacher's ticker shape.
package main

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// Instance is whatever a system_*.go wires together (CPU core(s) + Bus +
// PPU/APU adaptation) to produce one frame at a time. StepFrame blocks
// until a full frame's worth of CPU/bus cycles have run.
type Instance interface {
	StepFrame() PixelSurface
	Audio() *AudioQueue
	Close() error
}

// SyncMode selects what the scheduler paces its drive loop against.
type SyncMode int

const (
	// SyncVideo paces frames to wall-clock time via a ticker at the
	// console's native refresh rate — the teacher's refreshLoop model.
	SyncVideo SyncMode = iota
	// SyncAudio paces frames against sync_time, spec.md §3/§4.5's
	// audio-authoritative deadline derived from total_samples and the
	// sample rate, rather than a fixed wall-clock tick.
	SyncAudio
	// SyncNone runs flat-out with no pacing, for benchmarking/headless
	// test harnesses that don't care about wall-clock cadence.
	SyncNone
)

const defaultRefreshRate = 60
const defaultSampleRate = 44100

// Scheduler drives an Instance's per-frame execution, handing each
// resulting PixelSurface to a VideoPresenter and tracking the spec.md §3
// Frame Scheduler State (start_time/sync_time, derived from the
// instance's AudioQueue) at the configured pace.
type Scheduler struct {
	instance    Instance
	presenter   VideoPresenter
	audio       AudioOutput
	mode        SyncMode
	refreshRate int
	sampleRate  int
	done        chan struct{}
	frameCount  uint64
	startTime   time.Time
	syncTime    time.Time
}

// NewScheduler wires an Instance to a VideoPresenter and an (optional,
// may be nil for tests) AudioOutput. sampleRate backs spec.md §3's
// sync_time formula; pass 0 to take the default 44100Hz.
func NewScheduler(instance Instance, presenter VideoPresenter, audio AudioOutput, mode SyncMode, refreshRate, sampleRate int) *Scheduler {
	if refreshRate <= 0 {
		refreshRate = defaultRefreshRate
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	now := time.Now()
	return &Scheduler{
		instance:    instance,
		presenter:   presenter,
		audio:       audio,
		mode:        mode,
		refreshRate: refreshRate,
		sampleRate:  sampleRate,
		done:        make(chan struct{}),
		startTime:   now,
		syncTime:    now,
	}
}

// Run drives frames until Stop is called, following the teacher's
// ticker-then-select idiom. It blocks; callers run it in its own
// goroutine alongside input handling. On return it coordinates
// concurrent shutdown of the instance, the audio backend, and the video
// backend (shutdown below).
func (s *Scheduler) Run() error {
	if err := s.presenter.Start(); err != nil {
		return err
	}
	if s.audio != nil {
		s.audio.Start()
	}

	var runErr error
	switch s.mode {
	case SyncAudio:
		runErr = s.runAudioPaced()
	case SyncNone:
		runErr = s.runUnpaced()
	default:
		runErr = s.runVideoPaced()
	}
	return s.shutdown(runErr)
}

// shutdown tears down the CPU/instance side, the audio backend, and the
// video backend concurrently. SPEC_FULL.md §3 names
// golang.org/x/sync/errgroup for exactly this "wait on N independent
// shutdown paths, surface the first error" shape, in place of a
// hand-rolled sync.WaitGroup plus a manually merged error.
func (s *Scheduler) shutdown(runErr error) error {
	var g errgroup.Group
	g.Go(s.instance.Close)
	g.Go(s.presenter.Stop)
	if s.audio != nil {
		g.Go(func() error {
			s.audio.Stop()
			return s.audio.Close()
		})
	}
	if err := g.Wait(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func (s *Scheduler) runVideoPaced() error {
	interval := time.Second / time.Duration(s.refreshRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-ticker.C:
			s.pollResize()
			s.driveFrame()
		}
	}
}

// runAudioPaced implements spec.md §4.5 step 2 literally: deadline is
// sync_time; while wall-clock is still before it, yield instead of
// stepping a frame.
func (s *Scheduler) runAudioPaced() error {
	const pollInterval = time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-ticker.C:
			s.pollResize()
			if time.Now().Before(s.syncTime) {
				continue
			}
			s.driveFrame()
		}
	}
}

func (s *Scheduler) runUnpaced() error {
	for {
		select {
		case <-s.done:
			return nil
		default:
			s.pollResize()
			s.driveFrame()
		}
	}
}

// pollResize is spec.md §4.5 step 1's "on move or scale-factor change,
// request audio resync", driven off whatever the video presenter
// observed since the last iteration.
func (s *Scheduler) pollResize() {
	if s.presenter.ConsumeResize() {
		s.resync()
	}
}

// resync is spec.md §4.5's documented recovery path: clears the audio
// send queue, zeros total_samples, and rebases start_time to now,
// deliberately sacrificing sample continuity to recover deadline
// sanity rather than let the emulator try to catch up.
func (s *Scheduler) resync() {
	s.instance.Audio().Clear()
	s.startTime = time.Now()
	s.syncTime = s.startTime
}

// Resync exposes resync to callers outside the scheduler loop (a
// caller-driven resync request, per spec.md §4.5).
func (s *Scheduler) Resync() { s.resync() }

func (s *Scheduler) driveFrame() {
	surface := s.instance.StepFrame()
	_ = s.presenter.Present(surface)
	s.frameCount++

	// spec.md §4.5 step 4: recompute sync_time from total_samples every
	// frame, after any samples produced this frame have been queued.
	totalSamples := s.instance.Audio().Pushed()
	s.syncTime = s.startTime.Add(time.Duration(totalSamples) * time.Second / time.Duration(s.sampleRate))
}

func (s *Scheduler) Stop() { close(s.done) }

func (s *Scheduler) FrameCount() uint64 { return s.frameCount }

// SyncTime exposes the current sync_time for tests (spec.md §8
// scenario 6).
func (s *Scheduler) SyncTime() time.Time { return s.syncTime }

// StartTime exposes the current start_time for tests.
func (s *Scheduler) StartTime() time.Time { return s.startTime }
