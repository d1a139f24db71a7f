// audio_queue.go - bounded audio sample FIFO (spec.md §7 domain stack).
//
// Grounded on _teacher_ref/audio_backend_oto.go's OtoPlayer: kept its
// atomic.Pointer-guarded queue lookup in Read() (oto's io.Reader pull
// model; each sample is then pulled under the queue's mutex) and its
// pre-allocated sample-buffer reuse. Generalized from a single
// SoundChip-specific ring into an architecture-neutral bounded FIFO any
// console's APU/PSG adapter can push samples into, per spec.md §7's
// producer/consumer audio queue requirement, with the underrun behavior
// (repeat the last sample rather than emit silence, avoiding an audible
// click) spec.md names explicitly.
package main

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// AudioQueue is a bounded ring buffer of float32 samples, written by a
// console's audio-generation goroutine and drained by the output
// backend's pull callback. It never blocks the producer: once full, the
// oldest unread sample is overwritten, trading backlog for staying in
// wall-clock sync with the video/CPU scheduler (spec.md §7).
type AudioQueue struct {
	mu       sync.Mutex
	buf      []float32
	head     int
	tail     int
	count    int
	lastSamp float32
	dropped  atomic.Uint64
	pushed   atomic.Uint64
}

// AudioOutput is the consumer side of an AudioQueue: something that can
// attach to one, start/stop pulling from it, and release its device on
// Close. OtoOutput and HeadlessAudioOutput both satisfy this so
// Scheduler can hold either without caring which.
type AudioOutput interface {
	Attach(*AudioQueue)
	Start()
	Stop()
	Close() error
}

func NewAudioQueue(capacity int) *AudioQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &AudioQueue{buf: make([]float32, capacity)}
}

// Push enqueues one sample, overwriting the oldest sample (and
// incrementing Dropped) if the queue is full.
func (q *AudioQueue) Push(sample float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.dropped.Add(1)
	}
	q.buf[q.tail] = sample
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
	q.pushed.Add(1)
}

// Pushed is the monotonically increasing count of samples ever enqueued
// since construction or the last Clear — spec.md §3's `total_samples`,
// read by the scheduler every frame to recompute `sync_time`.
func (q *AudioQueue) Pushed() uint64 { return q.pushed.Load() }

// Pull dequeues one sample. On underrun it repeats the last sample
// successfully returned, per spec.md §7's no-click-on-underrun
// requirement, rather than returning silence.
func (q *AudioQueue) Pull() float32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return q.lastSamp
	}
	s := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.lastSamp = s
	return s
}

func (q *AudioQueue) Dropped() uint64 { return q.dropped.Load() }

func (q *AudioQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Clear empties the queue and resets the underrun-repeat sample,
// called by the scheduler's resync (spec.md §4.5) on a host window
// move/resize/rescale — sample continuity is sacrificed deliberately
// to recover deadline sanity rather than let playback catch up.
func (q *AudioQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.head, q.tail, q.count = 0, 0, 0
	q.lastSamp = 0
	q.pushed.Store(0)
}

// OtoOutput adapts an AudioQueue to oto's io.Reader-driven player,
// following OtoPlayer's exact Read() shape: an atomic queue pointer
// loaded once per Read (each Pull then takes the queue's mutex), and a
// reused sample buffer sized to the largest request seen so far.
type OtoOutput struct {
	ctx       *oto.Context
	player    *oto.Player
	queue     atomic.Pointer[AudioQueue]
	sampleBuf []float32
}

func NewOtoOutput(sampleRate int) (*OtoOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoOutput{ctx: ctx, sampleBuf: make([]float32, 4096)}, nil
}

func (o *OtoOutput) Attach(q *AudioQueue) {
	o.queue.Store(q)
	if o.player == nil {
		o.player = o.ctx.NewPlayer(o)
	}
}

func (o *OtoOutput) Read(p []byte) (int, error) {
	q := o.queue.Load()
	if q == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	numSamples := len(p) / 4
	if len(o.sampleBuf) < numSamples {
		o.sampleBuf = make([]float32, numSamples)
	}
	samples := o.sampleBuf[:numSamples]
	for i := range samples {
		samples[i] = q.Pull()
	}
	copyFloat32ToBytes(p, samples)
	return len(p), nil
}

func (o *OtoOutput) Start() {
	if o.player != nil {
		o.player.Play()
	}
}

func (o *OtoOutput) Stop() {
	if o.player != nil {
		o.player.Pause()
	}
}

func (o *OtoOutput) Close() error {
	if o.player != nil {
		return o.player.Close()
	}
	return nil
}

// HeadlessAudioOutput discards samples instead of opening a real device,
// adapted from audio_backend_headless.go's build-tagged no-op OtoPlayer
// stub so non-interactive runs (tests, CI, a headless `main.go` launch)
// don't need a sound card. Unlike the teacher's version this isn't
// gated behind a //go:build headless tag — callers choose it explicitly
// (main.go, by isatty) rather than at compile time, since this repo
// always links oto and picks the backend at runtime.
type HeadlessAudioOutput struct {
	started bool
}

func NewHeadlessAudioOutput() *HeadlessAudioOutput { return &HeadlessAudioOutput{} }

func (h *HeadlessAudioOutput) Attach(q *AudioQueue) {}
func (h *HeadlessAudioOutput) Start()               { h.started = true }
func (h *HeadlessAudioOutput) Stop()                { h.started = false }
func (h *HeadlessAudioOutput) Close() error          { h.started = false; return nil }

// copyFloat32ToBytes packs float32 samples little-endian into a byte
// slice, matching oto.FormatFloat32LE without reaching for unsafe.Pointer
// reinterpretation the way the teacher's Read() does — this repo favors
// the explicit encoding/binary-style byte packing used elsewhere in its
// own bus code over an unsafe cast for a path that isn't measurably hot
// outside the teacher's own benchmarking.
func copyFloat32ToBytes(dst []byte, src []float32) {
	for i, s := range src {
		bits := math.Float32bits(s)
		o := i * 4
		dst[o] = byte(bits)
		dst[o+1] = byte(bits >> 8)
		dst[o+2] = byte(bits >> 16)
		dst[o+3] = byte(bits >> 24)
	}
}
