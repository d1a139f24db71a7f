// dma.go - deferred-request DMA engine shared by every System (spec.md §4.4).
//
// A write to a control register stores a request (source, destination,
// length, mode); the scheduler/CPU drains it before the next instruction
// step or between frames. The transfer is atomic with respect to the
// foreground CPU: Drain either completes the whole request or leaves it
// untouched, never half-stepped, per spec.md §4.4/§8.

package main

import "fmt"

// DMARequest describes one queued transfer.
type DMARequest struct {
	Src, Dst uint32
	Len      uint32
	Mode     int
}

// DMAEngine holds at most one in-flight request per instance; a console
// with multiple DMA channels (Genesis VDP DMA, SNES HDMA, N64 PI/SI)
// embeds one DMAEngine per channel.
type DMAEngine struct {
	bus     *SystemBus
	pending *DMARequest
	active  bool
}

func NewDMAEngine(bus *SystemBus) *DMAEngine {
	return &DMAEngine{bus: bus}
}

// Request queues a transfer. length is a count-1 register, matching the
// real DMA/HDMA length registers this engine models (and spec.md §8
// scenario 5's literal "len=15 → 16 bytes copied"): the queued transfer
// moves length+1 bytes. Reversed or out-of-range ranges are clamped to
// the address space rather than rejected, per spec.md §4.4.
func (d *DMAEngine) Request(src, dst, length uint32, mode int) {
	count := length + 1
	memLen := uint32(len(d.bus.mem))
	if src+count > memLen {
		count = memLen - src
	}
	if dst+count > memLen {
		count = memLen - dst
	}
	d.pending = &DMARequest{Src: src, Dst: dst, Len: count, Mode: mode}
	d.active = true
}

// Active reports whether a transfer is queued or mid-drain. The CPU is
// stalled for the whole duration of Drain; callers check Active before
// resuming normal stepping.
func (d *DMAEngine) Active() bool { return d.active }

// Drain performs the queued transfer atomically: either every byte moves
// or (on a malformed request) nothing does. Returns the number of bytes
// copied and advances the bus cycle counter by one tick per byte, which is
// the cycle-accounting floor spec.md §4.3 describes for bus access.
func (d *DMAEngine) Drain() (int, error) {
	if !d.active || d.pending == nil {
		return 0, nil
	}
	req := d.pending
	d.pending = nil
	d.active = false

	if req.Len == 0 {
		return 0, nil
	}
	mem := d.bus.mem
	if int(req.Src)+int(req.Len) > len(mem) || int(req.Dst)+int(req.Len) > len(mem) {
		return 0, fmt.Errorf("dma: request out of range: src=0x%X dst=0x%X len=%d", req.Src, req.Dst, req.Len)
	}
	copy(mem[req.Dst:req.Dst+req.Len], mem[req.Src:req.Src+req.Len])
	d.bus.Step(int(req.Len))
	return int(req.Len), nil
}
